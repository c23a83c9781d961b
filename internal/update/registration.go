package update

import "reflect"

// Registration is the common shape of a RegisteredChecker or
// RegisteredUpdater: a capability bound to a (kind, method), ordered by
// descending priority. Identity is the (Capability, Kind, Method) triple
// spec.md §3 describes — priority is a tie-break, never part of identity —
// so registering the same capability twice with different priorities is
// still a duplicate registration, but two distinct capabilities registered
// at the same (kind, method) (spec.md §8 scenario 4: two ROUTER_SIGNED/HTTP
// updaters at priorities 10 and 0) coexist as separate entries.
type Registration[C any] struct {
	Capability C
	Kind       Kind
	Method     Method
	Priority   int

	// seq is assigned at registration time and used as a deterministic,
	// collision-free tie-break when two registrations share a priority.
	// It plays the role the source's identity-hash tie-break plays: two
	// distinct registrations never compare equal under Less.
	seq uint64
}

// Same reports whether two registrations share the (Capability, Kind,
// Method) identity that register/unregister key on. Capability is an
// arbitrary type parameter, so it is compared via sameCapability rather
// than the == operator directly: some capability implementations may hold
// a non-comparable field (a slice, map, or func), and comparing those with
// == panics at runtime instead of returning false.
func (r Registration[C]) Same(o Registration[C]) bool {
	return r.Kind == o.Kind && r.Method == o.Method && sameCapability(r.Capability, o.Capability)
}

// sameCapability reports whether a and b are the same capability value. It
// never panics: capability types whose dynamic type isn't comparable (one
// carrying a slice/map/func field by value rather than by pointer) are
// treated as always distinct, so registering one never coalesces with a
// different instance of the same type.
func sameCapability(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta == nil {
		return true
	}
	if !ta.Comparable() {
		return false
	}
	return a == b
}

// LessRegistration orders registrations by descending priority, tie-broken
// by ascending registration sequence so iteration order is fully
// deterministic.
func LessRegistration[C any](a, b Registration[C]) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.seq < b.seq
}

// RegisteredChecker binds a Checker to a (kind, method) at a priority.
type RegisteredChecker = Registration[Checker]

// RegisteredUpdater binds an Updater to a (kind, method) at a priority.
type RegisteredUpdater = Registration[Updater]

// NextSeq is a process-wide monotonic counter used to stamp registrations
// with a deterministic tie-break. It is exported so the registry package
// (the only caller) can stamp registrations as they are created.
func NextSeq() uint64 {
	seqMu.Lock()
	defer seqMu.Unlock()
	seqCounter++
	return seqCounter
}

// SetSeq stamps r with seq s and returns the updated value. Registration's
// seq field is unexported so only this package can assign it, keeping the
// tie-break tamper-proof from outside callers.
func SetSeq[C any](r Registration[C], s uint64) Registration[C] {
	r.seq = s
	return r
}
