// Package registry holds the sets of registered Checkers and Updaters
// keyed by (kind, method), ordered by descending priority.
//
// Grounded on the teacher's repo.DownloadRepo split into reader/writer
// halves guarded by one sync.RWMutex (internal/repo/inmem.go), generalized
// here to two parallel typed registries — one for Checkers, one for
// Updaters — sharing the same ordering and duplicate-detection logic via a
// generic core.
package registry

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/tinoosan/torrusd/internal/update"
)

// Policy gates whether a registration is currently eligible to be
// considered during dispatch. It is evaluated fresh on every iteration, so
// a sampled policy (e.g. "only 1% of checks") can vary attempt to attempt
// rather than being baked in at registration time.
type Policy func() bool

// Always is the default Policy: always eligible.
func Always() bool { return true }

type entry[C any] struct {
	reg  update.Registration[C]
	gate Policy
}

// core is the generic engine shared by Checkers and Updaters.
type core[C any] struct {
	mu      sync.RWMutex
	entries []entry[C]
	log     *slog.Logger
}

func newCore[C any](log *slog.Logger) *core[C] {
	if log == nil {
		log = slog.Default()
	}
	return &core[C]{log: log}
}

// register inserts capability at (kind, method, priority). Re-registering
// the exact same capability at the same (kind, method) is idempotent: the
// existing entry's priority and gate are replaced and the duplicate is
// logged, but no second entry is created. A distinct capability registered
// at a (kind, method) that already has one coexists as a separate entry,
// ordered alongside it by priority (spec.md §8 scenario 4).
func (c *core[C]) register(capability C, kind update.Kind, method update.Method, priority int, gate Policy) {
	if gate == nil {
		gate = Always
	}
	want := update.Registration[C]{Capability: capability, Kind: kind, Method: method, Priority: priority}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.entries {
		if e.reg.Same(want) {
			c.log.Info("duplicate registration, replacing", "kind", kind, "method", method, "priority", priority)
			c.entries[i] = entry[C]{reg: update.SetSeq(want, update.NextSeq()), gate: gate}
			c.sortLocked()
			return
		}
	}
	c.entries = append(c.entries, entry[C]{reg: update.SetSeq(want, update.NextSeq()), gate: gate})
	c.sortLocked()
}

// unregister removes every registration at (kind, method), regardless of
// which capability each holds. It is an operator-level "stop considering
// anything for this slot" action, not a capability-scoped removal — there
// is currently no caller that needs to unregister one of several
// coexisting capabilities while leaving the others in place.
func (c *core[C]) unregister(kind update.Kind, method update.Method) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.entries[:0:0]
	for _, e := range c.entries {
		if e.reg.Kind == kind && e.reg.Method == method {
			continue
		}
		out = append(out, e)
	}
	c.entries = out
}

// snapshot returns entries for kind, in descending-priority order, with
// currently-ineligible (gated-off) entries filtered out. The returned
// slice is a fresh copy safe to iterate while the caller mutates the
// registry concurrently (spec.md §5: "iteration under modification is
// tolerated").
func (c *core[C]) snapshot(kind update.Kind) []update.Registration[C] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]update.Registration[C], 0, len(c.entries))
	for _, e := range c.entries {
		if e.reg.Kind != kind {
			continue
		}
		if !e.gate() {
			continue
		}
		out = append(out, e.reg)
	}
	return out
}

// eligible reports whether a (kind, method) registration currently exists
// and its gate passes. Used by the retry engine to skip candidates that
// have been unregistered since the plan was built.
func (c *core[C]) eligible(kind update.Kind, method update.Method) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.reg.Kind == kind && e.reg.Method == method {
			return e.gate()
		}
	}
	return false
}

// eligibleEntry reports whether a registration matching reg's full
// (Capability, Kind, Method) identity is currently registered and its
// gate passes. Unlike eligible, which matches on (kind, method) alone, this
// distinguishes between several capabilities coexisting at the same (kind,
// method) slot — needed by the retry engine, which must re-check the
// specific candidate it is about to run, not just whether something is
// registered for that slot.
func (c *core[C]) eligibleEntry(reg update.Registration[C]) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.reg.Same(reg) {
			return e.gate()
		}
	}
	return false
}

func (c *core[C]) sortLocked() {
	sort.Slice(c.entries, func(i, j int) bool {
		return update.LessRegistration(c.entries[i].reg, c.entries[j].reg)
	})
}
