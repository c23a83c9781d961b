package update

import (
	"strconv"
	"strings"
)

// Version is an opaque string ordered by Compare. For NEWS and
// ROUTER_UNSIGNED artifacts the version is a decimal millisecond
// timestamp; for ROUTER_SIGNED and PLUGIN it is typically a dotted
// numeric-tuple like "0.9.11".
type Version string

// Compare orders two versions. It first attempts a numeric-tuple
// comparison (splitting on '.' and comparing each component as an
// integer, shorter tuples padded with zero); if either side has a
// non-numeric component it falls back to lexicographic comparison of
// the raw strings. Returns -1, 0, or 1.
func Compare(a, b Version) int {
	if a == b {
		return 0
	}
	at, aok := asTuple(a)
	bt, bok := asTuple(b)
	if !aok || !bok {
		return strings.Compare(string(a), string(b))
	}
	n := len(at)
	if len(bt) > n {
		n = len(bt)
	}
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(at) {
			av = at[i]
		}
		if i < len(bt) {
			bv = bt[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Less reports whether a < b under Compare.
func Less(a, b Version) bool { return Compare(a, b) < 0 }

// AtLeast reports whether a >= b under Compare.
func AtLeast(a, b Version) bool { return Compare(a, b) >= 0 }

func asTuple(v Version) ([]int, bool) {
	if v == "" {
		return nil, false
	}
	parts := strings.Split(string(v), ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
