package registry

import "math/rand"

// SampledPolicy returns a Policy that is eligible with probability rate
// (0..1) on each evaluation. It replaces the source's hard-coded "1% of
// dev builds" check for the TORRENT method (spec.md §9 Open Questions):
// the sampling now lives entirely at the registration call site, as an
// ordinary Policy, rather than inside the dispatch path.
func SampledPolicy(rate float64, rnd *rand.Rand) Policy {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	if rate <= 0 {
		return func() bool { return false }
	}
	if rate >= 1 {
		return Always
	}
	return func() bool { return rnd.Float64() < rate }
}
