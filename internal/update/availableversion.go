package update

// AvailableVersion describes a version that has been announced by a
// Checker: the version itself, the minimum installed version required to
// apply it, and the set of transports it can be fetched over. Sources is
// additive — a later notification for the same version may register an
// additional method without overwriting the URIs already known for other
// methods.
type AvailableVersion struct {
	Version    Version
	MinVersion Version
	Sources    map[Method][]string
}

// Clone returns a deep copy so callers can hand out AvailableVersion values
// without the state store's internal map being mutated by a caller.
func (av *AvailableVersion) Clone() *AvailableVersion {
	if av == nil {
		return nil
	}
	out := &AvailableVersion{Version: av.Version, MinVersion: av.MinVersion}
	if av.Sources != nil {
		out.Sources = make(map[Method][]string, len(av.Sources))
		for m, uris := range av.Sources {
			cp := make([]string, len(uris))
			copy(cp, uris)
			out.Sources[m] = cp
		}
	}
	return out
}

// MergeSources adds uris under method only if that method is not already
// present. It reports whether anything was added.
func (av *AvailableVersion) MergeSources(method Method, uris []string) bool {
	if av.Sources == nil {
		av.Sources = make(map[Method][]string)
	}
	if _, ok := av.Sources[method]; ok {
		return false
	}
	cp := make([]string, len(uris))
	copy(cp, uris)
	av.Sources[method] = cp
	return true
}
