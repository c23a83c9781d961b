// Package state holds the three-tier artifact state (installed,
// downloaded, available) and enforces the version-monotonic transition
// rules described in spec.md §3-4.2.
//
// Grounded on the teacher's InMemoryDownloadRepo (internal/repo/inmem.go):
// same "maps guarded by a lock, callers get clones, never the live value"
// shape, generalized from one flat map of *data.Download to three maps of
// version-like values keyed by artifact identity. Every mutation takes a
// per-key lock (keylock.go) for its identity and then the store-wide
// RWMutex, so a transition spanning all three maps for one identity is
// atomic; reads take only the store-wide RWMutex. Because of the
// store-wide lock, operations on different identities still serialize.
package state

import (
	"sync"

	"github.com/tinoosan/torrusd/internal/update"
)

// Store is the three-tier state model: installed, downloaded, available.
type Store struct {
	keys *keyLock

	mu         sync.RWMutex
	installed  map[update.Identity]update.Version
	downloaded map[update.Identity]update.Version
	available  map[update.Identity]*update.AvailableVersion
}

func New() *Store {
	return &Store{
		keys:       newKeyLock(),
		installed:  make(map[update.Identity]update.Version),
		downloaded: make(map[update.Identity]update.Version),
		available:  make(map[update.Identity]*update.AvailableVersion),
	}
}

// Installed returns the installed version for id, if any.
func (s *Store) Installed(id update.Identity) (update.Version, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.installed[id]
	return v, ok
}

// Downloaded returns the downloaded-but-not-installed version for id, if
// any.
func (s *Store) Downloaded(id update.Identity) (update.Version, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.downloaded[id]
	return v, ok
}

// Available returns a clone of the available-but-not-downloaded version
// for id, if any. A clone is returned so callers can never mutate the
// store's Sources map directly.
func (s *Store) Available(id update.Identity) (*update.AvailableVersion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	av, ok := s.available[id]
	if !ok {
		return nil, false
	}
	return av.Clone(), true
}

// GetDownloadedOrInstalledVersion returns the greater of downloaded[id]
// and installed[id] if either is present; this is the baseline a Checker
// is told about so it knows what "newer" means.
func (s *Store) GetDownloadedOrInstalledVersion(id update.Identity) (update.Version, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dv, dok := s.downloaded[id]
	iv, iok := s.installed[id]
	switch {
	case dok && iok:
		if update.AtLeast(dv, iv) {
			return dv, true
		}
		return iv, true
	case dok:
		return dv, true
	case iok:
		return iv, true
	default:
		return "", false
	}
}

// NotifyInstalled sets installed[id] = v (or removes it, if v is nil) and
// then prunes downloaded[id]/available[id] when they are now dominated
// (spec.md invariant 2).
func (s *Store) NotifyInstalled(id update.Identity, v *update.Version) {
	unlock := s.keys.lock(id)
	defer unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if v == nil {
		delete(s.installed, id)
		return
	}
	s.installed[id] = *v
	if dv, ok := s.downloaded[id]; ok && update.AtLeast(*v, dv) {
		delete(s.downloaded, id)
	}
	if av, ok := s.available[id]; ok && update.AtLeast(*v, av.Version) {
		delete(s.available, id)
	}
}

// routerCounterpart returns the mutually-superseding kind for router
// artifacts, or "" if kind is not a router kind (spec.md invariant 3).
func routerCounterpart(kind update.Kind) update.Kind {
	switch kind {
	case update.KindRouterSigned:
		return update.KindRouterUnsigned
	case update.KindRouterUnsigned:
		return update.KindRouterSigned
	default:
		return ""
	}
}

// NotifyDownloaded sets downloaded[id] = v, enforces router signed/unsigned
// supersession, and prunes available[id] when dominated.
func (s *Store) NotifyDownloaded(id update.Identity, v update.Version) {
	unlock := s.keys.lock(id)
	defer unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.downloaded[id] = v
	if counterpart := routerCounterpart(id.Kind); counterpart != "" {
		delete(s.downloaded, update.Identity{Kind: counterpart, ID: id.ID})
	}
	if av, ok := s.available[id]; ok && update.AtLeast(v, av.Version) {
		delete(s.available, id)
	}
}

// VersionAvailableOutcome reports what NotifyVersionAvailable did, so the
// notification sink can decide whether to trigger update_fromCheck or
// append a status message without re-deriving the comparison itself.
type VersionAvailableOutcome int

const (
	// Rejected: installed/downloaded/available already at or above the
	// proposed version (spec.md §4.2).
	Rejected VersionAvailableOutcome = iota
	// SourcesExtended: the proposed version equals the known available
	// version; a new method's URIs were merged into Sources.
	SourcesExtended
	// Published: a strictly newer version was installed into available.
	Published
)

// NotifyVersionAvailable applies spec.md §4.2's accept/extend/reject rule.
func (s *Store) NotifyVersionAvailable(id update.Identity, method update.Method, uris []string, version, minVersion update.Version) VersionAvailableOutcome {
	unlock := s.keys.lock(id)
	defer unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if iv, ok := s.installed[id]; ok && update.AtLeast(iv, version) {
		return Rejected
	}
	if dv, ok := s.downloaded[id]; ok && update.AtLeast(dv, version) {
		return Rejected
	}
	if av, ok := s.available[id]; ok {
		switch {
		case update.Compare(av.Version, version) > 0:
			return Rejected
		case av.Version == version:
			if av.MergeSources(method, uris) {
				return SourcesExtended
			}
			return Rejected
		}
	}

	s.available[id] = &update.AvailableVersion{
		Version:    version,
		MinVersion: minVersion,
		Sources:    map[update.Method][]string{method: append([]string(nil), uris...)},
	}
	return Published
}

// RemoveAvailable drops the available entry for id, used when installPlugin
// seeds a synthetic AvailableVersion that an update then consumes, or when
// a caller wants to clear a stale announcement.
func (s *Store) RemoveAvailable(id update.Identity) {
	unlock := s.keys.lock(id)
	defer unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.available, id)
}

// Snapshot returns shallow copies of all three maps, used by the debug
// status surface (renderStatusHTML) and tests. Available entries are
// cloned; installed/downloaded are value types and copy naturally.
func (s *Store) Snapshot() (installed, downloaded map[update.Identity]update.Version, available map[update.Identity]*update.AvailableVersion) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	installed = make(map[update.Identity]update.Version, len(s.installed))
	for k, v := range s.installed {
		installed[k] = v
	}
	downloaded = make(map[update.Identity]update.Version, len(s.downloaded))
	for k, v := range s.downloaded {
		downloaded[k] = v
	}
	available = make(map[update.Identity]*update.AvailableVersion, len(s.available))
	for k, v := range s.available {
		available[k] = v.Clone()
	}
	return
}
