// Package update defines the artifact identity, version, and capability
// types shared by the registry, state store, and coordinator.
package update

// Kind identifies the type of artifact the coordinator manages. It governs
// install semantics (e.g. router kinds supersede one another in downloaded,
// news bypasses the available tier entirely).
type Kind string

const (
	KindNews           Kind = "NEWS"
	KindRouterSigned   Kind = "ROUTER_SIGNED"
	KindRouterUnsigned Kind = "ROUTER_UNSIGNED"
	KindPlugin         Kind = "PLUGIN"
	KindDummy          Kind = "DUMMY"
)

// Identity names one artifact instance. ID is empty for singleton kinds
// (NEWS, ROUTER_SIGNED, ROUTER_UNSIGNED, DUMMY); for PLUGIN it is the
// plugin name.
type Identity struct {
	Kind Kind
	ID   string
}

func (i Identity) String() string {
	if i.ID == "" {
		return string(i.Kind)
	}
	return string(i.Kind) + ":" + i.ID
}
