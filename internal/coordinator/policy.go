package coordinator

// Policy governs what notifyVersionAvailable does for router kinds once a
// new version is published: "notify" leaves it for the operator to drive
// update() by hand, "install" has the sink dispatch update_fromCheck
// automatically. Any other value is treated as "notify" (spec.md §7: no
// silent policy enforcement beyond what's documented).
//
// Grounded on the teacher's internal/downloadcfg/policy.go
// CollisionPolicy/ParseCollisionPolicy: same "string enum with a safe
// default" shape.
type Policy string

const (
	PolicyNotify  Policy = "notify"
	PolicyInstall Policy = "install"
)

// ParsePolicy converts s to a Policy, defaulting to PolicyNotify for any
// unrecognized value.
func ParsePolicy(s string) Policy {
	switch Policy(s) {
	case PolicyInstall:
		return PolicyInstall
	case PolicyNotify:
		return PolicyNotify
	default:
		return PolicyNotify
	}
}
