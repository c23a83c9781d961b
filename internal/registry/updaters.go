package registry

import (
	"log/slog"

	"github.com/tinoosan/torrusd/internal/update"
)

// Updaters holds registered Updater capabilities.
type Updaters struct {
	core[update.Updater]
}

func NewUpdaters(log *slog.Logger) *Updaters {
	return &Updaters{core: *newCore[update.Updater](log)}
}

func (u *Updaters) Register(updater update.Updater, kind update.Kind, method update.Method, priority int, gate Policy) {
	u.register(updater, kind, method, priority, gate)
}

func (u *Updaters) Unregister(kind update.Kind, method update.Method) {
	u.unregister(kind, method)
}

// ForKind returns registered updaters for kind in descending-priority
// order, skipping any currently gated off.
func (u *Updaters) ForKind(kind update.Kind) []update.RegisteredUpdater {
	return u.snapshot(kind)
}

// IsEligible reports whether (kind, method) is currently registered and
// not gated off.
func (u *Updaters) IsEligible(kind update.Kind, method update.Method) bool {
	return u.eligible(kind, method)
}

// IsEligibleCandidate reports whether reg's exact capability is still
// registered at its (kind, method) and not gated off. The retry engine
// uses this rather than IsEligible so that, when several updaters coexist
// at one (kind, method), unregistering one doesn't falsely disqualify (or
// keep eligible) the others.
func (u *Updaters) IsEligibleCandidate(reg update.RegisteredUpdater) bool {
	return u.eligibleEntry(reg)
}
