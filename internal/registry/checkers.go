package registry

import (
	"log/slog"

	"github.com/tinoosan/torrusd/internal/update"
)

// Checkers holds registered Checker capabilities.
type Checkers struct {
	core[update.Checker]
}

func NewCheckers(log *slog.Logger) *Checkers {
	return &Checkers{core: *newCore[update.Checker](log)}
}

// Register binds checker to (kind, method) at priority. gate may be nil
// (always eligible).
func (c *Checkers) Register(checker update.Checker, kind update.Kind, method update.Method, priority int, gate Policy) {
	c.register(checker, kind, method, priority, gate)
}

func (c *Checkers) Unregister(kind update.Kind, method update.Method) {
	c.unregister(kind, method)
}

// ForKind returns registered checkers for kind in descending-priority
// order, skipping any currently gated off.
func (c *Checkers) ForKind(kind update.Kind) []update.RegisteredChecker {
	return c.snapshot(kind)
}

// IsEligible reports whether (kind, method) is currently registered and
// not gated off.
func (c *Checkers) IsEligible(kind update.Kind, method update.Method) bool {
	return c.eligible(kind, method)
}
