package coordinator

import (
	"context"

	"github.com/tinoosan/torrusd/internal/update"
)

// pendingCheck is the placeholder table.TryAddCheck inserts the instant a
// check is accepted for launch, before any registered Checker has actually
// been asked to run. It exists purely to make "no check in progress AND
// launched" one atomic step (spec.md §4.3 invariant 1): without it, two
// callers could both observe no active checker and both start iterating the
// registry before either inserts a real task.
type pendingCheck struct {
	id   update.Identity
	done chan struct{}
}

func newPendingCheck(id update.Identity) *pendingCheck {
	return &pendingCheck{id: id, done: make(chan struct{})}
}

func (p *pendingCheck) Kind() update.Kind     { return p.id.Kind }
func (p *pendingCheck) ID() string            { return p.id.ID }
func (p *pendingCheck) Method() update.Method { return "" }
func (p *pendingCheck) URI() string           { return "" }
func (p *pendingCheck) IsRunning() bool       { return true }
func (p *pendingCheck) Start(context.Context) {}
func (p *pendingCheck) Shutdown()             {}
func (p *pendingCheck) Done() <-chan struct{} { return p.done }
