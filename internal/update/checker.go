package update

import "context"

// Checker determines whether a newer version of an artifact exists and
// publishes it via Sink.NotifyVersionAvailable. Check may return a nil
// task (and nil error) to decline the work, letting the registry try the
// next-highest-priority checker for the same kind.
type Checker interface {
	Check(ctx context.Context, id Identity, baseline Version, sink Sink) (Task, error)
}
