package update

import (
	"context"
	"time"
)

// Updater downloads (and, for some kinds, installs) an artifact. Update may
// return a nil task (and nil error) to decline — e.g. because it has no
// registration matching any of the given methods — letting the retry
// engine try the next candidate.
type Updater interface {
	Update(ctx context.Context, id Identity, method Method, uris []string, version Version, maxTime time.Duration, sink Sink) (Task, error)
}
