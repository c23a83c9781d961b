package journal

import "context"

// Sink is the narrow interface the coordinator depends on, so it can run
// with a real Postgres-backed Journal or a Noop in tests/dev.
type Sink interface {
	Append(ctx context.Context, e Entry) error
}

var _ Sink = (*Journal)(nil)

// Noop discards every entry. Grounded on the teacher's
// internal/downloader/noop.go NewNoopDownloader: a do-nothing
// implementation used when the real collaborator isn't configured.
type Noop struct{}

func (Noop) Append(context.Context, Entry) error { return nil }

var _ Sink = Noop{}
