package torrentrpc

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tinoosan/torrusd/internal/update"
)

// PollInterval is how often a task polls aria2.tellStatus for progress,
// mirroring the teacher's adapter_core.go pollMS field (here fixed rather
// than configurable per-adapter, since torrentrpc serves a single internal
// use case rather than a general-purpose download manager).
const PollInterval = time.Second

// Updater downloads a dev-build artifact over a BitTorrent client's
// aria2-compatible RPC interface. It declines (returns nil, nil) if none
// of the given uris look like something a torrent client would accept.
//
// Notify is optional. When set, a task watches its gid on Notify in
// addition to polling tellStatus, so a daemon that pushes
// onDownloadComplete/onDownloadError reaches NotifyComplete/
// NotifyTaskFailed immediately instead of waiting for the next tick —
// the poll loop keeps running regardless, so a daemon that never pushes
// (or a Notify connection that drops) still finishes the download.
type Updater struct {
	Client *Client
	Dir    string
	Notify *Listener
}

func (u *Updater) Update(ctx context.Context, id update.Identity, method update.Method, uris []string, version update.Version, maxTime time.Duration, sink update.Sink) (update.Task, error) {
	uri := firstTorrentURI(uris)
	if uri == "" {
		return nil, nil
	}

	gid, err := u.Client.AddURI(ctx, uri, u.Dir)
	if err != nil {
		return nil, fmt.Errorf("torrentrpc: addUri: %w", err)
	}

	t := &task{
		base:    update.NewBaseTask(id.Kind, id.ID, update.MethodTorrent, uri),
		client:  u.Client,
		gid:     gid,
		version: version,
		maxTime: maxTime,
		sink:    sink,
		notify:  u.Notify,
	}
	return t, nil
}

type task struct {
	base    *update.BaseTask
	client  *Client
	gid     string
	version update.Version
	maxTime time.Duration
	sink    update.Sink
	notify  *Listener

	cancel atomic.Value // func()
}

func (t *task) Kind() update.Kind     { return t.base.Kind() }
func (t *task) ID() string            { return t.base.ID() }
func (t *task) Method() update.Method { return t.base.Method() }
func (t *task) URI() string           { return t.base.URI() }
func (t *task) IsRunning() bool       { return t.base.IsRunning() }
func (t *task) Done() <-chan struct{} { return t.base.Done() }

func (t *task) Start(ctx context.Context) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if t.maxTime > 0 {
		runCtx, cancel = context.WithTimeout(ctx, t.maxTime)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	t.cancel.Store(cancel)
	go t.run(runCtx)
}

func (t *task) Shutdown() {
	if c, ok := t.cancel.Load().(context.CancelFunc); ok && c != nil {
		c()
	}
	if t.notify != nil {
		t.notify.Forget(t.gid)
	}
	_ = t.client.Remove(context.Background(), t.gid)
	t.base.Finish()
}

func (t *task) run(ctx context.Context) {
	defer t.base.Finish()
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	var pushed <-chan Notification
	if t.notify != nil {
		pushed = t.notify.Watch(t.gid)
		defer t.notify.Forget(t.gid)
	}

	for {
		select {
		case <-ctx.Done():
			t.sink.NotifyTaskFailed(t, "cancelled or timed out", ctx.Err())
			return
		case n := <-pushed:
			switch n.Event {
			case "complete":
				if !t.sink.NotifyComplete(t, t.version, t.gid) {
					t.sink.NotifyTaskFailed(t, "install/verify failed", nil)
				}
			default:
				t.sink.NotifyTaskFailed(t, "torrent download failed", fmt.Errorf("event=%s", n.Event))
			}
			return
		case <-ticker.C:
			status, completed, total, err := t.client.TellStatus(ctx, t.gid)
			if err != nil {
				t.sink.NotifyAttemptFailed(t, "tellStatus failed", err)
				continue
			}
			switch status {
			case "complete":
				if !t.sink.NotifyComplete(t, t.version, t.gid) {
					t.sink.NotifyTaskFailed(t, "install/verify failed", nil)
				}
				return
			case "error", "removed":
				t.sink.NotifyTaskFailed(t, "torrent download failed", fmt.Errorf("status=%s", status))
				return
			default:
				t.sink.NotifyProgress(t, "downloading dev build", completed, total)
			}
		}
	}
}

func firstTorrentURI(uris []string) string {
	if len(uris) == 0 {
		return ""
	}
	return uris[0]
}
