package torrentrpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"nhooyr.io/websocket"
)

// Notification is a decoded aria2.onDownloadComplete/onDownloadError push,
// keyed by the daemon-assigned gid it concerns.
type Notification struct {
	Event string // "complete" or "error"
	GID   string
}

// Listener subscribes to an aria2-compatible daemon's WebSocket
// notification endpoint and republishes pushes to whichever task is
// watching that gid, so a download's task learns of completion or failure
// immediately instead of waiting for its next tellStatus poll.
//
// Grounded on the teacher's internal/aria2/notify.go Notifications: same
// Dial-then-loop-read shape, here consuming rather than serving the
// socket (coordinatorapi/wsstatus.go is the serving side, pushing the
// coordinator's own status line to a browser).
type Listener struct {
	URL string
	log *slog.Logger

	mu       sync.Mutex
	watchers map[string]chan Notification
}

func NewListener(url string, log *slog.Logger) *Listener {
	if log == nil {
		log = slog.Default()
	}
	return &Listener{URL: url, log: log, watchers: make(map[string]chan Notification)}
}

// Watch registers gid for delivery and returns a channel that receives at
// most one Notification for it. If the listener's connection drops before
// a push for gid arrives, the channel is simply never written to — the
// caller's own tellStatus polling is the fallback for that case, not this
// channel closing.
func (l *Listener) Watch(gid string) <-chan Notification {
	ch := make(chan Notification, 1)
	l.mu.Lock()
	l.watchers[gid] = ch
	l.mu.Unlock()
	return ch
}

// Forget stops routing pushes for gid to whatever channel Watch handed
// back, once the task has moved on (by poll or by push, whichever won).
func (l *Listener) Forget(gid string) {
	l.mu.Lock()
	delete(l.watchers, gid)
	l.mu.Unlock()
}

// Run dials URL and forwards decoded notifications to their registered
// watcher until ctx is cancelled or the connection drops. Callers that
// want to keep listening across daemon restarts call Run again after it
// returns a non-nil error.
func (l *Listener) Run(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, l.URL, nil)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		gid, event, ok := decodePush(data)
		if !ok {
			continue
		}
		l.mu.Lock()
		ch, watched := l.watchers[gid]
		l.mu.Unlock()
		if !watched {
			continue
		}
		select {
		case ch <- Notification{Event: event, GID: gid}:
		default:
		}
	}
}

func decodePush(data []byte) (gid, event string, ok bool) {
	var push struct {
		Method string `json:"method"`
		Params []struct {
			GID string `json:"gid"`
		} `json:"params"`
	}
	if err := json.Unmarshal(data, &push); err != nil || len(push.Params) == 0 {
		return "", "", false
	}
	switch push.Method {
	case "aria2.onDownloadComplete", "aria2.onBtDownloadComplete":
		return push.Params[0].GID, "complete", true
	case "aria2.onDownloadError":
		return push.Params[0].GID, "error", true
	default:
		return "", "", false
	}
}
