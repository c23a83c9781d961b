package coordinatorapi

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// statusPollInterval is how often WatchStatus pushes the current status
// line to a connected client.
const statusPollInterval = 2 * time.Second

// WatchStatus upgrades the connection to a WebSocket and streams the
// coordinator's status line until the client disconnects.
//
// Grounded on the teacher's internal/aria2/notify.go Notifications: same
// Dial/Accept-then-loop-read-or-write shape, here serving rather than
// consuming a websocket and pushing the coordinator's own status string
// instead of relaying aria2's async RPC notifications.
func (a *API) WatchStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		a.log.Warn("websocket accept failed", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

	ctx := r.Context()
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	last := ""
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := a.c.Status().GetStatus()
			if cur == last {
				continue
			}
			last = cur
			writeCtx, cancel := context.WithTimeout(ctx, statusPollInterval)
			err := conn.Write(writeCtx, websocket.MessageText, []byte(cur))
			cancel()
			if err != nil {
				return
			}
		}
	}
}
