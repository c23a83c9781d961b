package torrentrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/tinoosan/torrusd/internal/update"
)

type updateRecordingSink struct {
	mu        sync.Mutex
	completed []update.Version
	failed    []string
	progress  int
}

func (s *updateRecordingSink) NotifyVersionAvailable(update.Identity, update.Method, []string, update.Version, update.Version) {
}
func (s *updateRecordingSink) NotifyCheckComplete(update.Task, bool, bool) {}
func (s *updateRecordingSink) NotifyProgress(update.Task, string, int64, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress++
}
func (s *updateRecordingSink) NotifyAttemptFailed(update.Task, string, error) {}
func (s *updateRecordingSink) NotifyTaskFailed(task update.Task, reason string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, reason)
}
func (s *updateRecordingSink) NotifyComplete(task update.Task, actualVersion update.Version, file string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, actualVersion)
	return true
}

func newStubClient(t *testing.T, statuses []string) *Client {
	t.Helper()
	idx := 0
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcReq
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch req.Method {
		case "aria2.addUri":
			_ = json.NewEncoder(w).Encode(rpcResp{Jsonrpc: "2.0", ID: req.ID, Result: json.RawMessage(`"gid-1"`)})
		case "aria2.tellStatus":
			mu.Lock()
			s := statuses[idx]
			if idx < len(statuses)-1 {
				idx++
			}
			mu.Unlock()
			result := `{"status":"` + s + `","completedLength":"1","totalLength":"2"}`
			_ = json.NewEncoder(w).Encode(rpcResp{Jsonrpc: "2.0", ID: req.ID, Result: json.RawMessage(result)})
		case "aria2.remove":
			_ = json.NewEncoder(w).Encode(rpcResp{Jsonrpc: "2.0", ID: req.ID, Result: json.RawMessage(`"OK"`)})
		}
	}))
	t.Cleanup(srv.Close)
	u, _ := url.Parse(srv.URL)
	return &Client{baseURL: u, http: &http.Client{Timeout: 2 * time.Second}}
}

func TestUpdateDeclinesWithoutAnyURIs(t *testing.T) {
	u := &Updater{Client: &Client{}}
	task, err := u.Update(context.Background(), update.Identity{}, update.MethodTorrent, nil, "1", 0, &updateRecordingSink{})
	if task != nil || err != nil {
		t.Fatalf("expected a silent decline for no candidate uris, got %v, %v", task, err)
	}
}

func TestUpdateRunsThroughToCompletion(t *testing.T) {
	origInterval := PollInterval
	_ = origInterval // PollInterval is a const; test waits generously instead of overriding it.

	client := newStubClient(t, []string{"active", "complete"})
	u := &Updater{Client: client, Dir: "/tmp"}
	sink := &updateRecordingSink{}
	id := update.Identity{Kind: update.KindRouterUnsigned, ID: ""}

	task, err := u.Update(context.Background(), id, update.MethodTorrent, []string{"magnet:?xt=urn:btih:x"}, "2", 0, sink)
	if err != nil || task == nil {
		t.Fatalf("Update: %v, %v", task, err)
	}

	task.Start(context.Background())

	deadline := time.After(5 * time.Second)
	for {
		sink.mu.Lock()
		n := len(sink.completed)
		sink.mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("update task never completed")
		case <-time.After(20 * time.Millisecond):
		}
	}

	if sink.completed[0] != "2" {
		t.Fatalf("expected the completed version to be 2, got %v", sink.completed)
	}
	<-task.Done()
}

func TestUpdateCompletesImmediatelyOnAPushedNotificationWithoutWaitingForAPoll(t *testing.T) {
	// statuses never reaches "complete" on its own, so a pass would prove
	// the push short-circuited the task rather than the poll loop finishing
	// it on its own.
	client := newStubClient(t, []string{"active"})
	listener := NewListener("ws://unused.invalid", nil)
	u := &Updater{Client: client, Dir: "/tmp", Notify: listener}
	sink := &updateRecordingSink{}
	id := update.Identity{Kind: update.KindRouterUnsigned, ID: ""}

	tsk, err := u.Update(context.Background(), id, update.MethodTorrent, []string{"magnet:?xt=urn:btih:x"}, "2", 0, sink)
	if err != nil || tsk == nil {
		t.Fatalf("Update: %v, %v", tsk, err)
	}

	tsk.Start(context.Background())
	time.Sleep(20 * time.Millisecond) // give run() time to call Watch before we push

	gid := tsk.(*task).gid
	listener.mu.Lock()
	ch, watched := listener.watchers[gid]
	listener.mu.Unlock()
	if !watched {
		t.Fatalf("expected the running task to be watching gid %q", gid)
	}
	ch <- Notification{Event: "complete", GID: gid}

	select {
	case <-tsk.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the pushed notification to complete the task")
	}

	if len(sink.completed) != 1 || sink.completed[0] != "2" {
		t.Fatalf("expected exactly one completion at version 2, got %v", sink.completed)
	}
}

func TestShutdownCancelsAndRemovesTheTorrent(t *testing.T) {
	client := newStubClient(t, []string{"active"})
	u := &Updater{Client: client, Dir: "/tmp"}
	sink := &updateRecordingSink{}
	id := update.Identity{Kind: update.KindRouterUnsigned, ID: ""}

	task, err := u.Update(context.Background(), id, update.MethodTorrent, []string{"magnet:?xt=urn:btih:x"}, "2", 0, sink)
	if err != nil || task == nil {
		t.Fatalf("Update: %v, %v", task, err)
	}

	task.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	task.Shutdown()

	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected Shutdown to finish the task")
	}
}
