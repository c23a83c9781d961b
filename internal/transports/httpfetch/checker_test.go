package httpfetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/tinoosan/torrusd/internal/update"
)

type recordingSink struct {
	mu       sync.Mutex
	versions []update.Version
	methods  []update.Method
	uris     [][]string
	complete []bool
	newer    []bool
}

func (s *recordingSink) NotifyVersionAvailable(id update.Identity, method update.Method, uris []string, version, minVersion update.Version) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions = append(s.versions, version)
	s.methods = append(s.methods, method)
	s.uris = append(s.uris, uris)
}
func (s *recordingSink) NotifyCheckComplete(task update.Task, newer bool, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complete = append(s.complete, success)
	s.newer = append(s.newer, newer)
}
func (s *recordingSink) NotifyProgress(update.Task, string, int64, int64)        {}
func (s *recordingSink) NotifyAttemptFailed(update.Task, string, error)          {}
func (s *recordingSink) NotifyTaskFailed(update.Task, string, error)             {}
func (s *recordingSink) NotifyComplete(update.Task, update.Version, string) bool { return true }

func (s *recordingSink) waitForComplete(t *testing.T) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		s.mu.Lock()
		n := len(s.complete)
		s.mu.Unlock()
		if n > 0 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("checker never reported completion")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestCheckPublishesANewerManifestVersionUnderItsConfiguredMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(manifest{Version: "2", MinVersion: "1", URI: "http://example.invalid/artifact.bin"})
	}))
	defer srv.Close()

	checker := &Checker{ManifestURL: srv.URL, Method: update.MethodHTTP}
	sink := &recordingSink{}
	id := update.Identity{Kind: update.KindRouterSigned, ID: ""}

	task, err := checker.Check(context.Background(), id, "1", sink)
	if err != nil || task == nil {
		t.Fatalf("Check: %v, %v", task, err)
	}

	sink.waitForComplete(t)
	if len(sink.versions) != 1 || sink.versions[0] != "2" {
		t.Fatalf("expected version 2 to be published, got %v", sink.versions)
	}
	if sink.methods[0] != update.MethodHTTP {
		t.Fatalf("expected the configured Method to be published, got %q", sink.methods[0])
	}
}

func TestCheckDoesNotPublishWhenManifestIsNotNewer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(manifest{Version: "1", URI: "http://example.invalid/news.json"})
	}))
	defer srv.Close()

	checker := &Checker{ManifestURL: srv.URL, Method: update.MethodHTTP}
	sink := &recordingSink{}
	id := update.Identity{Kind: update.KindNews, ID: ""}

	_, err := checker.Check(context.Background(), id, "1", sink)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	sink.waitForComplete(t)
	if len(sink.versions) != 0 {
		t.Fatalf("expected no publish when baseline already at least as new, got %v", sink.versions)
	}
	if !sink.complete[0] {
		t.Fatalf("expected the check to still report success")
	}
}

func TestCheckReportsFailureOnManifestFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	checker := &Checker{ManifestURL: srv.URL, Method: update.MethodHTTP}
	sink := &recordingSink{}
	id := update.Identity{Kind: update.KindPlugin, ID: "p"}

	_, _ = checker.Check(context.Background(), id, "0", sink)

	sink.waitForComplete(t)
	if sink.complete[0] {
		t.Fatalf("expected the check to report failure when the manifest endpoint errors")
	}
}
