package coordinatorapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/tinoosan/torrusd/internal/coordinator"
	"github.com/tinoosan/torrusd/internal/transports/dummy"
	"github.com/tinoosan/torrusd/internal/update"
)

func newTestAPI() (*API, *coordinator.Coordinator) {
	c := coordinator.New(coordinator.Deps{})
	return New(nil, c), c
}

func withVars(r *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(r, vars)
}

func TestGetStatusUnknownKindReturnsBadRequest(t *testing.T) {
	api, _ := newTestAPI()
	req := withVars(httptest.NewRequest(http.MethodGet, "/v1/status/bogus", nil), map[string]string{"kind": "bogus"})
	rec := httptest.NewRecorder()

	api.GetStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetStatusReportsInstalledVersion(t *testing.T) {
	api, c := newTestAPI()
	c.Checkers().Register(dummy.Checker{}, update.KindDummy, update.MethodDummy, 0, nil)
	c.Updaters().Register(dummy.Updater{}, update.KindDummy, update.MethodDummy, 0, nil)
	c.Store().NotifyInstalled(dummy.Identity, versionPtr(dummy.Version))

	req := withVars(httptest.NewRequest(http.MethodGet, "/v1/status/dummy", nil), map[string]string{"kind": "dummy"})
	rec := httptest.NewRecorder()

	api.GetStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"installed":"1"`) {
		t.Fatalf("expected installed version in body, got %s", body)
	}
}

func TestCheckLaunchesAndReturnsAccepted(t *testing.T) {
	api, c := newTestAPI()
	c.Checkers().Register(dummy.Checker{}, update.KindDummy, update.MethodDummy, 0, nil)

	req := withVars(httptest.NewRequest(http.MethodPost, "/v1/check/dummy", nil), map[string]string{"kind": "dummy"})
	rec := httptest.NewRecorder()

	api.Check(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
}

func TestCheckMissingCheckerReturnsConflict(t *testing.T) {
	api, _ := newTestAPI()
	req := withVars(httptest.NewRequest(http.MethodPost, "/v1/check/news", nil), map[string]string{"kind": "news"})
	rec := httptest.NewRecorder()

	api.Check(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestInstallPluginRejectsMissingURI(t *testing.T) {
	api, _ := newTestAPI()
	req := httptest.NewRequest(http.MethodPost, "/v1/plugins", strings.NewReader(`{"name":"foo"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	api.InstallPlugin(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestInstallPluginRejectsWrongContentType(t *testing.T) {
	api, _ := newTestAPI()
	req := httptest.NewRequest(http.MethodPost, "/v1/plugins", strings.NewReader(`{"uri":"http://x"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	api.InstallPlugin(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestInstallPluginAccepted(t *testing.T) {
	api, c := newTestAPI()
	c.Checkers().Register(dummy.Checker{}, update.KindPlugin, update.MethodHTTP, 0, nil)
	c.Updaters().Register(dummy.Updater{}, update.KindPlugin, update.MethodHTTP, 0, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/plugins", strings.NewReader(`{"name":"foo","uri":"http://x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	api.InstallPlugin(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
}

func TestStopCheckAlwaysReturnsNoContent(t *testing.T) {
	api, _ := newTestAPI()
	req := withVars(httptest.NewRequest(http.MethodPost, "/v1/stop/check/plugin/foo", nil), map[string]string{"kind": "plugin", "id": "foo"})
	rec := httptest.NewRecorder()

	api.StopCheck(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestDebugStatusServesHTML(t *testing.T) {
	api, _ := newTestAPI()
	req := httptest.NewRequest(http.MethodGet, "/debug/status", nil)
	rec := httptest.NewRecorder()

	api.DebugStatus(rec, req)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected text/html content type, got %q", ct)
	}
}

func versionPtr(v update.Version) *update.Version { return &v }

var _ = context.Background
