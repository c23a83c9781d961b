package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/tinoosan/torrusd/internal/transports/dummy"
	"github.com/tinoosan/torrusd/internal/update"
)

func TestNotifyVersionAvailableBypassesTiersForNews(t *testing.T) {
	c := newTestCoordinator()
	id := update.Identity{Kind: update.KindNews, ID: ""}

	c.NotifyVersionAvailable(id, update.MethodHTTP, []string{"http://a"}, "1700000000000", "")

	if _, ok := c.Store().Available(id); ok {
		t.Fatalf("expected NEWS to bypass the available tier entirely")
	}
	if _, ok := c.Store().Downloaded(id); ok {
		t.Fatalf("expected NEWS to bypass the downloaded tier entirely")
	}
	v, ok := c.Store().Installed(id)
	if !ok || v != "1700000000000" {
		t.Fatalf("expected NEWS to install straight away, got %q, %v", v, ok)
	}
}

func TestNotifyVersionAvailableUnderPolicyInstallDispatchesUpdate(t *testing.T) {
	d := Deps{Policy: PolicyInstall}
	c := New(d)
	c.Checkers().Register(dummy.Checker{}, update.KindRouterUnsigned, update.MethodDummy, 0, nil)
	c.Updaters().Register(dummy.Updater{}, update.KindRouterUnsigned, update.MethodDummy, 0, nil)
	id := update.Identity{Kind: update.KindRouterUnsigned, ID: ""}

	c.NotifyVersionAvailable(id, update.MethodDummy, []string{dummy.URI}, dummy.Version, "")

	deadline := time.After(2 * time.Second)
	for {
		if v, ok := c.Store().Downloaded(id); ok && v == dummy.Version {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("expected policy install to auto-dispatch update through to downloaded")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestNotifyVersionAvailableUnderPolicyNotifyLeavesItAvailable(t *testing.T) {
	c := newTestCoordinator() // defaults to PolicyNotify
	id := update.Identity{Kind: update.KindRouterUnsigned, ID: ""}

	c.NotifyVersionAvailable(id, update.MethodDummy, []string{dummy.URI}, dummy.Version, "")

	av, ok := c.Store().Available(id)
	if !ok || av.Version != dummy.Version {
		t.Fatalf("expected the version to be published and left available, got %v, %v", av, ok)
	}
	if _, ok := c.Store().Installed(id); ok {
		t.Fatalf("expected notify-only policy to never auto-install")
	}
}

func TestNotifyCheckCompleteReleasesTableReservation(t *testing.T) {
	c := newTestCoordinator()
	id := update.Identity{Kind: update.KindPlugin, ID: "p"}
	task := update.NewBaseTask(id.Kind, id.ID, update.MethodHTTP, "")
	c.table.TryAddCheck(id, task)

	c.NotifyCheckComplete(task, false, true)

	if c.IsCheckInProgress(id) {
		t.Fatalf("expected NotifyCheckComplete to release the check reservation")
	}
}

func TestInstallDownloadedDummyKindInstallsWithoutVerifier(t *testing.T) {
	c := newTestCoordinator()
	ok := c.installDownloaded(update.Identity{Kind: update.KindDummy, ID: ""}, "1", "")
	if !ok {
		t.Fatalf("expected dummy installs to always succeed")
	}
}

func TestInstallDownloadedRouterSignedWithoutVerifierStaysDownloadedOnly(t *testing.T) {
	c := newTestCoordinator()
	id := update.Identity{Kind: update.KindRouterSigned, ID: ""}
	ok := c.installDownloaded(id, "1", "/tmp/file")
	if !ok {
		t.Fatalf("an unconfigured verifier should still report success (downloaded-only fallback)")
	}
	if _, installed := c.Store().Installed(id); installed {
		t.Fatalf("expected the downloaded-only fallback to leave the version uninstalled")
	}
}

func TestNotifyTaskFailedFailsOverToTheNextRetryCandidate(t *testing.T) {
	c := newTestCoordinator()
	id := update.Identity{Kind: update.KindPlugin, ID: "failover"}

	c.Store().NotifyVersionAvailable(id, update.MethodHTTP, []string{"http://a"}, "2", "")
	c.Store().NotifyVersionAvailable(id, update.MethodFile, []string{"/tmp/b"}, "2", "")

	c.Updaters().Register(acceptingUpdater{}, id.Kind, update.MethodFile, 0, nil)
	remaining := c.Updaters().ForKind(id.Kind)

	failedTask := update.NewBaseTask(id.Kind, id.ID, update.MethodHTTP, "http://a")
	if !c.table.TryAddDownload(id, failedTask, remaining) {
		t.Fatalf("setup: expected the in-flight download reservation to succeed")
	}

	c.NotifyTaskFailed(failedTask, "first attempt failed", nil)

	deadline := time.After(2 * time.Second)
	for {
		if v, ok := c.Store().Installed(id); ok && v == "2" {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("expected the retry engine to fail over to the FILE candidate and install")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestNotifyTaskFailedLeavesAvailableVersionWhenThePlanIsExhausted(t *testing.T) {
	c := newTestCoordinator()
	id := update.Identity{Kind: update.KindPlugin, ID: "exhausted"}

	c.Store().NotifyVersionAvailable(id, update.MethodHTTP, []string{"http://a"}, "2", "")
	failedTask := update.NewBaseTask(id.Kind, id.ID, update.MethodHTTP, "http://a")
	if !c.table.TryAddDownload(id, failedTask, nil) {
		t.Fatalf("setup: expected the in-flight download reservation to succeed")
	}

	c.NotifyTaskFailed(failedTask, "only attempt failed", nil)

	if c.IsUpdateInProgress(id) {
		t.Fatalf("expected the download reservation to be released once the plan is exhausted")
	}
	if _, ok := c.Store().Available(id); !ok {
		t.Fatalf("expected the available version to remain for a later retry")
	}
}

// acceptingUpdater always succeeds immediately, used to observe the retry
// engine's failover path landing on a specific candidate.
type acceptingUpdater struct{}

func (acceptingUpdater) Update(ctx context.Context, id update.Identity, method update.Method, uris []string, version update.Version, maxTime time.Duration, sink update.Sink) (update.Task, error) {
	t := update.NewBaseTask(id.Kind, id.ID, method, uris[0])
	go func() {
		sink.NotifyComplete(t, version, "")
		t.Finish()
	}()
	return t, nil
}
