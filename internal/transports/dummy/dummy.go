// Package dummy implements the coordinator's built-in DUMMY checker and
// updater: an internal-use, self-testing artifact that lets bootstrap
// verify check->available->update->complete flows through without any
// real network collaborator.
//
// Grounded on the teacher's internal/downloader/noop.go NewNoopDownloader:
// same "do nothing but still report success" shape, here generalized to
// implement update.Checker/update.Updater instead of downloader.Downloader.
package dummy

import (
	"context"
	"time"

	"github.com/tinoosan/torrusd/internal/update"
)

// Identity is the (DUMMY, "") artifact bootstrap seeds.
var Identity = update.Identity{Kind: update.KindDummy, ID: ""}

// Version is the version bootstrap publishes via NotifyVersionAvailable
// for internal-use sanity checks.
const Version update.Version = "1"

// URI is the sole (fake) source the dummy updater "downloads" from.
const URI = "dummy://ok"

type Checker struct{}

func (Checker) Check(ctx context.Context, id update.Identity, baseline update.Version, sink update.Sink) (update.Task, error) {
	t := update.NewBaseTask(id.Kind, id.ID, update.MethodDummy, URI)
	go func() {
		sink.NotifyVersionAvailable(id, update.MethodDummy, []string{URI}, Version, "")
		sink.NotifyCheckComplete(t, true, true)
		t.Finish()
	}()
	return t, nil
}

type Updater struct{}

func (Updater) Update(ctx context.Context, id update.Identity, method update.Method, uris []string, version update.Version, maxTime time.Duration, sink update.Sink) (update.Task, error) {
	t := update.NewBaseTask(id.Kind, id.ID, method, firstOrEmpty(uris))
	go func() {
		sink.NotifyProgress(t, "downloading dummy artifact", 1, 1)
		sink.NotifyComplete(t, version, "")
		t.Finish()
	}()
	return t, nil
}

func firstOrEmpty(uris []string) string {
	if len(uris) == 0 {
		return ""
	}
	return uris[0]
}
