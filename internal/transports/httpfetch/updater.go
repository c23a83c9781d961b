package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/tinoosan/torrusd/internal/update"
)

// Updater downloads the first URI addressed to its Method straight to a
// file under Dir, reporting progress from the response's Content-Length
// when the server supplies one.
type Updater struct {
	Dir  string
	HTTP *http.Client
}

func (u *Updater) Update(ctx context.Context, id update.Identity, method update.Method, uris []string, version update.Version, maxTime time.Duration, sink update.Sink) (update.Task, error) {
	if len(uris) == 0 {
		return nil, nil
	}
	client := u.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	t := &task{
		base:    update.NewBaseTask(id.Kind, id.ID, method, uris[0]),
		client:  client,
		uri:     uris[0],
		dir:     u.Dir,
		version: version,
		maxTime: maxTime,
		sink:    sink,
	}
	return t, nil
}

type task struct {
	base    *update.BaseTask
	client  *http.Client
	uri     string
	dir     string
	version update.Version
	maxTime time.Duration
	sink    update.Sink

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
	t.base.Finish()
}

func (t *task) run(ctx context.Context) {
	defer t.base.Finish()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.uri, nil)
	if err != nil {
		t.sink.NotifyTaskFailed(t, "building request failed", err)
		return
	}
	resp, err := t.client.Do(req)
	if err != nil {
		t.sink.NotifyTaskFailed(t, "request failed", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.sink.NotifyTaskFailed(t, "unexpected status", fmt.Errorf("http %d", resp.StatusCode))
		return
	}

	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		t.sink.NotifyTaskFailed(t, "creating download directory failed", err)
		return
	}
	dest := filepath.Join(t.dir, t.base.ID()+"-"+string(t.version))
	f, err := os.Create(dest)
	if err != nil {
		t.sink.NotifyTaskFailed(t, "creating download file failed", err)
		return
	}
	defer func() { _ = f.Close() }()

	total := resp.ContentLength
	cw := &countingWriter{w: f}
	progressDone := make(chan struct{})
	go t.reportProgress(ctx, cw, total, progressDone)

	_, err = io.Copy(cw, resp.Body)
	close(progressDone)
	if err != nil {
		t.sink.NotifyTaskFailed(t, "download failed", err)
		return
	}

	if !t.sink.NotifyComplete(t, t.version, dest) {
		t.sink.NotifyTaskFailed(t, "install/verify failed", nil)
	}
}

func (t *task) reportProgress(ctx context.Context, cw *countingWriter, total int64, done <-chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			t.sink.NotifyProgress(t, "downloading "+t.base.ID(), cw.n.Load(), total)
		}
	}
}

type countingWriter struct {
	w io.Writer
	n atomic.Int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n.Add(int64(n))
	return n, err
}
