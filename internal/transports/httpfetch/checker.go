// Package httpfetch implements a generic HTTP-based Checker/Updater pair:
// poll a small JSON manifest for a newer version, then GET the manifest's
// URI straight to a file on disk. It serves every kind that distributes
// over plain HTTP rather than a torrent swarm — NEWS, ROUTER_SIGNED,
// ROUTER_UNSIGNED, and PLUGIN, each with its own manifest URL and Method
// (HTTP, HTTPS_CLEARNET, or HTTP_CLEARNET) wired at registration time.
//
// Grounded on the teacher's internal/aria2.Client/adapter_core.go request
// shape (context-bound net/http.Client, JSON decode, status-driven task
// loop), generalized here from the torrent RPC domain to a plain file
// download.
package httpfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tinoosan/torrusd/internal/update"
)

// manifest is the JSON document a Checker's ManifestURL is expected to
// serve.
type manifest struct {
	Version    update.Version `json:"version"`
	MinVersion update.Version `json:"minVersion"`
	URI        string         `json:"uri"`
}

// Checker polls ManifestURL and publishes whatever newer version it finds
// under Method. ManifestURL may contain a single "%s" placeholder, filled
// in with id.ID at check time — needed for kinds like PLUGIN where each
// identity has its own manifest endpoint rather than one shared feed.
type Checker struct {
	ManifestURL string
	Method      update.Method
	HTTP        *http.Client
}

func (c *Checker) Check(ctx context.Context, id update.Identity, baseline update.Version, sink update.Sink) (update.Task, error) {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	url := c.ManifestURL
	if strings.Contains(url, "%s") {
		url = fmt.Sprintf(url, id.ID)
	}

	t := update.NewBaseTask(id.Kind, id.ID, c.Method, url)
	go func() {
		defer t.Finish()
		m, err := fetchManifest(ctx, client, url)
		if err != nil {
			sink.NotifyCheckComplete(t, false, false)
			return
		}
		if m.Version == "" || update.AtLeast(baseline, m.Version) {
			sink.NotifyCheckComplete(t, false, true)
			return
		}
		sink.NotifyVersionAvailable(id, c.Method, []string{m.URI}, m.Version, m.MinVersion)
		sink.NotifyCheckComplete(t, true, true)
	}()
	return t, nil
}

func fetchManifest(ctx context.Context, client *http.Client, url string) (manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return manifest{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return manifest{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return manifest{}, fmt.Errorf("httpfetch: manifest http %d", resp.StatusCode)
	}
	var m manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return manifest{}, err
	}
	return m, nil
}
