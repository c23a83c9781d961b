package torrentrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tinoosan/torrusd/internal/update"
)

// manifest is the tiny JSON document a dev-build distribution endpoint is
// expected to serve: the newest version and the magnet/torrent URI to fetch
// it from.
type manifest struct {
	Version update.Version `json:"version"`
	URI     string         `json:"uri"`
}

// Checker polls a manifest URL for a newer dev-build version than
// baseline, then hands the magnet/torrent URI back via NotifyVersionAvailable.
// It is intended to be registered with a sampled registry.Policy (spec.md
// §9 Open Questions) so only a small fraction of installations pull builds
// this way.
type Checker struct {
	ManifestURL string
	HTTP        *http.Client
}

func (c *Checker) Check(ctx context.Context, id update.Identity, baseline update.Version, sink update.Sink) (update.Task, error) {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	t := update.NewBaseTask(id.Kind, id.ID, update.MethodTorrent, c.ManifestURL)
	go func() {
		defer t.Finish()
		m, err := fetchManifest(ctx, client, c.ManifestURL)
		if err != nil {
			sink.NotifyCheckComplete(t, false, false)
			return
		}
		if m.Version == "" || update.AtLeast(baseline, m.Version) {
			sink.NotifyCheckComplete(t, false, true)
			return
		}
		sink.NotifyVersionAvailable(id, update.MethodTorrent, []string{m.URI}, m.Version, "")
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
		return manifest{}, fmt.Errorf("torrentrpc: manifest http %d", resp.StatusCode)
	}
	var m manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return manifest{}, err
	}
	return m, nil
}
