package simple

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/tinoosan/torrusd/internal/update"
)

// FileVersions is an InstalledVersions backed by the same small JSON-file
// convention as FileProperties: two well-known keys, rewritten wholesale
// on every save, no database required for a single-process deployment.
type FileVersions struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// NewFileVersions loads path if it exists, or starts empty. Callers that
// already know the host's current router/news versions at startup should
// call SetRouterVersion/SetNewsBaseline once after construction; this
// type never probes the filesystem or network for them itself.
func NewFileVersions(path string) *FileVersions {
	fv := &FileVersions{path: path, data: make(map[string]string)}
	if b, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(b, &fv.data)
	}
	return fv
}

func (fv *FileVersions) RouterVersion() (update.Version, bool) {
	fv.mu.Lock()
	defer fv.mu.Unlock()
	v, ok := fv.data["router.version"]
	return update.Version(v), ok
}

func (fv *FileVersions) NewsBaseline() (update.Version, bool) {
	fv.mu.Lock()
	defer fv.mu.Unlock()
	v, ok := fv.data["news.baseline"]
	return update.Version(v), ok
}

func (fv *FileVersions) SetRouterVersion(v update.Version) error {
	return fv.save("router.version", string(v))
}

func (fv *FileVersions) SetNewsBaseline(v update.Version) error {
	return fv.save("news.baseline", string(v))
}

func (fv *FileVersions) save(key, value string) error {
	fv.mu.Lock()
	defer fv.mu.Unlock()
	fv.data[key] = value
	b, err := json.MarshalIndent(fv.data, "", "  ")
	if err != nil {
		return err
	}
	if fv.path == "" {
		return nil
	}
	return os.WriteFile(fv.path, b, 0o600)
}
