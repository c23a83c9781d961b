package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/tinoosan/torrusd/internal/hostapi/simple"
	"github.com/tinoosan/torrusd/internal/transports/dummy"
	"github.com/tinoosan/torrusd/internal/update"
)

type fakePlugins struct{ installed map[string]string }

func (f fakePlugins) InstalledPlugins() map[string]string { return f.installed }

type fakeInstalledVersions struct {
	router    update.Version
	hasRouter bool
	news      update.Version
	hasNews   bool
}

func (f fakeInstalledVersions) RouterVersion() (update.Version, bool) { return f.router, f.hasRouter }
func (f fakeInstalledVersions) NewsBaseline() (update.Version, bool)  { return f.news, f.hasNews }

func TestBootstrapRunsTheSelfTestCycleToCompletion(t *testing.T) {
	c := New(Deps{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		if v, ok := c.Store().Installed(dummy.Identity); ok && v == dummy.Version {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("expected the dummy self-test cycle to reach installed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestBootstrapSeedsInstalledPluginsFromTheHost(t *testing.T) {
	c := New(Deps{Plugins: fakePlugins{installed: map[string]string{"foo": "3"}}})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	id := update.Identity{Kind: update.KindPlugin, ID: "foo"}
	v, ok := c.Store().Installed(id)
	if !ok || v != "3" {
		t.Fatalf("expected the preinstalled plugin to be seeded, got %q, %v", v, ok)
	}
}

func TestBootstrapRecordsLastUpdateTimeProperty(t *testing.T) {
	props := simple.NewFileProperties("")
	c := New(Deps{Properties: props})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	if _, ok := props.GetProperty("router.updateLastUpdateTime"); !ok {
		t.Fatalf("expected Bootstrap to record the last-update-time property")
	}
}

func TestBootstrapSeedsInstalledVersionsFromTheHost(t *testing.T) {
	c := New(Deps{InstalledVersions: fakeInstalledVersions{router: "7", hasRouter: true, news: "1700000000000", hasNews: true}})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	if v, ok := c.Store().Installed(RouterSignedIdentity); !ok || v != "7" {
		t.Fatalf("expected ROUTER_SIGNED to be seeded with the host's router version, got %q, %v", v, ok)
	}
	if v, ok := c.Store().Installed(RouterUnsignedIdentity); !ok || v != "7" {
		t.Fatalf("expected ROUTER_UNSIGNED to be seeded with the host's router version, got %q, %v", v, ok)
	}
	if v, ok := c.Store().Installed(NewsIdentity); !ok || v != "1700000000000" {
		t.Fatalf("expected NEWS to be seeded with the host's news baseline, got %q, %v", v, ok)
	}
}

func TestBootstrapRegistersHTTPTransportsWhenManifestURLsAreConfigured(t *testing.T) {
	c := New(Deps{ManifestURLs: ManifestURLs{
		News:           "http://news.invalid/manifest.json",
		RouterSigned:   "http://router-signed.invalid/manifest.json",
		RouterUnsigned: "http://router-unsigned.invalid/manifest.json",
		Plugin:         "http://plugins.invalid/%s/manifest.json",
	}})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	for _, kind := range []update.Kind{update.KindNews, update.KindRouterSigned, update.KindRouterUnsigned, update.KindPlugin} {
		if !c.Checkers().IsEligible(kind, update.MethodHTTP) {
			t.Fatalf("expected an HTTP checker to be registered for %s", kind)
		}
		if !c.Updaters().IsEligible(kind, update.MethodHTTP) {
			t.Fatalf("expected an HTTP updater to be registered for %s", kind)
		}
	}
}

func TestBootstrapLeavesKindsWithoutAManifestURLUnregistered(t *testing.T) {
	c := New(Deps{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	if c.Checkers().IsEligible(update.KindNews, update.MethodHTTP) {
		t.Fatalf("expected no HTTP checker for NEWS without a configured manifest URL")
	}
}

func TestBootstrapRehydratesThePersistedUnsignedAvailableVersion(t *testing.T) {
	props := simple.NewFileProperties("")
	if err := props.SaveProperty("router.updateUnsignedAvailable", "9"); err != nil {
		t.Fatalf("setup: SaveProperty: %v", err)
	}
	c := New(Deps{Properties: props})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	av, ok := c.Store().Available(RouterUnsignedIdentity)
	if !ok || av.Version != "9" {
		t.Fatalf("expected the persisted unsigned version to be rehydrated as available, got %v, %v", av, ok)
	}
}
