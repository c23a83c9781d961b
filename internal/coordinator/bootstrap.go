package coordinator

import (
	"context"
	"time"

	"github.com/tinoosan/torrusd/internal/reaper"
	"github.com/tinoosan/torrusd/internal/transports/dummy"
	"github.com/tinoosan/torrusd/internal/transports/httpfetch"
	"github.com/tinoosan/torrusd/internal/update"
)

// NewsIdentity, RouterSignedIdentity, and RouterUnsignedIdentity are the
// three singleton (kind, "") identities bootstrap seeds and, when a
// manifest URL is configured for them, registers real HTTP checker/
// updater pairs against.
var (
	NewsIdentity           = update.Identity{Kind: update.KindNews, ID: ""}
	RouterSignedIdentity   = update.Identity{Kind: update.KindRouterSigned, ID: ""}
	RouterUnsignedIdentity = update.Identity{Kind: update.KindRouterUnsigned, ID: ""}
)

// ManifestURLs configures where Bootstrap finds the HTTP manifest for
// each real (non-DUMMY, non-TORRENT-devbuild) kind it registers a
// checker/updater pair for. A zero-value field leaves that kind without a
// registered HTTP transport — Check/Update then simply decline for it
// until a later caller registers one directly, which remains possible
// since registration is never closed off after Bootstrap returns.
type ManifestURLs struct {
	News           string
	RouterSigned   string
	RouterUnsigned string
	Plugin         string
}

// propertyUnsignedAvailable and propertyLastUpdateTime are the two
// well-known PropertyStore keys the coordinator persists across restarts.
const (
	propertyUnsignedAvailable = "router.updateUnsignedAvailable"
	propertyLastUpdateTime    = "router.updateLastUpdateTime"
)

// Bootstrap brings a freshly constructed Coordinator up to a steady state
// in the eight-step order spec.md §4.7 lists: (1) seed installed with the
// host's current router version and news baseline, (2) seed installed for
// every plugin already on disk, (3) register the coordinator with the
// host, (4) register the DUMMY checker/updater pair and publish a dummy
// AvailableVersion, (5) register the news checker before any router
// updater so a router update never launches against stale news, (6)
// register the router-signed updater, the router-unsigned checker/updater,
// and the plugin checker/updater, (7) rehydrate a persisted
// "unsigned update available" version, and (8) schedule the news timer
// task and the reaper.
//
// Grounded on the teacher's cmd/main.go startup sequence: construct
// collaborators, open the repo, start the reconciler and reaper goroutines,
// mount the router — generalized here into a single ordered method instead
// of an inline main() so it's independently testable.
func (c *Coordinator) Bootstrap(ctx context.Context) error {
	// 1. Seed installed[ROUTER_SIGNED], installed[ROUTER_UNSIGNED], and
	// installed[NEWS] from the host's current router version and news
	// baseline, so the first real check for each has a correct baseline
	// instead of treating every singleton kind as brand new.
	c.seedInstalledVersions()

	// 2. Seed installed[PLUGIN:name] for every plugin the host already has
	// on disk.
	c.seedInstalledPlugins()

	// 3. Register the coordinator with the host: satisfied by
	// construction here rather than by a separate call — the host already
	// holds the *Coordinator it built with New and drives it directly
	// through its public API, so there is no handle to hand back.

	// 4. Register the built-in DUMMY checker/updater pair and publish a
	// dummy AvailableVersion directly, for internal use exercising the
	// coordinator end to end without any real transport configured.
	c.checkers.Register(dummy.Checker{}, update.KindDummy, update.MethodDummy, 0, nil)
	c.updaters.Register(dummy.Updater{}, update.KindDummy, update.MethodDummy, 0, nil)
	c.store.NotifyVersionAvailable(dummy.Identity, update.MethodDummy, []string{dummy.URI}, dummy.Version, "")

	// 5. Register the news checker before any router updater is
	// registered, so a router updater launched by a policy-install
	// dispatch never races a router version published under stale news.
	c.registerNewsTransport()

	// 6. Register the router-signed updater, the router-unsigned
	// checker/updater, and the plugin checker/updater.
	c.registerRouterSignedTransport()
	c.registerRouterUnsignedTransport()
	c.registerPluginTransport()

	// 7. Rehydrate a persisted "unsigned update available" version into
	// the state store, if the host saved one before a prior restart.
	c.restoreProperties()

	// 8. Schedule the news timer task, plus the router checks alongside
	// it, and start the background reaper.
	c.schedulePeriodicChecks(ctx)
	r := reaper.New(c.table, reaper.DefaultInterval, c.log)
	go r.Run(ctx)

	// Beyond the eight steps above: run one self-test check/update cycle
	// through DUMMY so a broken registry/table/store wiring fails loudly
	// at startup instead of silently at the first real check.
	av := c.CheckAvailable(ctx, dummy.Identity, 2*time.Second)
	if av == nil {
		c.log.Warn("bootstrap self-test check did not produce an available version")
	} else {
		c.log.Info("bootstrap self-test check succeeded", "version", av.Version)
	}
	if err := c.Update(ctx, dummy.Identity, time.Second); err != nil {
		c.log.Warn("bootstrap self-test update failed to launch", "err", err)
	}

	c.recordLastUpdateTime()
	return nil
}

// seedInstalledVersions reads the host's current router firmware version
// and news baseline timestamp and seeds installed[] for the three
// singleton kinds, so the news/router checkers registered in steps 5-6
// compare against the host's actual state rather than empty baselines.
func (c *Coordinator) seedInstalledVersions() {
	if c.installedVersions == nil {
		return
	}
	if v, ok := c.installedVersions.RouterVersion(); ok {
		rv := v
		c.store.NotifyInstalled(RouterSignedIdentity, &rv)
		c.store.NotifyInstalled(RouterUnsignedIdentity, &rv)
	}
	if v, ok := c.installedVersions.NewsBaseline(); ok {
		nv := v
		c.store.NotifyInstalled(NewsIdentity, &nv)
	}
}

// registerNewsTransport registers an HTTP checker/updater pair for NEWS
// when a manifest URL is configured. NEWS installs bypass the
// available/downloaded tiers entirely (see NotifyVersionAvailable), so the
// updater registered here exists only so Update(NEWS, ...) has something
// to dispatch to if ever called directly instead of through the bypass.
func (c *Coordinator) registerNewsTransport() {
	if c.manifestURLs.News == "" {
		return
	}
	c.checkers.Register(&httpfetch.Checker{ManifestURL: c.manifestURLs.News, Method: update.MethodHTTP}, update.KindNews, update.MethodHTTP, 0, nil)
	c.updaters.Register(&httpfetch.Updater{Dir: c.downloadDir}, update.KindNews, update.MethodHTTP, 0, nil)
}

func (c *Coordinator) registerRouterSignedTransport() {
	if c.manifestURLs.RouterSigned == "" {
		return
	}
	c.checkers.Register(&httpfetch.Checker{ManifestURL: c.manifestURLs.RouterSigned, Method: update.MethodHTTP}, update.KindRouterSigned, update.MethodHTTP, 0, nil)
	c.updaters.Register(&httpfetch.Updater{Dir: c.downloadDir}, update.KindRouterSigned, update.MethodHTTP, 0, nil)
}

func (c *Coordinator) registerRouterUnsignedTransport() {
	if c.manifestURLs.RouterUnsigned == "" {
		return
	}
	c.checkers.Register(&httpfetch.Checker{ManifestURL: c.manifestURLs.RouterUnsigned, Method: update.MethodHTTP}, update.KindRouterUnsigned, update.MethodHTTP, 10, nil)
	c.updaters.Register(&httpfetch.Updater{Dir: c.downloadDir}, update.KindRouterUnsigned, update.MethodHTTP, 10, nil)
}

// registerPluginTransport registers an HTTP checker/updater pair shared by
// every plugin identity: ManifestURL's "%s" placeholder is filled in with
// each identity's plugin name at check time, so one registration serves
// every installed plugin rather than needing one per name.
func (c *Coordinator) registerPluginTransport() {
	if c.manifestURLs.Plugin == "" {
		return
	}
	c.checkers.Register(&httpfetch.Checker{ManifestURL: c.manifestURLs.Plugin, Method: update.MethodHTTP}, update.KindPlugin, update.MethodHTTP, 0, nil)
	c.updaters.Register(&httpfetch.Updater{Dir: c.downloadDir}, update.KindPlugin, update.MethodHTTP, 0, nil)
}

func (c *Coordinator) restoreProperties() {
	if c.properties == nil {
		return
	}
	if v, ok := c.properties.GetProperty(propertyUnsignedAvailable); ok && v != "" {
		rv := update.Version(v)
		c.store.NotifyVersionAvailable(RouterUnsignedIdentity, update.MethodHTTP, nil, rv, "")
		c.log.Info("restored property", "key", propertyUnsignedAvailable, "value", v)
	}
	if v, ok := c.properties.GetProperty(propertyLastUpdateTime); ok {
		c.log.Info("restored property", "key", propertyLastUpdateTime, "value", v)
	}
}

func (c *Coordinator) seedInstalledPlugins() {
	if c.plugins == nil {
		return
	}
	for name, version := range c.plugins.InstalledPlugins() {
		id := update.Identity{Kind: update.KindPlugin, ID: name}
		v := update.Version(version)
		c.store.NotifyInstalled(id, &v)
	}
}

func (c *Coordinator) schedulePeriodicChecks(ctx context.Context) {
	if c.scheduler == nil {
		return
	}
	const defaultCheckInterval = 6 * time.Hour
	for _, id := range []update.Identity{
		{Kind: update.KindNews, ID: ""},
		{Kind: update.KindRouterSigned, ID: ""},
		{Kind: update.KindRouterUnsigned, ID: ""},
	} {
		id := id
		c.scheduler.AddPeriodicEvent(ctx, defaultCheckInterval, func() {
			if err := c.Check(ctx, id); err != nil && err != ErrCheckInProgress {
				c.log.Info("periodic check declined", "id", id, "err", err)
			}
		})
	}
}

func (c *Coordinator) recordLastUpdateTime() {
	if c.properties == nil {
		return
	}
	now := c.clock.Now().UTC().Format(time.RFC3339)
	if err := c.properties.SaveProperty(propertyLastUpdateTime, now); err != nil {
		c.log.Warn("failed to persist last update time", "err", err)
	}
}
