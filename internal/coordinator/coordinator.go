// Package coordinator wires the registries, state store, task table, retry
// engine, and status channel into the Update Coordinator's public API:
// check, checkAvailable, update, installPlugin, and their stop/query
// counterparts (spec.md §4.3-4.5).
//
// Grounded on the teacher's internal/service/download.go Service: a thin
// struct holding its collaborators by interface, exposing one method per
// use case, with sentinel errors for every precondition failure.
package coordinator

import (
	"context"
	"log/slog"
	"time"

	"github.com/tinoosan/torrusd/internal/hostapi"
	"github.com/tinoosan/torrusd/internal/hostapi/simple"
	"github.com/tinoosan/torrusd/internal/journal"
	"github.com/tinoosan/torrusd/internal/metrics"
	"github.com/tinoosan/torrusd/internal/registry"
	"github.com/tinoosan/torrusd/internal/retry"
	"github.com/tinoosan/torrusd/internal/state"
	"github.com/tinoosan/torrusd/internal/statuschan"
	"github.com/tinoosan/torrusd/internal/tasktable"
	"github.com/tinoosan/torrusd/internal/update"
)

// Deps bundles every collaborator the Coordinator needs from its host
// process. Fields left nil fall back to a no-op/simple implementation so a
// caller wiring up a minimal deployment (or a test) doesn't have to supply
// every host capability.
type Deps struct {
	Log *slog.Logger

	Clock      hostapi.Clock
	Random     hostapi.Random
	Scheduler  hostapi.Scheduler
	Properties hostapi.PropertyStore
	Translator hostapi.Translator

	Plugins           hostapi.PluginEnumerator
	InstalledVersions hostapi.InstalledVersions
	SignedVerifier    hostapi.SignedFileVerifier
	ArchiveValidator  hostapi.ArchiveValidator
	FileCopier        hostapi.FileCopier
	Restarter         hostapi.RestartTrigger

	Journal journal.Sink
	Policy  Policy

	// ManifestURLs and DownloadDir configure the built-in HTTP transport
	// Bootstrap registers for NEWS, ROUTER_SIGNED, ROUTER_UNSIGNED, and
	// PLUGIN. Leaving a ManifestURLs field empty leaves that kind without
	// a registered HTTP checker/updater pair.
	ManifestURLs ManifestURLs
	DownloadDir  string
}

// Coordinator is the long-lived, in-process registry/scheduler for
// discovery, download, verification, and installation of the artifacts
// spec.md §1 names.
type Coordinator struct {
	log *slog.Logger

	clock      hostapi.Clock
	random     hostapi.Random
	scheduler  hostapi.Scheduler
	properties hostapi.PropertyStore
	translator hostapi.Translator

	plugins           hostapi.PluginEnumerator
	installedVersions hostapi.InstalledVersions
	signedVerifier    hostapi.SignedFileVerifier
	archiveValidator  hostapi.ArchiveValidator
	fileCopier        hostapi.FileCopier
	restarter         hostapi.RestartTrigger

	journal journal.Sink
	policy  Policy

	manifestURLs ManifestURLs
	downloadDir  string

	checkers *registry.Checkers
	updaters *registry.Updaters
	store    *state.Store
	table    *tasktable.Table
	retry    retryRunner
	status   *statuschan.Channel
}

// retryRunner is the subset of *retry.Engine the coordinator calls; kept as
// an interface so tests can substitute a fake without reaching into the
// retry engine's internals.
type retryRunner interface {
	Run(ctx context.Context, id update.Identity, version update.Version, sources map[update.Method][]string, candidates []update.RegisteredUpdater, maxTime time.Duration, sink update.Sink) (update.Task, bool)
}

// New constructs a Coordinator with fresh registries, state store, task
// table, retry engine, and status channel, wired to the given host
// collaborators.
func New(d Deps) *Coordinator {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	clock := d.Clock
	if clock == nil {
		clock = systemClock{}
	}
	policy := d.Policy
	if policy == "" {
		policy = PolicyNotify
	}
	j := d.Journal
	if j == nil {
		j = journal.Noop{}
	}
	downloadDir := d.DownloadDir
	if downloadDir == "" {
		downloadDir = "/tmp/torrusd-downloads"
	}
	random := d.Random
	if random == nil {
		random = simple.Random{}
	}

	updaters := registry.NewUpdaters(log)
	table := tasktable.New()

	return &Coordinator{
		log: log,

		clock:      clock,
		random:     random,
		scheduler:  d.Scheduler,
		properties: d.Properties,
		translator: d.Translator,

		plugins:           d.Plugins,
		installedVersions: d.InstalledVersions,
		signedVerifier:    d.SignedVerifier,
		archiveValidator:  d.ArchiveValidator,
		fileCopier:        d.FileCopier,
		restarter:         d.Restarter,

		journal: j,
		policy:  policy,

		manifestURLs: d.ManifestURLs,
		downloadDir:  downloadDir,

		checkers: registry.NewCheckers(log),
		updaters: updaters,
		store:    state.New(),
		table:    table,
		retry:    retry.New(updaters, table, log),
		status:   statuschan.New(clock),
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Checkers and Updaters expose the registries for bootstrap registration.
func (c *Coordinator) Checkers() *registry.Checkers { return c.checkers }
func (c *Coordinator) Updaters() *registry.Updaters { return c.updaters }

// Store exposes the state store for read-only inspection (status surface,
// tests).
func (c *Coordinator) Store() *state.Store { return c.store }

// Status exposes the status channel for read-only inspection.
func (c *Coordinator) Status() *statuschan.Channel { return c.status }

// Check launches the highest-priority Checker registered for id.Kind that
// accepts the work, returning ErrCheckInProgress if one is already running
// for id and ErrNoCheckerAccepted if every registered Checker declined.
func (c *Coordinator) Check(ctx context.Context, id update.Identity) error {
	_, err := c.launchCheck(ctx, id)
	return err
}

// CheckAvailable launches a check exactly as Check does, then blocks until
// either the task finishes, ctx is cancelled, or maxWait elapses, and
// returns whatever version is known afterward — regardless of whether the
// check itself completed in time. It returns nil without launching anything
// if a check or update is already in progress for id, or if no Checker
// accepted the work.
func (c *Coordinator) CheckAvailable(ctx context.Context, id update.Identity, maxWait time.Duration) *update.AvailableVersion {
	if c.table.IsCheckInProgress(id) || c.table.IsUpdateInProgress(id) {
		return nil
	}
	task, err := c.launchCheck(ctx, id)
	if err != nil || task == nil {
		return nil
	}

	timer := time.NewTimer(maxWait)
	defer timer.Stop()
	select {
	case <-task.Done():
	case <-timer.C:
	case <-ctx.Done():
	}

	av, _ := c.store.Available(id)
	return av
}

// launchCheck reserves the check slot for id, then tries each registered
// Checker in priority order until one accepts. The reservation (via a
// pendingCheck placeholder) happens before any Checker is asked to run, so
// two concurrent callers can never both iterate the registry for the same
// identity (spec.md §4.3 invariant 1, §9 race-window discussion).
func (c *Coordinator) launchCheck(ctx context.Context, id update.Identity) (update.Task, error) {
	placeholder := newPendingCheck(id)
	if !c.table.TryAddCheck(id, placeholder) {
		return nil, ErrCheckInProgress
	}

	baseline, _ := c.store.GetDownloadedOrInstalledVersion(id)
	for _, reg := range c.checkers.ForKind(id.Kind) {
		task, err := reg.Capability.Check(ctx, id, baseline, c)
		if err != nil {
			c.log.Info("checker declined with error", "id", id, "method", reg.Method, "err", err)
			continue
		}
		if task == nil {
			continue
		}
		c.table.ReplaceCheck(id, task)
		metrics.ChecksStarted.WithLabelValues(string(id.Kind)).Inc()
		task.Start(ctx)
		return task, nil
	}

	c.table.RemoveCheck(id)
	return nil, ErrNoCheckerAccepted
}

// Update launches the highest-priority Updater registered for id.Kind
// against the currently available version's sources, handing off to the
// retry engine for failover across candidates. It requires a published
// available version and at least one registered updater for the kind.
func (c *Coordinator) Update(ctx context.Context, id update.Identity, maxTime time.Duration) error {
	if c.table.IsCheckInProgress(id) {
		return ErrCheckInProgress
	}
	if c.table.IsUpdateInProgress(id) {
		return ErrUpdateInProgress
	}
	av, ok := c.store.Available(id)
	if !ok {
		return ErrNoVersionAvailable
	}
	candidates := c.updaters.ForKind(id.Kind)
	if len(candidates) == 0 {
		return ErrNoUpdatersRegistered
	}

	task, ok := c.retry.Run(ctx, id, av.Version, av.Sources, candidates, maxTime, c)
	if !ok {
		metrics.RetriesTotal.WithLabelValues("exhausted").Inc()
		return ErrNoUpdaterAccepted
	}
	metrics.RetriesTotal.WithLabelValues("launched").Inc()
	metrics.DownloadsStarted.WithLabelValues(string(id.Kind), string(task.Method())).Inc()
	return nil
}

// InstallPlugin seeds a synthetic AvailableVersion for a plugin named name
// (or a random identifier if name is empty) pointing at uri over HTTP, if
// one is not already recorded, then dispatches Update for it immediately.
func (c *Coordinator) InstallPlugin(ctx context.Context, name, uri string) error {
	if name == "" && c.random != nil {
		name = c.random.RandomID()
	}
	id := update.Identity{Kind: update.KindPlugin, ID: name}
	if _, ok := c.store.Available(id); !ok {
		c.store.NotifyVersionAvailable(id, update.MethodHTTP, []string{uri}, "", "")
	}
	return c.Update(ctx, id, 0)
}

// StopCheck asks the active checker for id, if any, to stop.
func (c *Coordinator) StopCheck(id update.Identity) {
	if task, ok := c.table.RemoveCheck(id); ok {
		task.Shutdown()
	}
}

// StopUpdate asks the active updater for id, if any, to stop.
func (c *Coordinator) StopUpdate(id update.Identity) {
	if task, ok := c.table.RemoveDownload(id); ok {
		task.Shutdown()
	}
}

// StopChecks asks every active checker to stop.
func (c *Coordinator) StopChecks() {
	for _, task := range c.table.StopAllChecks() {
		task.Shutdown()
	}
}

// StopUpdates asks every active updater to stop.
func (c *Coordinator) StopUpdates() {
	for _, task := range c.table.StopAllDownloads() {
		task.Shutdown()
	}
}

func (c *Coordinator) IsCheckInProgress(id update.Identity) bool {
	return c.table.IsCheckInProgress(id)
}
func (c *Coordinator) IsUpdateInProgress(id update.Identity) bool {
	return c.table.IsUpdateInProgress(id)
}

// GetUpdateAvailable returns the announced-but-not-downloaded version for
// id, if any.
func (c *Coordinator) GetUpdateAvailable(id update.Identity) (*update.AvailableVersion, bool) {
	return c.store.Available(id)
}

// GetUpdateDownloaded returns the downloaded-but-not-installed version for
// id, if any.
func (c *Coordinator) GetUpdateDownloaded(id update.Identity) (update.Version, bool) {
	return c.store.Downloaded(id)
}
