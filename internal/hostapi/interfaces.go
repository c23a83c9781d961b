// Package hostapi defines the small capability interfaces the coordinator
// requires of its host process (spec.md §6 "Downward"). Each is a single-
// or few-method interface, in the teacher's style of small capability
// contracts (downloader.Downloader, downloader.Reporter, repo.DownloadRepo)
// rather than one large "host" god-object.
package hostapi

import (
	"context"
	"time"

	"github.com/tinoosan/torrusd/internal/update"
)

// Clock supplies millisecond wall time, abstracted so tests can control it.
type Clock interface {
	Now() time.Time
}

// Random supplies randomness, abstracted so installPlugin's synthetic name
// generation is deterministic under test.
type Random interface {
	// RandomID returns a fresh random identifier suitable as a plugin name
	// when the caller passed none.
	RandomID() string
}

// Scheduler is the host's periodic/one-shot timer facility. The
// coordinator never runs its own ad hoc goroutine timers for host-visible
// work; it asks the host to do it (spec.md §9: "do not re-implement, take
// it as a host collaborator").
type Scheduler interface {
	AddPeriodicEvent(ctx context.Context, every time.Duration, fn func())
	AddEvent(ctx context.Context, after time.Duration, fn func())
}

// PropertyStore persists the two well-known string properties spec.md §6
// names: router.updateUnsignedAvailable and router.updateLastUpdateTime.
type PropertyStore interface {
	GetProperty(key string) (string, bool)
	SaveProperty(key, value string) error
}

// Translator maps a message key (+ args) to a human-readable string for
// the status channel. A no-op implementation simply formats the key.
type Translator interface {
	Translate(key string, args ...any) string
}

// PluginEnumerator lists the plugins currently installed on the host, with
// their versions, for bootstrap seeding.
type PluginEnumerator interface {
	InstalledPlugins() map[string]string // name -> version
}

// InstalledVersions reports the host's current router firmware version and
// news baseline timestamp, so bootstrap can seed installed[ROUTER_SIGNED],
// installed[ROUTER_UNSIGNED], and installed[NEWS] with the host's actual
// state instead of leaving every singleton kind looking brand new on
// first boot.
type InstalledVersions interface {
	RouterVersion() (update.Version, bool)
	NewsBaseline() (update.Version, bool)
}

// SignedFileVerifier verifies a downloaded router file's signature and, on
// success, migrates it into the install slot.
type SignedFileVerifier interface {
	VerifyAndInstall(file string) error
}

// ArchiveValidator validates an unsigned update archive and, on success,
// copies its contents into the install slot.
type ArchiveValidator interface {
	ValidateAndInstall(file string) error
}

// FileCopier copies a verified update file into its final resting place.
type FileCopier interface {
	Copy(src, dst string) error
}

// RestartTrigger requests a graceful restart of the host service, either
// immediately or "on next restart" depending on policy.
type RestartTrigger interface {
	RestartNow() error
	RestartOnNextLaunch() error
}
