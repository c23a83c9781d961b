package coordinator

import (
	"context"
	"time"

	"github.com/tinoosan/torrusd/internal/journal"
	"github.com/tinoosan/torrusd/internal/metrics"
	"github.com/tinoosan/torrusd/internal/state"
	"github.com/tinoosan/torrusd/internal/statuschan"
	"github.com/tinoosan/torrusd/internal/update"
)

var _ update.Sink = (*Coordinator)(nil)

// NotifyVersionAvailable applies the store's accept/extend/reject rule and
// then runs two kind-specific follow-ups: NEWS installs straight away,
// bypassing the available/downloaded tiers entirely, because a news item
// has nothing to download or verify; router kinds under PolicyInstall
// dispatch Update automatically instead of waiting for an operator to call
// it.
//
// Grounded on the teacher's reconciler.handle: a switch keyed on event
// type that maps each case onto a repository mutation, here keyed on
// artifact kind instead of event type.
func (c *Coordinator) NotifyVersionAvailable(id update.Identity, method update.Method, uris []string, version, minVersion update.Version) {
	outcome := c.store.NotifyVersionAvailable(id, method, uris, version, minVersion)
	if outcome == state.Rejected {
		return
	}

	c.appendJournal(id, "available", version, "")

	if id.Kind == update.KindNews && outcome == state.Published {
		v := version
		c.store.NotifyInstalled(id, &v)
		c.appendJournal(id, "installed", version, "bypassed available/downloaded tiers")
		c.status.FinishStatus("news updated to " + string(version))
		return
	}

	if isRouterKind(id.Kind) && c.policy == PolicyInstall && outcome == state.Published {
		c.log.Info("policy install: dispatching update for newly available router version", "id", id, "version", version)
		go func() {
			if err := c.Update(context.Background(), id, 0); err != nil {
				c.log.Warn("policy-driven update failed to launch", "id", id, "err", err)
			}
		}()
		return
	}

	c.status.FinishStatus("update available for " + id.String() + ": " + string(version))
}

// NotifyCheckComplete releases the active-checker reservation for task's
// identity — the check has reached a terminal state, so it no longer
// counts toward invariant 1 ("at most one active checker per identity").
func (c *Coordinator) NotifyCheckComplete(task update.Task, newer bool, success bool) {
	id := update.Identity{Kind: task.Kind(), ID: task.ID()}
	c.table.RemoveCheck(id)
	switch {
	case !success:
		c.status.FinishStatus("check failed for " + id.String())
	case newer:
		c.status.Set("check complete for " + id.String() + ": newer version found")
	default:
		c.status.FinishStatus("check complete for " + id.String() + ": up to date")
	}
}

// NotifyProgress publishes a transient status line; it never touches the
// state store.
func (c *Coordinator) NotifyProgress(task update.Task, status string, done, total int64) {
	pct := statuschan.FormatPercent(done, total)
	c.status.Set(status + " (" + pct + ")")
}

// NotifyAttemptFailed logs a single failed source attempt; the task itself
// decides whether to try another URI, so the task table is left untouched.
func (c *Coordinator) NotifyAttemptFailed(task update.Task, reason string, cause error) {
	id := update.Identity{Kind: task.Kind(), ID: task.ID()}
	c.log.Warn("update attempt failed", "id", id, "method", task.Method(), "reason", reason, "err", cause)
	c.status.Set("attempt failed for " + id.String() + ": " + reason)
}

// NotifyTaskFailed is terminal for the task that called it, but not
// necessarily for the update as a whole: it releases the task table
// reservation and — if this task's own retry plan
// still has candidates left — hands them straight back to the Retry Engine
// against the currently available version's sources, exactly as Update
// does for the initial attempt (spec.md §4.5, Testable Properties scenario
// 4). Only once the plan is actually exhausted does it append a
// retry_exhausted audit row and leave the available version in place for
// an operator (or a future policy-driven attempt) to retry later.
func (c *Coordinator) NotifyTaskFailed(task update.Task, reason string, cause error) {
	id := update.Identity{Kind: task.Kind(), ID: task.ID()}
	plan, _ := c.table.GetRetryPlan(id)
	c.table.RemoveDownload(id)
	detail := reason
	if cause != nil {
		detail = reason + ": " + cause.Error()
	}
	c.log.Error("update task failed", "id", id, "method", task.Method(), "reason", reason, "err", cause)

	if len(plan) > 0 {
		if av, ok := c.store.Available(id); ok {
			if next, launched := c.retry.Run(context.Background(), id, av.Version, av.Sources, plan, 0, c); launched {
				metrics.RetriesTotal.WithLabelValues("failover").Inc()
				metrics.DownloadsStarted.WithLabelValues(string(id.Kind), string(next.Method())).Inc()
				c.log.Info("retry engine failed over to the next candidate", "id", id, "method", next.Method())
				c.status.Set("retrying " + id.String() + " via " + string(next.Method()))
				return
			}
		}
	}

	c.appendJournal(id, "retry_exhausted", "", detail)
	metrics.RetriesTotal.WithLabelValues("exhausted").Inc()
	c.status.FinishStatus("update failed for " + id.String() + ": " + reason)
}

// NotifyComplete records the downloaded version and, for kinds that
// install themselves rather than waiting for an operator-driven install
// step, runs verification/installation inline. It returns false — without
// calling NotifyTaskFailed itself — when that inline step fails, so the
// caller's own failure path (which knows the retry plan) can decide
// whether to retry.
func (c *Coordinator) NotifyComplete(task update.Task, actualVersion update.Version, file string) bool {
	id := update.Identity{Kind: task.Kind(), ID: task.ID()}
	c.store.NotifyDownloaded(id, actualVersion)
	c.appendJournal(id, "downloaded", actualVersion, file)

	ok := c.installDownloaded(id, actualVersion, file)
	if ok {
		c.table.RemoveDownload(id)
		c.status.FinishStatus(id.String() + " updated to " + string(actualVersion))
	}
	return ok
}

// installDownloaded runs the kind-specific verify-and-install step. Router
// kinds and plugins each have a different verifier; DUMMY and, in practice,
// NEWS (which never reaches here — see NotifyVersionAvailable) just install
// directly.
func (c *Coordinator) installDownloaded(id update.Identity, version update.Version, file string) bool {
	switch id.Kind {
	case update.KindRouterSigned:
		if c.signedVerifier == nil {
			c.log.Warn("no signed file verifier configured, leaving router update downloaded-only", "id", id)
			return true
		}
		if err := c.signedVerifier.VerifyAndInstall(file); err != nil {
			c.log.Error("signed verification failed", "id", id, "file", file, "err", err)
			return false
		}
	case update.KindRouterUnsigned:
		if c.archiveValidator == nil {
			c.log.Warn("no archive validator configured, leaving router update downloaded-only", "id", id)
			return true
		}
		if err := c.archiveValidator.ValidateAndInstall(file); err != nil {
			c.log.Error("archive validation failed", "id", id, "file", file, "err", err)
			return false
		}
	case update.KindPlugin:
		if c.fileCopier != nil && file != "" {
			if err := c.fileCopier.Copy(file, id.ID); err != nil {
				c.log.Error("plugin install copy failed", "id", id, "file", file, "err", err)
				return false
			}
		}
	case update.KindDummy:
		// Nothing to verify; the dummy updater's file is never real.
	default:
	}

	v := version
	c.store.NotifyInstalled(id, &v)
	c.appendJournal(id, "installed", version, file)
	if id.Kind == update.KindRouterSigned || id.Kind == update.KindRouterUnsigned {
		c.maybeRestart()
	}
	return true
}

// maybeRestart asks the host to restart on its next launch after a router
// install. It never restarts immediately on this path — an in-process
// coordinator restarting itself mid-callback would drop the very
// notification it is handling.
func (c *Coordinator) maybeRestart() {
	if c.restarter == nil {
		return
	}
	if err := c.restarter.RestartOnNextLaunch(); err != nil {
		c.log.Warn("failed to schedule restart after router install", "err", err)
	}
}

func isRouterKind(k update.Kind) bool {
	return k == update.KindRouterSigned || k == update.KindRouterUnsigned
}

func (c *Coordinator) appendJournal(id update.Identity, event string, version update.Version, detail string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	entry := journal.Entry{
		Kind:    string(id.Kind),
		ID:      id.ID,
		Event:   event,
		Version: string(version),
		Detail:  detail,
		At:      c.clock.Now(),
	}
	if err := c.journal.Append(ctx, entry); err != nil {
		c.log.Warn("journal append failed", "id", id, "event", event, "err", err)
	}
}
