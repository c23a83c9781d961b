// Package retry implements the failover algorithm spec.md §4.5 describes:
// given a failed (or just-started) download, scan an ordered list of
// updater candidates and launch the first one that accepts one of the
// artifact's known sources.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/tinoosan/torrusd/internal/registry"
	"github.com/tinoosan/torrusd/internal/tasktable"
	"github.com/tinoosan/torrusd/internal/update"
)

// Engine runs the retry algorithm and, on success, inserts the winning
// task into the task table before starting it — resolving the documented
// race window (spec.md §4.5, §9) by construction: a callback arriving the
// instant Start returns will always find its table entry already present.
type Engine struct {
	updaters *registry.Updaters
	table    *tasktable.Table
	log      *slog.Logger
}

func New(updaters *registry.Updaters, table *tasktable.Table, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{updaters: updaters, table: table, log: log}
}

// Run scans candidates in order. For each, it is removed from the list (so
// it is never retried twice within this plan) and skipped if it has since
// been unregistered or gated off. The first candidate that accepts one of
// sources' methods wins: the still-remaining candidates become its retry
// plan, it is inserted into the task table, and started. Run returns
// (nil, false) if every candidate refuses every matching method.
func (e *Engine) Run(ctx context.Context, id update.Identity, version update.Version, sources map[update.Method][]string, candidates []update.RegisteredUpdater, maxTime time.Duration, sink update.Sink) (update.Task, bool) {
	for i, cand := range candidates {
		remaining := append([]update.RegisteredUpdater(nil), candidates[i+1:]...)

		if !e.updaters.IsEligibleCandidate(cand) {
			e.log.Info("retry candidate unregistered, skipping", "id", id, "method", cand.Method)
			continue
		}
		uris, ok := sources[cand.Method]
		if !ok || len(uris) == 0 {
			continue
		}

		task, err := cand.Capability.Update(ctx, id, cand.Method, uris, version, maxTime, sink)
		if err != nil {
			e.log.Info("updater attempt failed to launch", "id", id, "method", cand.Method, "err", err)
			continue
		}
		if task == nil {
			continue
		}

		if !e.table.TryAddDownload(id, task, remaining) {
			// Invariant 1 violated by a racing caller; refuse to run two
			// downloaders for the same identity.
			task.Shutdown()
			e.log.Warn("retry engine found an update already in progress", "id", id)
			return nil, false
		}
		task.Start(ctx)
		return task, true
	}
	e.log.Info("retry plan exhausted", "id", id)
	return nil, false
}
