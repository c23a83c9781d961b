// Package reaper periodically sweeps the task table for tasks whose
// worker has died without calling back into the notification sink, and
// removes them — a failsafe, not a primary state-transition path.
//
// Grounded on the teacher's background-notification loop shape
// (internal/downloader/aria2/adapter.go: Adapter.Run(ctx) select over
// ctx.Done() and a channel), here driven by a ticker instead of a channel
// of external events.
package reaper

import (
	"context"
	"log/slog"
	"time"

	"github.com/tinoosan/torrusd/internal/metrics"
	"github.com/tinoosan/torrusd/internal/tasktable"
)

// DefaultInterval is the sweep period spec.md §4.6 specifies.
const DefaultInterval = 15 * time.Minute

// Reaper runs Sweep on a fixed interval until its context is cancelled.
type Reaper struct {
	table    *tasktable.Table
	interval time.Duration
	log      *slog.Logger
}

func New(table *tasktable.Table, interval time.Duration, log *slog.Logger) *Reaper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reaper{table: table, interval: interval, log: log}
}

// Run blocks, sweeping on every tick, until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep removes any task in either table whose IsRunning reports false.
// It takes no other action: a crashed task has already failed to notify
// the coordinator of anything, so there is no status to publish and no
// retry plan to honor.
func (r *Reaper) Sweep() {
	pruned := 0
	for id, task := range r.table.AllChecks() {
		if !task.IsRunning() {
			if _, ok := r.table.RemoveCheck(id); ok {
				pruned++
				metrics.ReaperPrunedTotal.WithLabelValues("checks").Inc()
				r.log.Warn("reaper pruned dead check task", "id", id)
			}
		}
	}
	for id, task := range r.table.AllDownloads() {
		if !task.IsRunning() {
			if _, ok := r.table.RemoveDownload(id); ok {
				pruned++
				metrics.ReaperPrunedTotal.WithLabelValues("downloads").Inc()
				r.log.Warn("reaper pruned dead download task", "id", id)
			}
		}
	}
	metrics.ActiveCheckTasks.Set(float64(len(r.table.AllChecks())))
	metrics.ActiveDownloadTasks.Set(float64(len(r.table.AllDownloads())))
	if pruned > 0 {
		r.log.Info("reaper sweep complete", "pruned", pruned)
	}
}
