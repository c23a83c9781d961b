// Package tasktable tracks the active check task and active download task
// for each artifact identity (spec.md §4.3 invariant 1: at most one of
// each, per identity), plus the retry plan attached to each download task.
//
// Grounded on the teacher's "one map, one mutex, clone on read" shape
// (internal/repo/inmem.go) split into two independently-locked halves per
// spec.md §5 ("the active-checker set is protected by its own lock because
// launching a checker must atomically 'no-check-in-progress AND
// launched'").
package tasktable

import (
	"sync"

	"github.com/tinoosan/torrusd/internal/update"
)

// downloadEntry pairs an active download task with its retry plan: the
// ordered, still-remaining list of updater candidates to try if this task
// fails (spec.md §4.5).
type downloadEntry struct {
	task update.Task
	plan []update.RegisteredUpdater
}

// Table is the coordinator's task table.
type Table struct {
	checkMu sync.Mutex
	checks  map[update.Identity]update.Task

	downloadMu sync.Mutex
	downloads  map[update.Identity]downloadEntry
}

func New() *Table {
	return &Table{
		checks:    make(map[update.Identity]update.Task),
		downloads: make(map[update.Identity]downloadEntry),
	}
}

// TryAddCheck inserts task as the active checker for id iff none exists.
// It reports whether the insertion happened, atomically with the
// existence check (spec.md §4.3: "no-check-in-progress AND launched").
func (t *Table) TryAddCheck(id update.Identity, task update.Task) bool {
	t.checkMu.Lock()
	defer t.checkMu.Unlock()
	if _, exists := t.checks[id]; exists {
		return false
	}
	t.checks[id] = task
	return true
}

// ReplaceCheck overwrites the active checker entry for id. Callers use it
// to swap a reservation placeholder for the real task once a registered
// Checker has accepted the work; it assumes the caller already holds the
// reservation (via a prior successful TryAddCheck) and is not itself racy
// against a second TryAddCheck for the same id.
func (t *Table) ReplaceCheck(id update.Identity, task update.Task) {
	t.checkMu.Lock()
	defer t.checkMu.Unlock()
	t.checks[id] = task
}

func (t *Table) IsCheckInProgress(id update.Identity) bool {
	t.checkMu.Lock()
	defer t.checkMu.Unlock()
	_, ok := t.checks[id]
	return ok
}

func (t *Table) GetCheck(id update.Identity) (update.Task, bool) {
	t.checkMu.Lock()
	defer t.checkMu.Unlock()
	task, ok := t.checks[id]
	return task, ok
}

// RemoveCheck removes the active checker for id, if any, and returns it so
// the caller can shut it down outside the lock.
func (t *Table) RemoveCheck(id update.Identity) (update.Task, bool) {
	t.checkMu.Lock()
	defer t.checkMu.Unlock()
	task, ok := t.checks[id]
	if ok {
		delete(t.checks, id)
	}
	return task, ok
}

// AllChecks returns a snapshot of (identity, task) pairs, safe to iterate
// while the table is concurrently mutated.
func (t *Table) AllChecks() map[update.Identity]update.Task {
	t.checkMu.Lock()
	defer t.checkMu.Unlock()
	out := make(map[update.Identity]update.Task, len(t.checks))
	for k, v := range t.checks {
		out[k] = v
	}
	return out
}

// StopAllChecks removes and returns every active checker task, for
// stopChecks().
func (t *Table) StopAllChecks() []update.Task {
	t.checkMu.Lock()
	defer t.checkMu.Unlock()
	out := make([]update.Task, 0, len(t.checks))
	for id, task := range t.checks {
		out = append(out, task)
		delete(t.checks, id)
	}
	return out
}

// TryAddDownload inserts task with plan as the active downloader for id
// iff none exists.
func (t *Table) TryAddDownload(id update.Identity, task update.Task, plan []update.RegisteredUpdater) bool {
	t.downloadMu.Lock()
	defer t.downloadMu.Unlock()
	if _, exists := t.downloads[id]; exists {
		return false
	}
	t.downloads[id] = downloadEntry{task: task, plan: plan}
	return true
}

func (t *Table) IsUpdateInProgress(id update.Identity) bool {
	t.downloadMu.Lock()
	defer t.downloadMu.Unlock()
	_, ok := t.downloads[id]
	return ok
}

func (t *Table) GetDownload(id update.Identity) (update.Task, bool) {
	t.downloadMu.Lock()
	defer t.downloadMu.Unlock()
	e, ok := t.downloads[id]
	return e.task, ok
}

// GetRetryPlan returns the still-remaining retry plan for id's active
// download task, if any.
func (t *Table) GetRetryPlan(id update.Identity) ([]update.RegisteredUpdater, bool) {
	t.downloadMu.Lock()
	defer t.downloadMu.Unlock()
	e, ok := t.downloads[id]
	if !ok {
		return nil, false
	}
	return e.plan, true
}

// RemoveDownload removes the active downloader for id, if any, and
// returns it so the caller can shut it down outside the lock.
func (t *Table) RemoveDownload(id update.Identity) (update.Task, bool) {
	t.downloadMu.Lock()
	defer t.downloadMu.Unlock()
	e, ok := t.downloads[id]
	if ok {
		delete(t.downloads, id)
	}
	return e.task, ok
}

// AllDownloads returns a snapshot of (identity, task) pairs.
func (t *Table) AllDownloads() map[update.Identity]update.Task {
	t.downloadMu.Lock()
	defer t.downloadMu.Unlock()
	out := make(map[update.Identity]update.Task, len(t.downloads))
	for k, v := range t.downloads {
		out[k] = v.task
	}
	return out
}

// StopAllDownloads removes and returns every active download task, for
// stopUpdates().
func (t *Table) StopAllDownloads() []update.Task {
	t.downloadMu.Lock()
	defer t.downloadMu.Unlock()
	out := make([]update.Task, 0, len(t.downloads))
	for id, e := range t.downloads {
		out = append(out, e.task)
		delete(t.downloads, id)
	}
	return out
}
