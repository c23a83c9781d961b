package update

import "time"

// Sink is the upward interface the coordinator exposes to Checkers and
// Updaters. Task workers call back into it from their own goroutine; every
// method here must be safe to call concurrently and must return promptly.
type Sink interface {
	// NotifyVersionAvailable publishes a version a Checker observed for
	// id, reachable over method at the given uris.
	NotifyVersionAvailable(id Identity, method Method, uris []string, version, minVersion Version)
	// NotifyCheckComplete marks a check task as finished. newer reports
	// whether a newer version was found; success reports whether the
	// check itself completed without error.
	NotifyCheckComplete(task Task, newer bool, success bool)
	// NotifyProgress reports incremental download progress; it never
	// mutates coordinator state beyond the status channel.
	NotifyProgress(task Task, status string, done, total int64)
	// NotifyAttemptFailed reports that a single source URI failed; the
	// task may still try other URIs on its own before giving up.
	NotifyAttemptFailed(task Task, reason string, cause error)
	// NotifyTaskFailed is terminal for the task: no further attempts will
	// be made by this task.
	NotifyTaskFailed(task Task, reason string, cause error)
	// NotifyComplete reports that a download finished and a file is
	// ready for verification/install. It returns false if verification or
	// install failed, obligating the caller to also call
	// NotifyTaskFailed.
	NotifyComplete(task Task, actualVersion Version, file string) bool
}

// UpdaterMaxTime bounds how long an Updater should spend on one attempt.
// The coordinator passes it through but does not enforce it itself.
type UpdaterMaxTime = time.Duration
