package update

import "context"

// Task is the opaque handle a Checker or Updater hands back to the
// coordinator when it accepts work. The coordinator never inspects a
// task's internals; it only calls the methods below and listens on Done.
type Task interface {
	// Kind and ID identify which artifact this task is working on.
	Kind() Kind
	ID() string
	// Method reports which transport this task is using, for status/log
	// purposes and for attributing retry plans.
	Method() Method
	// URI is the primary source URI this task is fetching from, used in
	// status messages ("Transfer failed from <url>").
	URI() string
	// IsRunning reports whether the task's worker is still alive. The
	// reaper removes table entries for which this returns false.
	IsRunning() bool
	// Start launches the task's worker. It must not block past the point
	// of actually starting the goroutine/worker.
	Start(ctx context.Context)
	// Shutdown asks the task to stop at its next checkpoint. It is
	// advisory; Shutdown must not block waiting for the worker to exit.
	Shutdown()
	// Done is closed exactly once, when the task's check or download has
	// reached a terminal state (success or failure). checkAvailable waits
	// on this channel up to its maxWait.
	Done() <-chan struct{}
}
