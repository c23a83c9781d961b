// Package statuschan implements the coordinator's volatile status string
// (spec.md §6): callers poll GetStatus(); a status set via FinishStatus
// auto-clears after a quiet period unless superseded by a newer call.
package statuschan

import (
	"sync"
	"time"

	"github.com/tinoosan/torrusd/internal/hostapi"
)

// ExpireAfter is the quiet period spec.md §6 specifies: 20 minutes.
const ExpireAfter = 20 * time.Minute

// Channel holds the current status string and expires it if nothing
// supersedes it in time.
type Channel struct {
	clock hostapi.Clock

	mu      sync.Mutex
	text    string
	expires time.Time
}

func New(clock hostapi.Clock) *Channel {
	if clock == nil {
		clock = systemClock{}
	}
	return &Channel{clock: clock}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Set publishes text immediately and unconditionally, without an expiry
// (used for transient progress updates that the next progress tick will
// overwrite anyway).
func (c *Channel) Set(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	c.expires = time.Time{}
}

// FinishStatus publishes text with a 20-minute expiry: once that much wall
// time passes with no newer call to Set or FinishStatus, GetStatus starts
// returning "" again.
func (c *Channel) FinishStatus(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	c.expires = c.clock.Now().Add(ExpireAfter)
}

// GetStatus returns the current status, or "" if it has expired.
func (c *Channel) GetStatus() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.expires.IsZero() && c.clock.Now().After(c.expires) {
		return ""
	}
	return c.text
}
