// Package simple provides minimal, production-usable implementations of
// the hostapi interfaces for a single-process deployment: a system clock,
// a uuid-backed random ID source (grounded on the teacher's
// uuid.NewString() correlation-ID pattern in internal/reconciler and
// api/v1/middleware_requestid.go), a time.Timer/time.Ticker backed
// scheduler, and a passthrough translator.
package simple

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Clock returns wall-clock time via time.Now.
type Clock struct{}

func (Clock) Now() time.Time { return time.Now() }

// Random generates plugin identifiers from uuid.NewString, matching the
// teacher's use of google/uuid for every other process-wide correlation
// identifier.
type Random struct{}

func (Random) RandomID() string { return uuid.NewString() }

// Scheduler runs periodic and one-shot callbacks on goroutines driven by
// time.Ticker / time.Timer, stopping cleanly when ctx is cancelled.
type Scheduler struct{}

func (Scheduler) AddPeriodicEvent(ctx context.Context, every time.Duration, fn func()) {
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				fn()
			}
		}
	}()
}

func (Scheduler) AddEvent(ctx context.Context, after time.Duration, fn func()) {
	go func() {
		t := time.NewTimer(after)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn()
		}
	}()
}

// Translator is a passthrough: it renders key plus args with fmt-style
// formatting is deliberately not attempted here; callers in this
// repository always pass an already-assembled message as key with no
// args, so Translate just returns key.
type Translator struct{}

func (Translator) Translate(key string, args ...any) string { return key }
