package coordinator

import "errors"

// Sentinel errors surfaced by the Coordinator API, grounded on the
// teacher's api/v1/errors.go and internal/data sentinel-error style.
var (
	ErrCheckInProgress      = errors.New("check already in progress for this identity")
	ErrUpdateInProgress     = errors.New("update already in progress for this identity")
	ErrNoCheckerAccepted    = errors.New("no registered checker accepted this identity")
	ErrNoUpdaterAccepted    = errors.New("no registered updater accepted this identity")
	ErrNoVersionAvailable   = errors.New("no available version recorded for this identity")
	ErrNoUpdatersRegistered = errors.New("no updaters registered for this kind")
)
