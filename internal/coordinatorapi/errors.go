package coordinatorapi

import "errors"

var (
	ErrMissingKind = errors.New("kind path segment is required")
	ErrInvalidKind = errors.New("unrecognized kind")
	ErrContentType = errors.New("Content-Type must be application/json")
	ErrMissingURI  = errors.New("uri is required")
)
