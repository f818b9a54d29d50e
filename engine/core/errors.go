package core

import (
	"errors"
)

var (
	// ErrCapacityExceeded is returned when a state record has no free override slot left.
	ErrCapacityExceeded = errors.New("subresource override capacity exceeded")
	// ErrAmbiguousQuery is returned when the state of all subresources is queried
	// on a resource whose subresources are in different states.
	ErrAmbiguousQuery = errors.New("ambiguous query: subresources are in mixed states")
	// ErrInvalidHandle is returned for the null resource handle.
	ErrInvalidHandle = errors.New("invalid resource handle")
	// ErrInternalInvariant means the tracking bookkeeping itself is corrupted.
	ErrInternalInvariant = errors.New("internal invariant violation")

	ErrSessionNotRecording = errors.New("recording session is not recording")
	ErrUnknownResource     = errors.New("unknown resource")
)
