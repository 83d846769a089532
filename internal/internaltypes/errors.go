package internaltypes

import "errors"

var (
	// ErrUnauthorized is returned when the shared secret doesn't match.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSlotMismatch means the booking page preselected another start time than requested,
	// usually because the slot is already taken.
	ErrSlotMismatch = errors.New("slot does not match requested time")
	// ErrAborted is the cancellation cause of an attempt that was stopped before it finished.
	ErrAborted = errors.New("aborted")
	// ErrFinished is the cancellation cause used once an attempt has run to its end.
	ErrFinished = errors.New("attempt finished")
)
