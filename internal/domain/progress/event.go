// Package progress carries the live event stream and cancellation of one booking attempt.
package progress

import "time"

type Kind string

const (
	KindLog    Kind = "log"
	KindStatus Kind = "status"
)

// Event is one progress message. Time is stamped when the event is sent.
type Event struct {
	Kind Kind
	Data string
	Time time.Time
}
