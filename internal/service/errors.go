package service

import (
	"errors"
	"fmt"
	"strings"
)

// Validation and permission errors surfaced before any write happens.
var (
	ErrUnknownUser        = errors.New("unknown user")
	ErrNotCreator         = errors.New("only the session creator may do this")
	ErrMissingTitle       = errors.New("session title is required")
	ErrInvalidCategory    = errors.New("invalid session category")
	ErrInvalidTimeRange   = errors.New("session end time must be after its start time")
	ErrInvalidCapacity    = errors.New("maximum attendee count must be positive")
	ErrMissingMeetingLink = errors.New("online sessions require a meeting link")
	ErrMissingLocation    = errors.New("in-person sessions require a location")
	ErrUnknownGroup       = errors.New("unknown group")
)

// CancellationWarning reports participants whose cancellation notice
// could not be delivered. Deletion itself succeeded; the caller must
// surface the gap instead of swallowing it.
type CancellationWarning struct {
	FailedRecipients []string
}

func (w *CancellationWarning) Error() string {
	return fmt.Sprintf("session deleted, but cancellation notice failed for: %s",
		strings.Join(w.FailedRecipients, ", "))
}
