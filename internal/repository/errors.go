package repository

import "errors"

// Sentinel errors shared by the store implementations. Services and the
// HTTP layer branch on these with errors.Is.
var (
	// ErrNotFound marks operations against a deleted or unknown record.
	// Callers should treat it as stale state: refresh and retry.
	ErrNotFound = errors.New("record not found")

	// ErrSessionFull rejects a request or acceptance that would push an
	// occurrence past its attendee capacity.
	ErrSessionFull = errors.New("session occurrence is full")

	// ErrAlreadyMember rejects a join request from a current participant.
	ErrAlreadyMember = errors.New("user is already a participant")

	// ErrAlreadyRequested rejects a duplicate pending join request.
	ErrAlreadyRequested = errors.New("user already has a pending request")

	// ErrNoSuchRequest marks an accept/reject against a request that no
	// longer exists on the targeted occurrence.
	ErrNoSuchRequest = errors.New("no pending request for this user")
)
