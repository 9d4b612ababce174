package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionCategory string

const (
	CategoryEvent     SessionCategory = "event"
	CategoryTutoring  SessionCategory = "tutoring"
	CategoryGroupMeet SessionCategory = "group-meet"
	CategoryCourse    SessionCategory = "course"
)

// IsValid reports whether the category is one of the closed set.
func (c SessionCategory) IsValid() bool {
	switch c {
	case CategoryEvent, CategoryTutoring, CategoryGroupMeet, CategoryCourse:
		return true
	}
	return false
}

// JoinRequest is one pending entry in an occurrence's request queue.
type JoinRequest struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	RequestedAt time.Time `json:"requested_at"`
}

// SessionOccurrence is one concrete, dated instance of a session.
// Occurrences created from a repetition rule share a SeriesID.
type SessionOccurrence struct {
	ID           uuid.UUID       `json:"id"`
	SeriesID     *uuid.UUID      `json:"series_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Category     SessionCategory `json:"category"`
	CreatorID    string          `json:"creator_id"`
	CreatorName  string          `json:"creator_name"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	IsOnline     bool            `json:"is_online"`
	MeetingLink  string          `json:"meeting_link"`
	Location     string          `json:"location"`
	MaxAttendees int             `json:"max_attendees"`
	GroupID      *uuid.UUID      `json:"group_id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// Loaded alongside the row, not columns of it.
	Participants []string      `json:"participants"`
	Requests     []JoinRequest `json:"requests,omitempty"`
}

// Date returns the occurrence's calendar date at midnight.
func (o *SessionOccurrence) Date() time.Time {
	return time.Date(o.StartTime.Year(), o.StartTime.Month(), o.StartTime.Day(), 0, 0, 0, 0, o.StartTime.Location())
}

// IsFull reports whether the participant list has reached capacity.
func (o *SessionOccurrence) IsFull() bool {
	return len(o.Participants) >= o.MaxAttendees
}

// HasParticipant reports whether the user is already a member.
func (o *SessionOccurrence) HasParticipant(userID string) bool {
	for _, p := range o.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// HasRequest reports whether the user has a pending join request.
func (o *SessionOccurrence) HasRequest(userID string) bool {
	for _, r := range o.Requests {
		if r.UserID == userID {
			return true
		}
	}
	return false
}
