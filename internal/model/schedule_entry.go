package model

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleEntry is a per-user denormalized snapshot of an occurrence,
// written when the user becomes a participant. Entries are immutable:
// later edits to the occurrence do not rewrite them.
type ScheduleEntry struct {
	ID           int64           `json:"id"`
	UserID       string          `json:"user_id"`
	OccurrenceID uuid.UUID       `json:"occurrence_id"`
	SeriesID     *uuid.UUID      `json:"series_id"`
	Title        string          `json:"title"`
	Category     SessionCategory `json:"category"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	IsOnline     bool            `json:"is_online"`
	Location     string          `json:"location"`
	CreatedAt    time.Time       `json:"created_at"`
}

// EntryFromOccurrence snapshots the schedule-relevant fields of an
// occurrence for one user.
func EntryFromOccurrence(userID string, o *SessionOccurrence) *ScheduleEntry {
	location := o.Location
	if o.IsOnline {
		location = o.MeetingLink
	}
	return &ScheduleEntry{
		UserID:       userID,
		OccurrenceID: o.ID,
		SeriesID:     o.SeriesID,
		Title:        o.Title,
		Category:     o.Category,
		StartTime:    o.StartTime,
		EndTime:      o.EndTime,
		IsOnline:     o.IsOnline,
		Location:     location,
	}
}
