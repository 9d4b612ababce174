package model

import (
	"time"

	"github.com/google/uuid"
)

// Group is the slice of the platform's group entity this service needs:
// membership for edit announcements, nothing more.
type Group struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupPost is a feed entry announcing a session change to a group.
type GroupPost struct {
	ID        uuid.UUID `json:"id"`
	GroupID   uuid.UUID `json:"group_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
