package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
)

// Store interfaces the services consume. The pgx repositories satisfy
// them; tests substitute in-memory fakes.

type SessionStore interface {
	CreateSeries(ctx context.Context, occurrences []*model.SessionOccurrence, series *model.SessionSeries) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.SessionOccurrence, error)
	GetBySeriesID(ctx context.Context, seriesID uuid.UUID) ([]*model.SessionOccurrence, error)
	GetSeries(ctx context.Context, seriesID uuid.UUID) (*model.SessionSeries, error)
	Update(ctx context.Context, occ *model.SessionOccurrence) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteSeries(ctx context.Context, seriesID uuid.UUID) (int64, error)
	AddRequest(ctx context.Context, occurrenceID uuid.UUID, req model.JoinRequest) error
	AcceptAcrossSeries(ctx context.Context, occurrenceID uuid.UUID, userID string) ([]uuid.UUID, error)
	RejectRequest(ctx context.Context, occurrenceID uuid.UUID, userID string) error
	ListForUserBetween(ctx context.Context, userID string, from, to time.Time) ([]*model.SessionOccurrence, error)
}

type ScheduleEntryStore interface {
	ListForUserBetween(ctx context.Context, userID string, from, to time.Time) ([]*model.ScheduleEntry, error)
	CountForUser(ctx context.Context, userID string) (int, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type GroupStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Group, error)
	GetMemberIDs(ctx context.Context, groupID uuid.UUID) ([]string, error)
	CreatePost(ctx context.Context, post *model.GroupPost) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListForRecipient(ctx context.Context, recipientID string, limit int) ([]*model.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkAllRead(ctx context.Context, recipientID string) error
}
