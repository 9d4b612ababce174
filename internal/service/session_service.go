package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
	"github.com/superALLEY/EduConnect-sub001/internal/repository"
	"github.com/superALLEY/EduConnect-sub001/internal/schedule"
)

// SessionInput carries the creator-supplied fields of a session. The
// same shape serves creation (optionally expanded by a repetition
// rule) and edits.
type SessionInput struct {
	Title        string
	Description  string
	Category     model.SessionCategory
	Date         time.Time
	StartHour    int
	StartMinute  int
	EndHour      int
	EndMinute    int
	IsOnline     bool
	MeetingLink  string
	Location     string
	MaxAttendees int
	GroupID      *uuid.UUID
}

// SessionService owns the session lifecycle: series creation, edits
// with group announcements, and deletion with its cancellation
// cascade.
type SessionService struct {
	sessions SessionStore
	users    UserStore
	groups   GroupStore
	notifier *NotificationService
	logger   *zap.Logger
}

func NewSessionService(
	sessions SessionStore,
	users UserStore,
	groups GroupStore,
	notifier *NotificationService,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessions: sessions,
		users:    users,
		groups:   groups,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateSeries validates the input, expands the optional repetition
// rule into dated occurrences and persists them atomically. The
// creator is auto-enrolled as the first participant of every
// occurrence, not just the first. Returns the series (nil for a single
// session) and the created occurrences in date order.
func (s *SessionService) CreateSeries(ctx context.Context, creatorID string, input SessionInput, rule *model.RepetitionRule) (*model.SessionSeries, []*model.SessionOccurrence, error) {
	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		return nil, nil, fmt.Errorf("get creator: %w", err)
	}
	if creator == nil {
		return nil, nil, ErrUnknownUser
	}

	if err := validateInput(input); err != nil {
		return nil, nil, err
	}

	if input.GroupID != nil {
		group, err := s.groups.GetByID(ctx, *input.GroupID)
		if err != nil {
			return nil, nil, fmt.Errorf("get group: %w", err)
		}
		if group == nil {
			return nil, nil, ErrUnknownGroup
		}
	}

	dates, err := schedule.Generate(input.Date, rule)
	if err != nil {
		return nil, nil, err
	}

	var series *model.SessionSeries
	var seriesID *uuid.UUID
	if rule != nil {
		series = &model.SessionSeries{ID: uuid.New(), Rule: *rule}
		seriesID = &series.ID
	}

	occurrences := make([]*model.SessionOccurrence, 0, len(dates))
	for _, date := range dates {
		occurrences = append(occurrences, &model.SessionOccurrence{
			ID:           uuid.New(),
			SeriesID:     seriesID,
			Title:        input.Title,
			Description:  input.Description,
			Category:     input.Category,
			CreatorID:    creator.ID,
			CreatorName:  creator.DisplayName,
			StartTime:    clockOn(date, input.StartHour, input.StartMinute),
			EndTime:      clockOn(date, input.EndHour, input.EndMinute),
			IsOnline:     input.IsOnline,
			MeetingLink:  input.MeetingLink,
			Location:     input.Location,
			MaxAttendees: input.MaxAttendees,
			GroupID:      input.GroupID,
			Participants: []string{creator.ID},
		})
	}

	if err := s.sessions.CreateSeries(ctx, occurrences, series); err != nil {
		return nil, nil, fmt.Errorf("create series: %w", err)
	}

	s.logger.Info("Session series created",
		zap.String("creator_id", creator.ID),
		zap.String("title", input.Title),
		zap.Int("occurrences", len(occurrences)),
		zap.Bool("repeating", series != nil),
	)
	return series, occurrences, nil
}

// GetOccurrence fetches one occurrence or a stale-state error if it is
// gone.
func (s *SessionService) GetOccurrence(ctx context.Context, id uuid.UUID) (*model.SessionOccurrence, error) {
	occ, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get occurrence: %w", err)
	}
	if occ == nil {
		return nil, repository.ErrNotFound
	}
	return occ, nil
}

// UpdateOccurrence applies creator edits to exactly one occurrence.
// Sibling occurrences of a series keep their fields; only enrollment
// decisions fan out. Existing participants are not revalidated against
// a reduced capacity. When the session belongs to a group, every other
// member is notified and a feed post announces the change.
func (s *SessionService) UpdateOccurrence(ctx context.Context, userID string, occurrenceID uuid.UUID, input SessionInput) (*model.SessionOccurrence, error) {
	occ, err := s.GetOccurrence(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	if occ.CreatorID != userID {
		return nil, ErrNotCreator
	}

	if err := validateInput(input); err != nil {
		return nil, err
	}

	occ.Title = input.Title
	occ.Description = input.Description
	occ.Category = input.Category
	occ.StartTime = clockOn(input.Date, input.StartHour, input.StartMinute)
	occ.EndTime = clockOn(input.Date, input.EndHour, input.EndMinute)
	occ.IsOnline = input.IsOnline
	occ.MeetingLink = input.MeetingLink
	occ.Location = input.Location
	occ.MaxAttendees = input.MaxAttendees

	if err := s.sessions.Update(ctx, occ); err != nil {
		return nil, fmt.Errorf("update occurrence: %w", err)
	}

	s.logger.Info("Session occurrence updated",
		zap.String("occurrence_id", occ.ID.String()),
		zap.String("creator_id", userID),
	)

	if occ.GroupID != nil {
		s.announceGroupEdit(ctx, occ)
	}
	return occ, nil
}

// announceGroupEdit notifies the other group members and posts the
// change to the group feed. Announcement failures are logged, never
// propagated: the edit itself already succeeded.
func (s *SessionService) announceGroupEdit(ctx context.Context, occ *model.SessionOccurrence) {
	members, err := s.groups.GetMemberIDs(ctx, *occ.GroupID)
	if err != nil {
		s.logger.Warn("Failed to load group members for edit announcement",
			zap.Error(err),
			zap.String("group_id", occ.GroupID.String()),
		)
		return
	}

	message := fmt.Sprintf("%q on %s was updated by %s",
		occ.Title, occ.StartTime.Format("Mon, Jan 2 15:04"), occ.CreatorName)

	for _, memberID := range members {
		if memberID == occ.CreatorID {
			continue
		}
		if err := s.notifier.Notify(ctx, memberID, message, model.NotificationSessionEdited, &occ.ID); err != nil {
			s.logger.Warn("Failed to notify group member about edit",
				zap.Error(err),
				zap.String("member_id", memberID),
			)
		}
	}

	post := &model.GroupPost{
		ID:       uuid.New(),
		GroupID:  *occ.GroupID,
		AuthorID: occ.CreatorID,
		Content:  message,
	}
	if err := s.groups.CreatePost(ctx, post); err != nil {
		s.logger.Warn("Failed to post edit announcement to group feed",
			zap.Error(err),
			zap.String("group_id", occ.GroupID.String()),
		)
	}
}

// DeleteOccurrence removes one occurrence and notifies its
// participants of the cancellation. Deletion never silently strands
// participants, and it fails open: a failed notice does not undo the
// deletion but is returned as a warning the caller must surface.
func (s *SessionService) DeleteOccurrence(ctx context.Context, userID string, occurrenceID uuid.UUID) (*CancellationWarning, error) {
	occ, err := s.GetOccurrence(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	if occ.CreatorID != userID {
		return nil, ErrNotCreator
	}

	if err := s.sessions.Delete(ctx, occurrenceID); err != nil {
		return nil, fmt.Errorf("delete occurrence: %w", err)
	}

	warning := s.notifyCancellation(ctx, []*model.SessionOccurrence{occ})

	s.logger.Info("Session occurrence deleted",
		zap.String("occurrence_id", occurrenceID.String()),
		zap.String("creator_id", userID),
	)
	return warning, nil
}

// DeleteSeries removes every occurrence of a series, then notifies
// every affected participant once. Same fail-open contract as
// DeleteOccurrence.
func (s *SessionService) DeleteSeries(ctx context.Context, userID string, seriesID uuid.UUID) (*CancellationWarning, error) {
	occurrences, err := s.sessions.GetBySeriesID(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("get series occurrences: %w", err)
	}
	if len(occurrences) == 0 {
		return nil, repository.ErrNotFound
	}
	if occurrences[0].CreatorID != userID {
		return nil, ErrNotCreator
	}

	if _, err := s.sessions.DeleteSeries(ctx, seriesID); err != nil {
		return nil, fmt.Errorf("delete series: %w", err)
	}

	warning := s.notifyCancellation(ctx, occurrences)

	s.logger.Info("Session series deleted",
		zap.String("series_id", seriesID.String()),
		zap.String("creator_id", userID),
		zap.Int("occurrences", len(occurrences)),
	)
	return warning, nil
}

// notifyCancellation sends one cancellation notice per distinct
// participant across the deleted occurrences, collecting failures into
// a warning.
func (s *SessionService) notifyCancellation(ctx context.Context, occurrences []*model.SessionOccurrence) *CancellationWarning {
	first := occurrences[0]
	message := fmt.Sprintf("%q has been canceled by %s", first.Title, first.CreatorName)

	notified := make(map[string]bool)
	var failed []string

	for _, occ := range occurrences {
		for _, participantID := range occ.Participants {
			if participantID == occ.CreatorID || notified[participantID] {
				continue
			}
			notified[participantID] = true

			if err := s.notifier.Notify(ctx, participantID, message, model.NotificationSessionCancel, &occ.ID); err != nil {
				s.logger.Warn("Failed to deliver cancellation notice",
					zap.Error(err),
					zap.String("participant_id", participantID),
				)
				failed = append(failed, participantID)
			}
		}
	}

	if len(failed) == 0 {
		return nil
	}
	return &CancellationWarning{FailedRecipients: failed}
}

// validateInput enforces the session field invariants before anything
// is written.
func validateInput(input SessionInput) error {
	if input.Title == "" {
		return ErrMissingTitle
	}
	if !input.Category.IsValid() {
		return ErrInvalidCategory
	}
	start := input.StartHour*60 + input.StartMinute
	end := input.EndHour*60 + input.EndMinute
	if start >= end {
		return ErrInvalidTimeRange
	}
	if input.MaxAttendees <= 0 {
		return ErrInvalidCapacity
	}
	if input.IsOnline && input.MeetingLink == "" {
		return ErrMissingMeetingLink
	}
	if !input.IsOnline && input.Location == "" {
		return ErrMissingLocation
	}
	return nil
}

// clockOn places a wall-clock time on a calendar date.
func clockOn(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}
