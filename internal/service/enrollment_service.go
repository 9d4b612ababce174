package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
	"github.com/superALLEY/EduConnect-sub001/internal/repository"
)

// EnrollmentService runs the request/accept/reject state machine
// between users and session occurrences. Per (user, occurrence) the
// states are none -> requested -> member, with member terminal.
type EnrollmentService struct {
	sessions SessionStore
	users    UserStore
	notifier *NotificationService
	logger   *zap.Logger
}

func NewEnrollmentService(
	sessions SessionStore,
	users UserStore,
	notifier *NotificationService,
	logger *zap.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		sessions: sessions,
		users:    users,
		notifier: notifier,
		logger:   logger,
	}
}

// RequestJoin appends the user to the occurrence's pending-request
// queue. Valid only from state none and only while the occurrence has
// room: members, duplicate requests and full occurrences are rejected
// without mutating anything. The creator is notified of the new
// request.
func (s *EnrollmentService) RequestJoin(ctx context.Context, occurrenceID uuid.UUID, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return ErrUnknownUser
	}

	occ, err := s.sessions.GetByID(ctx, occurrenceID)
	if err != nil {
		return fmt.Errorf("get occurrence: %w", err)
	}
	if occ == nil {
		return repository.ErrNotFound
	}

	req := model.JoinRequest{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
	}
	if err := s.sessions.AddRequest(ctx, occurrenceID, req); err != nil {
		return err
	}

	s.logger.Info("Join requested",
		zap.String("occurrence_id", occurrenceID.String()),
		zap.String("user_id", user.ID),
	)

	message := fmt.Sprintf("%s wants to join %q on %s",
		user.DisplayName, occ.Title, occ.StartTime.Format("Mon, Jan 2 15:04"))
	if err := s.notifier.Notify(ctx, occ.CreatorID, message, model.NotificationJoinRequest, &occ.ID); err != nil {
		s.logger.Warn("Failed to notify creator about join request",
			zap.Error(err),
			zap.String("creator_id", occ.CreatorID),
		)
	}
	return nil
}

// RespondToRequest is the creator-only accept/reject decision on a
// pending request. Acceptance on a series-linked occurrence grants the
// whole series (every sibling occurrence, one atomic fan-out);
// rejection stays local to the single occurrence, since a rejected
// user may still suit other dates. Exactly one notification describes
// the outcome to the affected user.
func (s *EnrollmentService) RespondToRequest(ctx context.Context, creatorID string, occurrenceID uuid.UUID, userID string, accept bool) error {
	occ, err := s.sessions.GetByID(ctx, occurrenceID)
	if err != nil {
		return fmt.Errorf("get occurrence: %w", err)
	}
	if occ == nil {
		return repository.ErrNotFound
	}
	if occ.CreatorID != creatorID {
		return ErrNotCreator
	}

	if accept {
		return s.accept(ctx, occ, userID)
	}
	return s.reject(ctx, occ, userID)
}

func (s *EnrollmentService) accept(ctx context.Context, occ *model.SessionOccurrence, userID string) error {
	joined, err := s.sessions.AcceptAcrossSeries(ctx, occ.ID, userID)
	if err != nil {
		return err
	}

	s.logger.Info("Join request accepted",
		zap.String("occurrence_id", occ.ID.String()),
		zap.String("user_id", userID),
		zap.Int("occurrences_joined", len(joined)),
	)

	message := fmt.Sprintf("Your request to join %q was accepted", occ.Title)
	if occ.SeriesID != nil {
		message = fmt.Sprintf("Your request to join %q was accepted for the whole series (%d dates)",
			occ.Title, len(joined))
	}
	if err := s.notifier.Notify(ctx, userID, message, model.NotificationRequestAccept, &occ.ID); err != nil {
		s.logger.Warn("Failed to notify user about acceptance",
			zap.Error(err),
			zap.String("user_id", userID),
		)
	}
	return nil
}

func (s *EnrollmentService) reject(ctx context.Context, occ *model.SessionOccurrence, userID string) error {
	if err := s.sessions.RejectRequest(ctx, occ.ID, userID); err != nil {
		return err
	}

	s.logger.Info("Join request rejected",
		zap.String("occurrence_id", occ.ID.String()),
		zap.String("user_id", userID),
	)

	message := fmt.Sprintf("Your request to join %q on %s was declined",
		occ.Title, occ.StartTime.Format("Mon, Jan 2 15:04"))
	if err := s.notifier.Notify(ctx, userID, message, model.NotificationRequestReject, &occ.ID); err != nil {
		s.logger.Warn("Failed to notify user about rejection",
			zap.Error(err),
			zap.String("user_id", userID),
		)
	}
	return nil
}
