package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
	"github.com/superALLEY/EduConnect-sub001/internal/repository/base"
)

const occurrenceColumns = `id, series_id, title, description, category, creator_id, creator_name,
		start_time, end_time, is_online, meeting_link, location, max_attendees, group_id, created_at, updated_at`

// SessionRepository manages session occurrences and their participant
// and request lists. Multi-record operations (series creation, the
// accept fan-out) run as single transactions: all rows change or none
// do.
type SessionRepository struct {
	base   *base.Repository
	logger *zap.Logger
}

// NewSessionRepository creates a new repository.
func NewSessionRepository(pool *pgxpool.Pool, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		base:   base.NewRepository(pool),
		logger: logger,
	}
}

// CreateSeries persists every occurrence of one creation action
// atomically, along with the repetition rule record when the creation
// was a repeating series. Each occurrence arrives with the creator
// pre-seeded in its participant list; the matching participant rows
// and the creator's schedule entries are written in the same
// transaction.
func (r *SessionRepository) CreateSeries(ctx context.Context, occurrences []*model.SessionOccurrence, series *model.SessionSeries) error {
	return r.base.WithTx(ctx, func(tx pgx.Tx) error {
		if series != nil {
			weekdays := make([]int32, 0, len(series.Rule.Weekdays))
			for _, wd := range series.Rule.Weekdays {
				weekdays = append(weekdays, int32(wd))
			}
			err := tx.QueryRow(ctx,
				`INSERT INTO session_series (id, frequency, weekdays, end_date) VALUES ($1, $2, $3, $4) RETURNING created_at`,
				series.ID, series.Rule.Frequency, weekdays, series.Rule.EndDate,
			).Scan(&series.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert series: %w", err)
			}
		}

		for _, occ := range occurrences {
			query := `
				INSERT INTO session_occurrences (id, series_id, title, description, category, creator_id, creator_name,
					start_time, end_time, is_online, meeting_link, location, max_attendees, group_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
				RETURNING created_at, updated_at
			`
			err := tx.QueryRow(ctx, query,
				occ.ID,
				occ.SeriesID,
				occ.Title,
				occ.Description,
				occ.Category,
				occ.CreatorID,
				occ.CreatorName,
				occ.StartTime,
				occ.EndTime,
				occ.IsOnline,
				occ.MeetingLink,
				occ.Location,
				occ.MaxAttendees,
				occ.GroupID,
			).Scan(&occ.CreatedAt, &occ.UpdatedAt)
			if err != nil {
				return fmt.Errorf("insert occurrence: %w", err)
			}

			for _, userID := range occ.Participants {
				if err := insertParticipantTx(ctx, tx, occ.ID, userID); err != nil {
					return err
				}
				if err := insertScheduleEntryTx(ctx, tx, model.EntryFromOccurrence(userID, occ)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// GetByID fetches one occurrence with its participant and pending
// request lists. Returns nil when the occurrence does not exist.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SessionOccurrence, error) {
	query := `SELECT ` + occurrenceColumns + ` FROM session_occurrences WHERE id = $1`

	occ, err := scanOccurrence(r.base.QueryRow(ctx, query, id))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get occurrence by id: %w", err)
	}

	if err := r.attachLists(ctx, []*model.SessionOccurrence{occ}, true); err != nil {
		return nil, err
	}
	return occ, nil
}

// GetBySeriesID fetches every occurrence sharing a series ID, ordered
// by start time, with participant and request lists attached.
func (r *SessionRepository) GetBySeriesID(ctx context.Context, seriesID uuid.UUID) ([]*model.SessionOccurrence, error) {
	query := `SELECT ` + occurrenceColumns + ` FROM session_occurrences WHERE series_id = $1 ORDER BY start_time`

	rows, err := r.base.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("get occurrences by series: %w", err)
	}
	defer rows.Close()

	occurrences, err := scanOccurrences(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachLists(ctx, occurrences, true); err != nil {
		return nil, err
	}
	return occurrences, nil
}

// Update performs a field-level update of a single occurrence. Sibling
// occurrences of the same series are never touched.
func (r *SessionRepository) Update(ctx context.Context, occ *model.SessionOccurrence) error {
	query := `
		UPDATE session_occurrences
		SET title = $2, description = $3, category = $4, start_time = $5, end_time = $6,
			is_online = $7, meeting_link = $8, location = $9, max_attendees = $10, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.base.QueryRow(ctx, query,
		occ.ID,
		occ.Title,
		occ.Description,
		occ.Category,
		occ.StartTime,
		occ.EndTime,
		occ.IsOnline,
		occ.MeetingLink,
		occ.Location,
		occ.MaxAttendees,
	).Scan(&occ.UpdatedAt)

	if base.IsNotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update occurrence: %w", err)
	}
	return nil
}

// Delete removes a single occurrence together with its schedule
// entries, in one transaction. Participant and request rows go with it
// via cascade.
func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.base.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM schedule_entries WHERE occurrence_id = $1`, id); err != nil {
			return fmt.Errorf("delete occurrence entries: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM session_occurrences WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete occurrence: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteSeries removes every occurrence of a series, every
// participant's schedule entries for those occurrences, and the series
// record itself, in one transaction. Reports how many occurrences were
// deleted.
func (r *SessionRepository) DeleteSeries(ctx context.Context, seriesID uuid.UUID) (int64, error) {
	var affected int64
	err := r.base.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM schedule_entries WHERE series_id = $1`, seriesID); err != nil {
			return fmt.Errorf("delete series entries: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM session_occurrences WHERE series_id = $1`, seriesID)
		if err != nil {
			return fmt.Errorf("delete series occurrences: %w", err)
		}
		affected = tag.RowsAffected()

		if _, err := tx.Exec(ctx, `DELETE FROM session_series WHERE id = $1`, seriesID); err != nil {
			return fmt.Errorf("delete series record: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// GetSeries fetches the repetition rule record of a series. Returns
// nil when the series is unknown.
func (r *SessionRepository) GetSeries(ctx context.Context, seriesID uuid.UUID) (*model.SessionSeries, error) {
	query := `SELECT id, frequency, weekdays, end_date, created_at FROM session_series WHERE id = $1`

	series := &model.SessionSeries{}
	var weekdays []int32
	err := r.base.QueryRow(ctx, query, seriesID).Scan(
		&series.ID,
		&series.Rule.Frequency,
		&weekdays,
		&series.Rule.EndDate,
		&series.CreatedAt,
	)
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}

	for _, wd := range weekdays {
		series.Rule.Weekdays = append(series.Rule.Weekdays, time.Weekday(wd))
	}
	return series, nil
}

// AddRequest appends a pending join request, guarding capacity and the
// membership invariant inside one transaction: a user may never sit in
// both the participant and the request list.
func (r *SessionRepository) AddRequest(ctx context.Context, occurrenceID uuid.UUID, req model.JoinRequest) error {
	return r.base.WithTx(ctx, func(tx pgx.Tx) error {
		var maxAttendees int
		err := tx.QueryRow(ctx,
			`SELECT max_attendees FROM session_occurrences WHERE id = $1 FOR UPDATE`,
			occurrenceID,
		).Scan(&maxAttendees)
		if base.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock occurrence: %w", err)
		}

		member, err := participantExistsTx(ctx, tx, occurrenceID, req.UserID)
		if err != nil {
			return err
		}
		if member {
			return ErrAlreadyMember
		}

		var pending bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM session_requests WHERE occurrence_id = $1 AND user_id = $2)`,
			occurrenceID, req.UserID,
		).Scan(&pending)
		if err != nil {
			return fmt.Errorf("check pending request: %w", err)
		}
		if pending {
			return ErrAlreadyRequested
		}

		count, err := participantCountTx(ctx, tx, occurrenceID)
		if err != nil {
			return err
		}
		if count >= maxAttendees {
			return ErrSessionFull
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO session_requests (occurrence_id, user_id, display_name, avatar_url) VALUES ($1, $2, $3, $4)`,
			occurrenceID, req.UserID, req.DisplayName, req.AvatarURL,
		)
		if err != nil {
			return fmt.Errorf("insert request: %w", err)
		}
		return nil
	})
}

// AcceptAcrossSeries turns a pending request into membership. For a
// series-linked occurrence the acceptance fans out over every sibling
// occurrence: pending requests are removed, the user joins each
// participant list, and one schedule entry per occurrence is written —
// all in a single transaction, so a full sibling aborts the whole
// accept instead of leaving the series half-applied. Returns the IDs of
// the occurrences the user now belongs to.
func (r *SessionRepository) AcceptAcrossSeries(ctx context.Context, occurrenceID uuid.UUID, userID string) ([]uuid.UUID, error) {
	var accepted []uuid.UUID

	err := r.base.WithTx(ctx, func(tx pgx.Tx) error {
		target, err := scanOccurrence(tx.QueryRow(ctx,
			`SELECT `+occurrenceColumns+` FROM session_occurrences WHERE id = $1 FOR UPDATE`,
			occurrenceID,
		))
		if base.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock occurrence: %w", err)
		}

		var hasRequest bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM session_requests WHERE occurrence_id = $1 AND user_id = $2)`,
			occurrenceID, userID,
		).Scan(&hasRequest)
		if err != nil {
			return fmt.Errorf("check pending request: %w", err)
		}
		if !hasRequest {
			return ErrNoSuchRequest
		}

		occurrences := []*model.SessionOccurrence{target}
		if target.SeriesID != nil {
			rows, err := tx.Query(ctx,
				`SELECT `+occurrenceColumns+` FROM session_occurrences
				 WHERE series_id = $1 ORDER BY start_time FOR UPDATE`,
				*target.SeriesID,
			)
			if err != nil {
				return fmt.Errorf("lock series occurrences: %w", err)
			}
			occurrences, err = scanOccurrences(rows)
			rows.Close()
			if err != nil {
				return err
			}
		}

		for _, occ := range occurrences {
			member, err := participantExistsTx(ctx, tx, occ.ID, userID)
			if err != nil {
				return err
			}
			if member {
				// Already joined this date; still clear any stray request.
				if _, err := tx.Exec(ctx,
					`DELETE FROM session_requests WHERE occurrence_id = $1 AND user_id = $2`,
					occ.ID, userID,
				); err != nil {
					return fmt.Errorf("delete request: %w", err)
				}
				continue
			}

			count, err := participantCountTx(ctx, tx, occ.ID)
			if err != nil {
				return err
			}
			if count >= occ.MaxAttendees {
				return fmt.Errorf("occurrence %s on %s: %w", occ.ID, occ.StartTime.Format("2006-01-02"), ErrSessionFull)
			}

			if _, err := tx.Exec(ctx,
				`DELETE FROM session_requests WHERE occurrence_id = $1 AND user_id = $2`,
				occ.ID, userID,
			); err != nil {
				return fmt.Errorf("delete request: %w", err)
			}
			if err := insertParticipantTx(ctx, tx, occ.ID, userID); err != nil {
				return err
			}
			if err := insertScheduleEntryTx(ctx, tx, model.EntryFromOccurrence(userID, occ)); err != nil {
				return err
			}
			accepted = append(accepted, occ.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Join request accepted",
		zap.String("occurrence_id", occurrenceID.String()),
		zap.String("user_id", userID),
		zap.Int("occurrences_joined", len(accepted)),
	)
	return accepted, nil
}

// RejectRequest removes a pending request from exactly one occurrence.
// Requests on sibling occurrences of the same series stay untouched.
func (r *SessionRepository) RejectRequest(ctx context.Context, occurrenceID uuid.UUID, userID string) error {
	affected, err := r.base.ExecAffected(ctx,
		`DELETE FROM session_requests WHERE occurrence_id = $1 AND user_id = $2`,
		occurrenceID, userID,
	)
	if err != nil {
		return fmt.Errorf("reject request: %w", err)
	}
	if affected == 0 {
		return ErrNoSuchRequest
	}
	return nil
}

// ListForUserBetween fetches the occurrences where the user is creator
// or participant with a start time inside [from, to), ordered by start
// time. Participant lists are attached; request queues are not.
func (r *SessionRepository) ListForUserBetween(ctx context.Context, userID string, from, to time.Time) ([]*model.SessionOccurrence, error) {
	query := `
		SELECT DISTINCT ` + occurrenceColumns + `
		FROM session_occurrences o
		WHERE (o.creator_id = $1
			OR EXISTS (SELECT 1 FROM session_participants p WHERE p.occurrence_id = o.id AND p.user_id = $1))
			AND o.start_time >= $2 AND o.start_time < $3
		ORDER BY start_time
	`

	rows, err := r.base.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list occurrences for user: %w", err)
	}
	defer rows.Close()

	occurrences, err := scanOccurrences(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachLists(ctx, occurrences, false); err != nil {
		return nil, err
	}
	return occurrences, nil
}

// attachLists loads participant (and optionally request) lists for the
// given occurrences in two bulk queries.
func (r *SessionRepository) attachLists(ctx context.Context, occurrences []*model.SessionOccurrence, withRequests bool) error {
	if len(occurrences) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*model.SessionOccurrence, len(occurrences))
	ids := make([]string, 0, len(occurrences))
	for _, occ := range occurrences {
		byID[occ.ID] = occ
		ids = append(ids, occ.ID.String())
	}

	rows, err := r.base.Query(ctx,
		`SELECT occurrence_id, user_id FROM session_participants WHERE occurrence_id = ANY($1::uuid[]) ORDER BY joined_at`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var occID uuid.UUID
		var userID string
		if err := rows.Scan(&occID, &userID); err != nil {
			return fmt.Errorf("scan participant: %w", err)
		}
		if occ := byID[occID]; occ != nil {
			occ.Participants = append(occ.Participants, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate participants: %w", err)
	}

	if !withRequests {
		return nil
	}

	reqRows, err := r.base.Query(ctx,
		`SELECT occurrence_id, user_id, display_name, avatar_url, requested_at
		 FROM session_requests WHERE occurrence_id = ANY($1::uuid[]) ORDER BY requested_at`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("load requests: %w", err)
	}
	defer reqRows.Close()

	for reqRows.Next() {
		var occID uuid.UUID
		var req model.JoinRequest
		if err := reqRows.Scan(&occID, &req.UserID, &req.DisplayName, &req.AvatarURL, &req.RequestedAt); err != nil {
			return fmt.Errorf("scan request: %w", err)
		}
		if occ := byID[occID]; occ != nil {
			occ.Requests = append(occ.Requests, req)
		}
	}
	if err := reqRows.Err(); err != nil {
		return fmt.Errorf("iterate requests: %w", err)
	}
	return nil
}

func scanOccurrence(row pgx.Row) (*model.SessionOccurrence, error) {
	occ := &model.SessionOccurrence{}
	err := row.Scan(
		&occ.ID,
		&occ.SeriesID,
		&occ.Title,
		&occ.Description,
		&occ.Category,
		&occ.CreatorID,
		&occ.CreatorName,
		&occ.StartTime,
		&occ.EndTime,
		&occ.IsOnline,
		&occ.MeetingLink,
		&occ.Location,
		&occ.MaxAttendees,
		&occ.GroupID,
		&occ.CreatedAt,
		&occ.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return occ, nil
}

func scanOccurrences(rows pgx.Rows) ([]*model.SessionOccurrence, error) {
	var occurrences []*model.SessionOccurrence
	for rows.Next() {
		occ, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		occurrences = append(occurrences, occ)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate occurrences: %w", err)
	}
	return occurrences, nil
}

func participantExistsTx(ctx context.Context, tx pgx.Tx, occurrenceID uuid.UUID, userID string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM session_participants WHERE occurrence_id = $1 AND user_id = $2)`,
		occurrenceID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return exists, nil
}

func participantCountTx(ctx context.Context, tx pgx.Tx, occurrenceID uuid.UUID) (int, error) {
	var count int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM session_participants WHERE occurrence_id = $1`,
		occurrenceID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return count, nil
}

func insertParticipantTx(ctx context.Context, tx pgx.Tx, occurrenceID uuid.UUID, userID string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO session_participants (occurrence_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		occurrenceID, userID,
	)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func insertScheduleEntryTx(ctx context.Context, tx pgx.Tx, entry *model.ScheduleEntry) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO schedule_entries (user_id, occurrence_id, series_id, title, category, start_time, end_time, is_online, location)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id, occurrence_id) DO NOTHING`,
		entry.UserID,
		entry.OccurrenceID,
		entry.SeriesID,
		entry.Title,
		entry.Category,
		entry.StartTime,
		entry.EndTime,
		entry.IsOnline,
		entry.Location,
	)
	if err != nil {
		return fmt.Errorf("insert schedule entry: %w", err)
	}
	return nil
}
