package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
)

// ScheduleEntryRepository reads the per-user denormalized schedule
// snapshots. Writes happen inside SessionRepository transactions so
// enrollment and entry creation cannot diverge.
type ScheduleEntryRepository struct {
	pool *pgxpool.Pool
}

func NewScheduleEntryRepository(pool *pgxpool.Pool) *ScheduleEntryRepository {
	return &ScheduleEntryRepository{pool: pool}
}

// ListForUserBetween returns the user's entries with a start time in
// [from, to), ordered by start time.
func (r *ScheduleEntryRepository) ListForUserBetween(ctx context.Context, userID string, from, to time.Time) ([]*model.ScheduleEntry, error) {
	query := `
		SELECT id, user_id, occurrence_id, series_id, title, category, start_time, end_time, is_online, location, created_at
		FROM schedule_entries
		WHERE user_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time
	`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.ScheduleEntry
	for rows.Next() {
		entry := &model.ScheduleEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.OccurrenceID,
			&entry.SeriesID,
			&entry.Title,
			&entry.Category,
			&entry.StartTime,
			&entry.EndTime,
			&entry.IsOnline,
			&entry.Location,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule entries: %w", err)
	}
	return entries, nil
}

// CountForUser returns how many entries the user has in total.
func (r *ScheduleEntryRepository) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM schedule_entries WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count schedule entries: %w", err)
	}
	return count, nil
}
