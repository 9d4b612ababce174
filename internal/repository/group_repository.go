package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
)

// GroupRepository covers the slice of the platform's group feature this
// service needs: membership lookups for edit announcements and feed
// posts announcing session changes.
type GroupRepository struct {
	pool *pgxpool.Pool
}

func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// GetByID fetches a group. Returns nil when unknown.
func (r *GroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Group, error) {
	query := `SELECT id, name, owner_id, created_at FROM groups WHERE id = $1`

	var group model.Group
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.OwnerID,
		&group.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group by id: %w", err)
	}
	return &group, nil
}

// GetMemberIDs returns the user IDs of every group member.
func (r *GroupRepository) GetMemberIDs(ctx context.Context, groupID uuid.UUID) ([]string, error) {
	query := `SELECT user_id FROM group_members WHERE group_id = $1 ORDER BY joined_at`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("get group members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		members = append(members, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group members: %w", err)
	}
	return members, nil
}

// CreatePost appends a feed post to the group.
func (r *GroupRepository) CreatePost(ctx context.Context, post *model.GroupPost) error {
	query := `
		INSERT INTO group_posts (id, group_id, author_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		post.ID,
		post.GroupID,
		post.AuthorID,
		post.Content,
	).Scan(&post.CreatedAt)
	if err != nil {
		return fmt.Errorf("create group post: %w", err)
	}
	return nil
}
