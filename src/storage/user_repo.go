package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"outreach-hq/src/models"
)

// UserRepo keeps local user profiles in sync with the platform. Upserts
// must land before any row references the user id as a foreign key.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) UpsertUser(ctx context.Context, user models.User) error {
	_, err := db(ctx, r.pool).Exec(ctx, `
		INSERT INTO users (id, username, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
			updated_at = EXCLUDED.updated_at
	`, user.ID, user.Username, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
