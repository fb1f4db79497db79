package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/buts00/algo-rumble-service/internal/match"
)

// UserRepository exposes the user reads the match core depends on. Rating
// writes happen inside the match repository's completion transaction.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository wraps a pgx pool for user-specific operations.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID fetches a user by id.
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*match.User, error) {
	query := `
		SELECT id, username, rating, created_at
		FROM users
		WHERE id = $1
	`

	var u match.User
	err := r.pool.QueryRow(ctx, query, userID).Scan(&u.ID, &u.Username, &u.Rating, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, match.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetPair fetches both participants of a match in one round trip.
func (r *UserRepository) GetPair(ctx context.Context, id1, id2 uuid.UUID) (*match.User, *match.User, error) {
	query := `
		SELECT id, username, rating, created_at
		FROM users
		WHERE id = $1 OR id = $2
	`

	rows, err := r.pool.Query(ctx, query, id1, id2)
	if err != nil {
		return nil, nil, fmt.Errorf("get user pair: %w", err)
	}
	defer rows.Close()

	found := make(map[uuid.UUID]*match.User, 2)
	for rows.Next() {
		var u match.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Rating, &u.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan user: %w", err)
		}
		found[u.ID] = &u
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("get user pair: %w", err)
	}

	u1, u2 := found[id1], found[id2]
	if u1 == nil || u2 == nil {
		return nil, nil, match.ErrUserNotFound
	}
	return u1, u2, nil
}
