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

// ProblemRepository serves the problem-selection queries of pair formation.
type ProblemRepository struct {
	pool *pgxpool.Pool
}

// NewProblemRepository constructs a new problem repository.
func NewProblemRepository(pool *pgxpool.Pool) *ProblemRepository {
	return &ProblemRepository{pool: pool}
}

// ClosestUnplayed picks the problem nearest targetRating that neither player
// has met in a completed match, ties broken by lowest id. When both players
// have exhausted the catalog it falls back to the closest overall. Returns
// nil only when the catalog is empty.
func (r *ProblemRepository) ClosestUnplayed(ctx context.Context, player1ID, player2ID uuid.UUID, targetRating int) (*uuid.UUID, error) {
	query := `
		SELECT id
		FROM problems
		WHERE id NOT IN (
			SELECT problem_id FROM matches
			WHERE problem_id IS NOT NULL
			  AND status = 'completed'
			  AND (player1_id IN ($1, $2) OR player2_id IN ($1, $2))
		)
		ORDER BY abs(rating - $3), id
		LIMIT 1
	`

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query, player1ID, player2ID, targetRating).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.closestAny(ctx, targetRating)
	}
	if err != nil {
		return nil, fmt.Errorf("select problem: %w", err)
	}
	return &id, nil
}

func (r *ProblemRepository) closestAny(ctx context.Context, targetRating int) (*uuid.UUID, error) {
	query := `
		SELECT id
		FROM problems
		ORDER BY abs(rating - $1), id
		LIMIT 1
	`

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query, targetRating).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		// Empty catalog. The match is still created; submissions will be
		// rejected until problems exist.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select fallback problem: %w", err)
	}
	return &id, nil
}

// GetByID fetches a catalog entry.
func (r *ProblemRepository) GetByID(ctx context.Context, problemID uuid.UUID) (*match.Problem, error) {
	query := `SELECT id, rating, created_at FROM problems WHERE id = $1`

	var p match.Problem
	err := r.pool.QueryRow(ctx, query, problemID).Scan(&p.ID, &p.Rating, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, match.ErrProblemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get problem: %w", err)
	}
	return &p, nil
}
