package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/buts00/algo-rumble-service/internal/match"
)

const matchColumns = `
	id, problem_id, player1_id, player2_id, winner_id, status,
	player1_accepted, player2_accepted,
	player1_old_rating, player1_new_rating, player2_old_rating, player2_new_rating,
	start_time, end_time, created_at, updated_at
`

// MatchRepository contains the DB operations behind the match state machine.
// Every status transition is guarded by the expected prior status in the
// WHERE clause, so a competing transition turns the write into a no-op.
type MatchRepository struct {
	pool *pgxpool.Pool
}

// NewMatchRepository constructs a new match repository.
func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{pool: pool}
}

func scanMatch(row pgx.Row) (*match.Match, error) {
	var m match.Match
	err := row.Scan(
		&m.ID, &m.ProblemID, &m.Player1ID, &m.Player2ID, &m.WinnerID, &m.Status,
		&m.Player1Accepted, &m.Player2Accepted,
		&m.Player1OldRating, &m.Player1NewRating, &m.Player2OldRating, &m.Player2NewRating,
		&m.StartTime, &m.EndTime, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, match.ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan match: %w", err)
	}
	return &m, nil
}

// CreatePending inserts a new match row in the pending state.
func (r *MatchRepository) CreatePending(ctx context.Context, m *match.Match) error {
	query := `
		INSERT INTO matches (id, problem_id, player1_id, player2_id, status, start_time)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.ProblemID, m.Player1ID, m.Player2ID, match.StatusPending, m.StartTime)
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

// GetByID fetches a match by id.
func (r *MatchRepository) GetByID(ctx context.Context, matchID uuid.UUID) (*match.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return scanMatch(r.pool.QueryRow(ctx, query, matchID))
}

// GetOpenByUser returns the user's single pending or active match, if any.
func (r *MatchRepository) GetOpenByUser(ctx context.Context, userID uuid.UUID) (*match.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE (player1_id = $1 OR player2_id = $1)
		  AND status IN ('pending', 'active')
		LIMIT 1
	`
	return scanMatch(r.pool.QueryRow(ctx, query, userID))
}

// HasOpenMatch reports whether the user has a pending or active match.
func (r *MatchRepository) HasOpenMatch(ctx context.Context, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM matches
			WHERE (player1_id = $1 OR player2_id = $1)
			  AND status IN ('pending', 'active')
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check open match: %w", err)
	}
	return exists, nil
}

// SetAccepted records one side's acceptance while the match is still pending
// and returns the updated row. ErrWrongState if the pending guard failed.
func (r *MatchRepository) SetAccepted(ctx context.Context, matchID, userID uuid.UUID) (*match.Match, error) {
	query := `
		UPDATE matches
		SET player1_accepted = player1_accepted OR (player1_id = $2),
		    player2_accepted = player2_accepted OR (player2_id = $2),
		    updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + matchColumns

	m, err := scanMatch(r.pool.QueryRow(ctx, query, matchID, userID))
	if errors.Is(err, match.ErrMatchNotFound) {
		return nil, match.ErrWrongState
	}
	return m, err
}

// Activate transitions pending -> active and restarts the clock the draw
// timer measures from. ErrWrongState if a competing transition won.
func (r *MatchRepository) Activate(ctx context.Context, matchID uuid.UUID, startTime time.Time) error {
	query := `
		UPDATE matches
		SET status = 'active', start_time = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.pool.Exec(ctx, query, matchID, startTime)
	if err != nil {
		return fmt.Errorf("activate match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return match.ErrWrongState
	}
	return nil
}

// Terminate moves a pending match to a terminal non-completed status
// (cancelled or declined) and stamps end_time. ErrWrongState if the match
// already left pending.
func (r *MatchRepository) Terminate(ctx context.Context, matchID uuid.UUID, status string, endTime time.Time) error {
	query := `
		UPDATE matches
		SET status = $2, end_time = $3, updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.pool.Exec(ctx, query, matchID, status, endTime)
	if err != nil {
		return fmt.Errorf("terminate match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return match.ErrWrongState
	}
	return nil
}

// CompleteWithRatings finishes an active match and applies both players' new
// ratings in one transaction. winnerID is nil for draws. The active guard
// makes concurrent correct submissions race to exactly one winner; the loser
// of the race gets ErrWrongState.
func (r *MatchRepository) CompleteWithRatings(
	ctx context.Context,
	matchID uuid.UUID,
	winnerID *uuid.UUID,
	snapshot match.RatingSnapshot,
	endTime time.Time,
) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin completion tx: %w", err)
	}
	defer tx.Rollback(ctx)

	updateMatch := `
		UPDATE matches
		SET status = 'completed', winner_id = $2, end_time = $3,
		    player1_old_rating = $4, player1_new_rating = $5,
		    player2_old_rating = $6, player2_new_rating = $7,
		    updated_at = now()
		WHERE id = $1 AND status = 'active'
		RETURNING player1_id, player2_id
	`

	var player1ID, player2ID uuid.UUID
	err = tx.QueryRow(ctx, updateMatch, matchID, winnerID, endTime,
		snapshot.Player1Old, snapshot.Player1New,
		snapshot.Player2Old, snapshot.Player2New,
	).Scan(&player1ID, &player2ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return match.ErrWrongState
	}
	if err != nil {
		return fmt.Errorf("complete match: %w", err)
	}

	updateRating := `UPDATE users SET rating = $2 WHERE id = $1`
	if _, err := tx.Exec(ctx, updateRating, player1ID, snapshot.Player1New); err != nil {
		return fmt.Errorf("update player1 rating: %w", err)
	}
	if _, err := tx.Exec(ctx, updateRating, player2ID, snapshot.Player2New); err != nil {
		return fmt.Errorf("update player2 rating: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit completion tx: %w", err)
	}
	return nil
}

// History returns the user's completed matches, most recent first.
func (r *MatchRepository) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]match.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE (player1_id = $1 OR player2_id = $1)
		  AND status = 'completed'
		ORDER BY end_time DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("match history: %w", err)
	}
	defer rows.Close()

	var matches []match.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("match history: %w", err)
	}
	return matches, nil
}

// ListStale returns matches stuck in the given status since before cutoff,
// oldest first. Used by the sweeper to reconcile timers lost to restarts.
func (r *MatchRepository) ListStale(ctx context.Context, status string, cutoff time.Time) ([]match.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = $1 AND start_time < $2
		ORDER BY start_time
	`

	rows, err := r.pool.Query(ctx, query, status, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale matches: %w", err)
	}
	defer rows.Close()

	var matches []match.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stale matches: %w", err)
	}
	return matches, nil
}
