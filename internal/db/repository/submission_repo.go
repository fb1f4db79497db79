package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Submission is the audit row recorded for every judged attempt.
type Submission struct {
	ID        uuid.UUID
	MatchID   uuid.UUID
	UserID    uuid.UUID
	ProblemID *uuid.UUID
	Language  string
	Verdict   string
	CreatedAt time.Time
}

// Submission verdict values.
const (
	VerdictQueued    = "queued"
	VerdictCorrect   = "correct"
	VerdictIncorrect = "incorrect"
	VerdictError     = "error"
)

// SubmissionRepository persists the judged-attempt audit trail.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository constructs a new submission repository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Create inserts the audit row before the judge round trip starts.
func (r *SubmissionRepository) Create(ctx context.Context, s *Submission) error {
	query := `
		INSERT INTO user_submissions (id, match_id, user_id, problem_id, language, verdict)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query, s.ID, s.MatchID, s.UserID, s.ProblemID, s.Language, VerdictQueued)
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// SetVerdict records the judge's decision on the audit row.
func (r *SubmissionRepository) SetVerdict(ctx context.Context, submissionID uuid.UUID, verdict string) error {
	query := `UPDATE user_submissions SET verdict = $2 WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, submissionID, verdict)
	if err != nil {
		return fmt.Errorf("set submission verdict: %w", err)
	}
	return nil
}

// ListByMatch returns a match's submissions, oldest first.
func (r *SubmissionRepository) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]Submission, error) {
	query := `
		SELECT id, match_id, user_id, problem_id, language, verdict, created_at
		FROM user_submissions
		WHERE match_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.MatchID, &s.UserID, &s.ProblemID, &s.Language, &s.Verdict, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}
