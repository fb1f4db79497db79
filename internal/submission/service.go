package submission

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/buts00/algo-rumble-service/internal/db/repository"
	"github.com/buts00/algo-rumble-service/internal/judge"
	"github.com/buts00/algo-rumble-service/internal/match"
)

// Verdicter is the external judge surface reduced to one boolean.
type Verdicter interface {
	Verdict(ctx context.Context, source, language string) (bool, error)
}

// StateMachine is the slice of the match service the ingress feeds.
type StateMachine interface {
	Details(ctx context.Context, matchID, userID uuid.UUID) (*match.Match, error)
	SubmitVerdict(ctx context.Context, matchID, userID uuid.UUID, correct bool) (*match.Match, error)
}

// AuditLog persists the submission trail.
type AuditLog interface {
	Create(ctx context.Context, s *repository.Submission) error
	SetVerdict(ctx context.Context, submissionID uuid.UUID, verdict string) error
}

// Service is the verdict ingress: it accepts a participant's submission,
// obtains the boolean verdict from the judge, and reduces it to one state
// machine input. The judge round trip holds no match lock.
type Service struct {
	machine StateMachine
	judge   Verdicter
	audit   AuditLog
	logger  zerolog.Logger
}

// NewService creates the verdict ingress.
func NewService(machine StateMachine, judge Verdicter, audit AuditLog, logger zerolog.Logger) *Service {
	return &Service{
		machine: machine,
		judge:   judge,
		audit:   audit,
		logger:  logger,
	}
}

// Request carries one code submission.
type Request struct {
	MatchID  uuid.UUID
	UserID   uuid.UUID
	Code     string
	Language string
}

// Result reports the reduced outcome back to the submitter.
type Result struct {
	IsCorrect bool
	Message   string
}

// Process validates the submission, runs the judge, and forwards the verdict
// to the state machine. Pre-checks read the match without the lock; the
// authoritative guard is re-applied inside SubmitVerdict.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	if req.Code == "" {
		return nil, fmt.Errorf("%w: empty code", ErrInvalidSubmission)
	}
	if !judge.SupportedLanguage(req.Language) {
		return nil, fmt.Errorf("%w: %s", judge.ErrUnknownLanguage, req.Language)
	}

	m, err := s.machine.Details(ctx, req.MatchID, req.UserID)
	if err != nil {
		return nil, err
	}
	if m.Status != match.StatusActive {
		return nil, match.ErrWrongState
	}
	if m.ProblemID == nil {
		return nil, match.ErrWrongState
	}

	audit := &repository.Submission{
		ID:        uuid.New(),
		MatchID:   req.MatchID,
		UserID:    req.UserID,
		ProblemID: m.ProblemID,
		Language:  req.Language,
	}
	if err := s.audit.Create(ctx, audit); err != nil {
		s.logger.Warn().Err(err).Str("match_id", req.MatchID.String()).Msg("record submission failed")
	}

	correct, err := s.judge.Verdict(ctx, req.Code, req.Language)
	if err != nil {
		s.setVerdict(ctx, audit.ID, repository.VerdictError)
		return nil, fmt.Errorf("judge verdict: %w", err)
	}

	if correct {
		s.setVerdict(ctx, audit.ID, repository.VerdictCorrect)
	} else {
		s.setVerdict(ctx, audit.ID, repository.VerdictIncorrect)
	}

	// A correct verdict that loses the race to the opponent's surfaces as
	// ErrWrongState from the state machine's active guard.
	if _, err := s.machine.SubmitVerdict(ctx, req.MatchID, req.UserID, correct); err != nil {
		return nil, err
	}

	if correct {
		return &Result{IsCorrect: true, Message: "Solution correct, match completed"}, nil
	}
	return &Result{IsCorrect: false, Message: "Solution incorrect, match continues"}, nil
}

func (s *Service) setVerdict(ctx context.Context, submissionID uuid.UUID, verdict string) {
	if err := s.audit.SetVerdict(ctx, submissionID, verdict); err != nil {
		s.logger.Warn().Err(err).Str("submission_id", submissionID.String()).Msg("update submission verdict failed")
	}
}

// ErrInvalidSubmission marks malformed submission payloads.
var ErrInvalidSubmission = errors.New("invalid submission")
