package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/buts00/algo-rumble-service/internal/rating"
)

// MatchStore is the persistence surface of the state machine. Transition
// methods are compare-and-set on the expected prior status and return
// ErrWrongState when a competing transition won.
type MatchStore interface {
	CreatePending(ctx context.Context, m *Match) error
	GetByID(ctx context.Context, matchID uuid.UUID) (*Match, error)
	GetOpenByUser(ctx context.Context, userID uuid.UUID) (*Match, error)
	HasOpenMatch(ctx context.Context, userID uuid.UUID) (bool, error)
	SetAccepted(ctx context.Context, matchID, userID uuid.UUID) (*Match, error)
	Activate(ctx context.Context, matchID uuid.UUID, startTime time.Time) error
	Terminate(ctx context.Context, matchID uuid.UUID, status string, endTime time.Time) error
	CompleteWithRatings(ctx context.Context, matchID uuid.UUID, winnerID *uuid.UUID, snapshot RatingSnapshot, endTime time.Time) error
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Match, error)
	ListStale(ctx context.Context, status string, cutoff time.Time) ([]Match, error)
}

// UserStore reads the participants of a match.
type UserStore interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	GetPair(ctx context.Context, id1, id2 uuid.UUID) (*User, *User, error)
}

// ProblemStore selects the shared problem during pair formation.
type ProblemStore interface {
	ClosestUnplayed(ctx context.Context, player1ID, player2ID uuid.UUID, targetRating int) (*uuid.UUID, error)
}

// ServiceOptions configures the state-machine timers.
type ServiceOptions struct {
	AcceptTimeout time.Duration // default 30s
	DrawTimeout   time.Duration // default 45m
}

// Service is the per-match state machine: it owns every status transition,
// the two timers, acceptance accounting, and result finalization. All inputs
// are serialized per match through the Locker.
type Service struct {
	matches  MatchStore
	users    UserStore
	problems ProblemStore
	locker   Locker
	outbox   Outbox

	acceptTimeout time.Duration
	drawTimeout   time.Duration

	logger zerolog.Logger
}

// NewService creates a match service with all dependencies.
func NewService(
	matches MatchStore,
	users UserStore,
	problems ProblemStore,
	locker Locker,
	outbox Outbox,
	opts ServiceOptions,
	logger zerolog.Logger,
) *Service {
	if opts.AcceptTimeout <= 0 {
		opts.AcceptTimeout = 30 * time.Second
	}
	if opts.DrawTimeout <= 0 {
		opts.DrawTimeout = 45 * time.Minute
	}

	return &Service{
		matches:       matches,
		users:         users,
		problems:      problems,
		locker:        locker,
		outbox:        outbox,
		acceptTimeout: opts.AcceptTimeout,
		drawTimeout:   opts.DrawTimeout,
		logger:        logger,
	}
}

// AcceptTimeout exposes the acceptance window length.
func (s *Service) AcceptTimeout() time.Duration { return s.acceptTimeout }

// DrawTimeout exposes the draw deadline length.
func (s *Service) DrawTimeout() time.Duration { return s.drawTimeout }

// CreatePending pairs two players: selects the shared problem, persists the
// match in pending, notifies both sides and starts the acceptance timer.
// Callers (the matchmaker tick) have already verified both players are free.
func (s *Service) CreatePending(ctx context.Context, player1ID, player2ID uuid.UUID) (*Match, error) {
	player1, player2, err := s.users.GetPair(ctx, player1ID, player2ID)
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}

	target := (player1.Rating + player2.Rating) / 2
	problemID, err := s.problems.ClosestUnplayed(ctx, player1ID, player2ID, target)
	if err != nil {
		return nil, fmt.Errorf("select problem: %w", err)
	}
	if problemID == nil {
		s.logger.Warn().
			Str("player1_id", player1ID.String()).
			Str("player2_id", player2ID.String()).
			Msg("empty problem catalog, creating match without problem")
	}

	m := &Match{
		ID:        uuid.New(),
		ProblemID: problemID,
		Player1ID: player1ID,
		Player2ID: player2ID,
		Status:    StatusPending,
		StartTime: time.Now().UTC(),
	}
	if err := s.matches.CreatePending(ctx, m); err != nil {
		return nil, err
	}

	matchesCreated.Inc()
	s.logger.Info().
		Str("match_id", m.ID.String()).
		Str("player1_id", player1ID.String()).
		Str("player2_id", player2ID.String()).
		Str("problem_id", uuidString(problemID)).
		Msg("match created")

	timeoutSec := int(s.acceptTimeout / time.Second)
	s.outbox.MatchFound(player1ID, m.ID, player2.Username, problemID, timeoutSec)
	s.outbox.MatchFound(player2ID, m.ID, player1.Username, problemID, timeoutSec)

	s.scheduleAcceptanceTimeout(m.ID)
	return m, nil
}

// Accept records one side's acceptance. Duplicate accepts are idempotent and
// notify nobody. When both sides have accepted, the match turns active and
// the draw timer starts.
func (s *Service) Accept(ctx context.Context, matchID, userID uuid.UUID) (*Match, error) {
	unlock, err := s.locker.Lock(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("serialize accept: %w", err)
	}
	defer unlock()

	m, err := s.guardedMatch(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}
	if m.Status != StatusPending {
		return nil, ErrWrongState
	}

	alreadyAccepted := (m.Player1ID == userID && m.Player1Accepted) ||
		(m.Player2ID == userID && m.Player2Accepted)
	if alreadyAccepted {
		return m, nil
	}

	m, err = s.matches.SetAccepted(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}

	s.outbox.AcceptStatus(m.Player1ID, m.ID, m.Player1Accepted, m.Player2Accepted)
	s.outbox.AcceptStatus(m.Player2ID, m.ID, m.Player1Accepted, m.Player2Accepted)

	if !(m.Player1Accepted && m.Player2Accepted) {
		return m, nil
	}

	startTime := time.Now().UTC()
	if err := s.matches.Activate(ctx, matchID, startTime); err != nil {
		return nil, err
	}
	m.Status = StatusActive
	m.StartTime = startTime

	s.logger.Info().Str("match_id", m.ID.String()).Msg("match started")

	player1, player2, err := s.users.GetPair(ctx, m.Player1ID, m.Player2ID)
	if err != nil {
		s.logger.Error().Err(err).Str("match_id", m.ID.String()).Msg("load players for start notification")
	} else {
		s.outbox.MatchStarted(m.Player1ID, m.ID, player2.Username, m.ProblemID)
		s.outbox.MatchStarted(m.Player2ID, m.ID, player1.Username, m.ProblemID)
	}

	s.scheduleDrawTimeout(m.ID)
	return m, nil
}

// Decline cancels a pending match on behalf of one participant.
func (s *Service) Decline(ctx context.Context, matchID, userID uuid.UUID) (*Match, error) {
	unlock, err := s.locker.Lock(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("serialize decline: %w", err)
	}
	defer unlock()

	m, err := s.guardedMatch(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}
	if m.Status != StatusPending {
		return nil, ErrWrongState
	}

	endTime := time.Now().UTC()
	if err := s.matches.Terminate(ctx, matchID, StatusCancelled, endTime); err != nil {
		return nil, err
	}
	m.Status = StatusCancelled
	m.EndTime = &endTime

	s.logger.Info().
		Str("match_id", matchID.String()).
		Str("declined_by", userID.String()).
		Msg("match declined")

	decliner, err := s.users.GetByID(ctx, userID)
	reason := "Match was declined"
	if err == nil {
		reason = fmt.Sprintf("Match was declined by '%s'", decliner.Username)
	}
	s.outbox.MatchCancelled(m.Player1ID, m.ID, reason)
	s.outbox.MatchCancelled(m.Player2ID, m.ID, reason)

	return m, nil
}

// SubmitVerdict applies one judged submission to the state machine. A
// correct verdict finalizes the match with the submitter as winner; an
// incorrect one leaves the state untouched and tells only the submitter.
// A correct verdict arriving after the match completed with that same winner
// is an idempotent no-op.
func (s *Service) SubmitVerdict(ctx context.Context, matchID, userID uuid.UUID, correct bool) (*Match, error) {
	unlock, err := s.locker.Lock(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("serialize verdict: %w", err)
	}
	defer unlock()

	m, err := s.guardedMatch(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}

	if m.Status == StatusCompleted && correct && m.WinnerID != nil && *m.WinnerID == userID {
		return m, nil
	}
	if m.Status != StatusActive {
		return nil, ErrWrongState
	}

	if !correct {
		s.outbox.SubmissionResult(userID, m.ID, "Incorrect solution. Try again!")
		return m, nil
	}

	return s.finalizeWithWinner(ctx, m, userID, "solved the problem")
}

// Capitulate ends an active match with the surrendering side as loser.
func (s *Service) Capitulate(ctx context.Context, matchID, loserID uuid.UUID) (*Match, error) {
	unlock, err := s.locker.Lock(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("serialize capitulation: %w", err)
	}
	defer unlock()

	m, err := s.guardedMatch(ctx, matchID, loserID)
	if err != nil {
		return nil, err
	}
	if m.Status != StatusActive {
		return nil, ErrWrongState
	}

	return s.finalizeWithWinner(ctx, m, m.Opponent(loserID), "won by capitulation")
}

// finalizeWithWinner computes both new ratings and commits the completed
// transition plus the rating writes in one transaction, then notifies both
// sides. Caller holds the match lock and has verified the active state.
func (s *Service) finalizeWithWinner(ctx context.Context, m *Match, winnerID uuid.UUID, how string) (*Match, error) {
	player1, player2, err := s.users.GetPair(ctx, m.Player1ID, m.Player2ID)
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}

	var upd rating.Update
	var snapshot RatingSnapshot
	if winnerID == m.Player1ID {
		upd = rating.ForWin(player1.Rating, player2.Rating)
		snapshot = RatingSnapshot{
			Player1Old: upd.Player1Old, Player1New: upd.Player1New,
			Player2Old: upd.Player2Old, Player2New: upd.Player2New,
		}
	} else {
		upd = rating.ForWin(player2.Rating, player1.Rating)
		snapshot = RatingSnapshot{
			Player1Old: upd.Player2Old, Player1New: upd.Player2New,
			Player2Old: upd.Player1Old, Player2New: upd.Player1New,
		}
	}

	endTime := time.Now().UTC()
	if err := s.matches.CompleteWithRatings(ctx, m.ID, &winnerID, snapshot, endTime); err != nil {
		return nil, err
	}
	m.Status = StatusCompleted
	m.WinnerID = &winnerID
	m.EndTime = &endTime
	m.Player1OldRating, m.Player1NewRating = &snapshot.Player1Old, &snapshot.Player1New
	m.Player2OldRating, m.Player2NewRating = &snapshot.Player2Old, &snapshot.Player2New

	matchesCompleted.Inc()
	s.logger.Info().
		Str("match_id", m.ID.String()).
		Str("winner_id", winnerID.String()).
		Int("winner_new_rating", upd.Player1New).
		Int("loser_new_rating", upd.Player2New).
		Msg("match completed")

	winner, loser := player1, player2
	winnerSnap := [2]int{snapshot.Player1Old, snapshot.Player1New}
	loserSnap := [2]int{snapshot.Player2Old, snapshot.Player2New}
	if winnerID == m.Player2ID {
		winner, loser = player2, player1
		winnerSnap, loserSnap = [2]int{snapshot.Player2Old, snapshot.Player2New}, [2]int{snapshot.Player1Old, snapshot.Player1New}
	}

	s.outbox.MatchCompleted(winner.ID, m.ID, m.ProblemID, "win",
		fmt.Sprintf("Congratulations! You %s and won the match.", how),
		winnerSnap[0], winnerSnap[1])
	s.outbox.MatchCompleted(loser.ID, m.ID, m.ProblemID, "loss",
		fmt.Sprintf("Your opponent '%s' %s and won the match.", winner.Username, how),
		loserSnap[0], loserSnap[1])

	return m, nil
}

// HandleAcceptanceTimeout cancels a match still pending when the acceptance
// window closed. A no-op when a competing transition already happened.
func (s *Service) HandleAcceptanceTimeout(ctx context.Context, matchID uuid.UUID) error {
	unlock, err := s.locker.Lock(ctx, matchID)
	if err != nil {
		return fmt.Errorf("serialize acceptance timeout: %w", err)
	}
	defer unlock()

	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if m.Status != StatusPending {
		return nil
	}

	endTime := time.Now().UTC()
	if err := s.matches.Terminate(ctx, matchID, StatusCancelled, endTime); err != nil {
		if errors.Is(err, ErrWrongState) {
			return nil
		}
		return err
	}

	player1, player2, err := s.users.GetPair(ctx, m.Player1ID, m.Player2ID)
	if err != nil {
		s.logger.Error().Err(err).Str("match_id", matchID.String()).Msg("load players for timeout notification")
		return nil
	}

	s.logger.Info().Str("match_id", matchID.String()).Msg("match cancelled on acceptance timeout")

	s.outbox.MatchCancelled(m.Player1ID, m.ID, timeoutReason(m, player1, player2, m.Player1ID))
	s.outbox.MatchCancelled(m.Player2ID, m.ID, timeoutReason(m, player1, player2, m.Player2ID))
	return nil
}

// timeoutReason names the side(s) that failed to accept, from the
// perspective of the recipient.
func timeoutReason(m *Match, player1, player2 *User, recipientID uuid.UUID) string {
	recipientAccepted := m.Player1Accepted
	otherAccepted := m.Player2Accepted
	other := player2
	if recipientID == m.Player2ID {
		recipientAccepted, otherAccepted = m.Player2Accepted, m.Player1Accepted
		other = player1
	}

	switch {
	case !recipientAccepted && !otherAccepted:
		return "Neither player accepted in time"
	case !recipientAccepted:
		return "You did not accept in time"
	default:
		return fmt.Sprintf("User '%s' did not accept in time", other.Username)
	}
}

// HandleDrawTimeout completes a still-active match as a draw. A no-op when
// the match already finished.
func (s *Service) HandleDrawTimeout(ctx context.Context, matchID uuid.UUID) error {
	unlock, err := s.locker.Lock(ctx, matchID)
	if err != nil {
		return fmt.Errorf("serialize draw timeout: %w", err)
	}
	defer unlock()

	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if m.Status != StatusActive {
		return nil
	}

	player1, player2, err := s.users.GetPair(ctx, m.Player1ID, m.Player2ID)
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}

	upd := rating.ForDraw(player1.Rating, player2.Rating)
	snapshot := RatingSnapshot{
		Player1Old: upd.Player1Old, Player1New: upd.Player1New,
		Player2Old: upd.Player2Old, Player2New: upd.Player2New,
	}

	endTime := time.Now().UTC()
	if err := s.matches.CompleteWithRatings(ctx, matchID, nil, snapshot, endTime); err != nil {
		if errors.Is(err, ErrWrongState) {
			return nil
		}
		return err
	}

	matchesCompleted.Inc()
	s.logger.Info().Str("match_id", matchID.String()).Msg("match completed as draw")

	message := "Match ended in a draw. No one submitted a correct solution in time."
	s.outbox.MatchDraw(m.Player1ID, m.ID, message, snapshot.Player1Old, snapshot.Player1New)
	s.outbox.MatchDraw(m.Player2ID, m.ID, message, snapshot.Player2Old, snapshot.Player2New)
	return nil
}

// ActiveMatch returns the caller's single pending or active match.
func (s *Service) ActiveMatch(ctx context.Context, userID uuid.UUID) (*Match, *User, error) {
	m, err := s.matches.GetOpenByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	opponent, err := s.users.GetByID(ctx, m.Opponent(userID))
	if err != nil {
		return nil, nil, err
	}
	return m, opponent, nil
}

// History returns the caller's completed matches, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Match, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.matches.History(ctx, userID, limit, offset)
}

// Details returns one match to one of its participants.
func (s *Service) Details(ctx context.Context, matchID, userID uuid.UUID) (*Match, error) {
	return s.guardedMatch(ctx, matchID, userID)
}

// HasOpenMatch reports whether the user is in a pending or active match.
func (s *Service) HasOpenMatch(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.matches.HasOpenMatch(ctx, userID)
}

// guardedMatch loads a match and enforces the participant guard.
func (s *Service) guardedMatch(ctx context.Context, matchID, userID uuid.UUID) (*Match, error) {
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.HasPlayer(userID) {
		return nil, ErrNotParticipant
	}
	return m, nil
}

// scheduleAcceptanceTimeout arms the fire-and-forget acceptance timer. The
// handler re-reads state, so a timer surviving a competing transition is
// harmless; the sweeper covers timers lost to restarts.
func (s *Service) scheduleAcceptanceTimeout(matchID uuid.UUID) {
	time.AfterFunc(s.acceptTimeout, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.HandleAcceptanceTimeout(ctx, matchID); err != nil {
			s.logger.Error().Err(err).Str("match_id", matchID.String()).Msg("acceptance timeout handler failed")
		}
	})
}

func (s *Service) scheduleDrawTimeout(matchID uuid.UUID) {
	time.AfterFunc(s.drawTimeout, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.HandleDrawTimeout(ctx, matchID); err != nil {
			s.logger.Error().Err(err).Str("match_id", matchID.String()).Msg("draw timeout handler failed")
		}
	})
}
