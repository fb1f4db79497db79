package match

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMatchStore struct {
	mock.Mock
}

func (m *mockMatchStore) CreatePending(ctx context.Context, mt *Match) error {
	return m.Called(ctx, mt).Error(0)
}

func (m *mockMatchStore) GetByID(ctx context.Context, matchID uuid.UUID) (*Match, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Match), args.Error(1)
}

func (m *mockMatchStore) GetOpenByUser(ctx context.Context, userID uuid.UUID) (*Match, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Match), args.Error(1)
}

func (m *mockMatchStore) HasOpenMatch(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockMatchStore) SetAccepted(ctx context.Context, matchID, userID uuid.UUID) (*Match, error) {
	args := m.Called(ctx, matchID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Match), args.Error(1)
}

func (m *mockMatchStore) Activate(ctx context.Context, matchID uuid.UUID, startTime time.Time) error {
	return m.Called(ctx, matchID, startTime).Error(0)
}

func (m *mockMatchStore) Terminate(ctx context.Context, matchID uuid.UUID, status string, endTime time.Time) error {
	return m.Called(ctx, matchID, status, endTime).Error(0)
}

func (m *mockMatchStore) CompleteWithRatings(ctx context.Context, matchID uuid.UUID, winnerID *uuid.UUID, snapshot RatingSnapshot, endTime time.Time) error {
	return m.Called(ctx, matchID, winnerID, snapshot, endTime).Error(0)
}

func (m *mockMatchStore) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Match, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Match), args.Error(1)
}

func (m *mockMatchStore) ListStale(ctx context.Context, status string, cutoff time.Time) ([]Match, error) {
	args := m.Called(ctx, status, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Match), args.Error(1)
}

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) GetByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockUserStore) GetPair(ctx context.Context, id1, id2 uuid.UUID) (*User, *User, error) {
	args := m.Called(ctx, id1, id2)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*User), args.Get(1).(*User), args.Error(2)
}

type mockProblemStore struct {
	mock.Mock
}

func (m *mockProblemStore) ClosestUnplayed(ctx context.Context, player1ID, player2ID uuid.UUID, targetRating int) (*uuid.UUID, error) {
	args := m.Called(ctx, player1ID, player2ID, targetRating)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uuid.UUID), args.Error(1)
}

type mockOutbox struct {
	mock.Mock
}

func (m *mockOutbox) MatchFound(userID, matchID uuid.UUID, opponentUsername string, problemID *uuid.UUID, timeoutSeconds int) {
	m.Called(userID, matchID, opponentUsername, problemID, timeoutSeconds)
}

func (m *mockOutbox) AcceptStatus(userID, matchID uuid.UUID, player1Accepted, player2Accepted bool) {
	m.Called(userID, matchID, player1Accepted, player2Accepted)
}

func (m *mockOutbox) MatchStarted(userID, matchID uuid.UUID, opponentUsername string, problemID *uuid.UUID) {
	m.Called(userID, matchID, opponentUsername, problemID)
}

func (m *mockOutbox) MatchCancelled(userID, matchID uuid.UUID, reason string) {
	m.Called(userID, matchID, reason)
}

func (m *mockOutbox) SubmissionResult(userID, matchID uuid.UUID, message string) {
	m.Called(userID, matchID, message)
}

func (m *mockOutbox) MatchCompleted(userID, matchID uuid.UUID, problemID *uuid.UUID, result, message string, oldRating, newRating int) {
	m.Called(userID, matchID, problemID, result, message, oldRating, newRating)
}

func (m *mockOutbox) MatchDraw(userID, matchID uuid.UUID, message string, oldRating, newRating int) {
	m.Called(userID, matchID, message, oldRating, newRating)
}

// noopLocker serializes nothing; unit tests run inputs one at a time.
type noopLocker struct{}

func (noopLocker) Lock(ctx context.Context, matchID uuid.UUID) (func(), error) {
	return func() {}, nil
}

type fixture struct {
	matches  *mockMatchStore
	users    *mockUserStore
	problems *mockProblemStore
	outbox   *mockOutbox
	service  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		matches:  new(mockMatchStore),
		users:    new(mockUserStore),
		problems: new(mockProblemStore),
		outbox:   new(mockOutbox),
	}
	f.service = NewService(f.matches, f.users, f.problems, noopLocker{}, f.outbox, ServiceOptions{}, zerolog.Nop())
	return f
}

func pendingMatch(p1, p2 uuid.UUID) *Match {
	return &Match{
		ID:        uuid.New(),
		Player1ID: p1,
		Player2ID: p2,
		Status:    StatusPending,
		StartTime: time.Now().UTC(),
	}
}

func activeMatch(p1, p2 uuid.UUID) *Match {
	m := pendingMatch(p1, p2)
	m.Status = StatusActive
	m.Player1Accepted = true
	m.Player2Accepted = true
	return m
}

func TestCreatePending(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	problemID := uuid.New()

	f.users.On("GetPair", mock.Anything, p1, p2).
		Return(&User{ID: p1, Username: "alice", Rating: 1000}, &User{ID: p2, Username: "bob", Rating: 1200}, nil)
	f.problems.On("ClosestUnplayed", mock.Anything, p1, p2, 1100).Return(&problemID, nil)
	f.matches.On("CreatePending", mock.Anything, mock.MatchedBy(func(m *Match) bool {
		return m.Player1ID == p1 && m.Player2ID == p2 && m.Status == StatusPending && *m.ProblemID == problemID
	})).Return(nil)
	f.outbox.On("MatchFound", p1, mock.Anything, "bob", &problemID, 30).Once()
	f.outbox.On("MatchFound", p2, mock.Anything, "alice", &problemID, 30).Once()

	m, err := f.service.CreatePending(context.Background(), p1, p2)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, m.Status)

	f.matches.AssertExpectations(t)
	f.outbox.AssertExpectations(t)
}

func TestCreatePending_EmptyCatalog(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()

	f.users.On("GetPair", mock.Anything, p1, p2).
		Return(&User{ID: p1, Username: "alice", Rating: 1000}, &User{ID: p2, Username: "bob", Rating: 1000}, nil)
	f.problems.On("ClosestUnplayed", mock.Anything, p1, p2, 1000).Return(nil, nil)
	f.matches.On("CreatePending", mock.Anything, mock.Anything).Return(nil)
	f.outbox.On("MatchFound", mock.Anything, mock.Anything, mock.Anything, (*uuid.UUID)(nil), 30).Twice()

	m, err := f.service.CreatePending(context.Background(), p1, p2)
	require.NoError(t, err)
	assert.Nil(t, m.ProblemID)
}

func TestAccept_FirstSide(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := pendingMatch(p1, p2)

	accepted := *m
	accepted.Player1Accepted = true

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.matches.On("SetAccepted", mock.Anything, m.ID, p1).Return(&accepted, nil)
	f.outbox.On("AcceptStatus", p1, m.ID, true, false).Once()
	f.outbox.On("AcceptStatus", p2, m.ID, true, false).Once()

	got, err := f.service.Accept(context.Background(), m.ID, p1)
	require.NoError(t, err)
	assert.True(t, got.Player1Accepted)
	assert.Equal(t, StatusPending, got.Status)

	f.matches.AssertNotCalled(t, "Activate", mock.Anything, mock.Anything, mock.Anything)
	f.outbox.AssertExpectations(t)
}

func TestAccept_SecondSideStartsMatch(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := pendingMatch(p1, p2)
	m.Player1Accepted = true

	both := *m
	both.Player2Accepted = true

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.matches.On("SetAccepted", mock.Anything, m.ID, p2).Return(&both, nil)
	f.matches.On("Activate", mock.Anything, m.ID, mock.Anything).Return(nil)
	f.users.On("GetPair", mock.Anything, p1, p2).
		Return(&User{ID: p1, Username: "alice"}, &User{ID: p2, Username: "bob"}, nil)
	f.outbox.On("AcceptStatus", p1, m.ID, true, true).Once()
	f.outbox.On("AcceptStatus", p2, m.ID, true, true).Once()
	f.outbox.On("MatchStarted", p1, m.ID, "bob", (*uuid.UUID)(nil)).Once()
	f.outbox.On("MatchStarted", p2, m.ID, "alice", (*uuid.UUID)(nil)).Once()

	got, err := f.service.Accept(context.Background(), m.ID, p2)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)

	f.matches.AssertExpectations(t)
	f.outbox.AssertExpectations(t)
}

func TestAccept_DuplicateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := pendingMatch(p1, p2)
	m.Player1Accepted = true

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)

	got, err := f.service.Accept(context.Background(), m.ID, p1)
	require.NoError(t, err)
	assert.True(t, got.Player1Accepted)

	// Duplicate accept must not re-notify.
	f.matches.AssertNotCalled(t, "SetAccepted", mock.Anything, mock.Anything, mock.Anything)
	f.outbox.AssertNotCalled(t, "AcceptStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAccept_WrongState(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := activeMatch(p1, p2)

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)

	_, err := f.service.Accept(context.Background(), m.ID, p1)
	assert.ErrorIs(t, err, ErrWrongState)
}

func TestAccept_NotParticipant(t *testing.T) {
	f := newFixture(t)
	m := pendingMatch(uuid.New(), uuid.New())

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)

	_, err := f.service.Accept(context.Background(), m.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestAccept_NotFound(t *testing.T) {
	f := newFixture(t)
	matchID := uuid.New()

	f.matches.On("GetByID", mock.Anything, matchID).Return(nil, ErrMatchNotFound)

	_, err := f.service.Accept(context.Background(), matchID, uuid.New())
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestDecline(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := pendingMatch(p1, p2)

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.matches.On("Terminate", mock.Anything, m.ID, StatusCancelled, mock.Anything).Return(nil)
	f.users.On("GetByID", mock.Anything, p2).Return(&User{ID: p2, Username: "bob"}, nil)
	f.outbox.On("MatchCancelled", p1, m.ID, "Match was declined by 'bob'").Once()
	f.outbox.On("MatchCancelled", p2, m.ID, "Match was declined by 'bob'").Once()

	got, err := f.service.Decline(context.Background(), m.ID, p2)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	require.NotNil(t, got.EndTime)

	f.outbox.AssertExpectations(t)
}

func TestSubmitVerdict_Incorrect(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := activeMatch(p1, p2)

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.outbox.On("SubmissionResult", p1, m.ID, mock.Anything).Once()

	got, err := f.service.SubmitVerdict(context.Background(), m.ID, p1, false)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)

	f.matches.AssertNotCalled(t, "CompleteWithRatings", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.outbox.AssertExpectations(t)
}

func TestSubmitVerdict_CorrectFinalizes(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := activeMatch(p1, p2)
	problemID := uuid.New()
	m.ProblemID = &problemID

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.users.On("GetPair", mock.Anything, p1, p2).
		Return(&User{ID: p1, Username: "alice", Rating: 1000}, &User{ID: p2, Username: "bob", Rating: 1200}, nil)

	expected := RatingSnapshot{Player1Old: 1000, Player1New: 1024, Player2Old: 1200, Player2New: 1192}
	f.matches.On("CompleteWithRatings", mock.Anything, m.ID, &p1, expected, mock.Anything).Return(nil)
	f.outbox.On("MatchCompleted", p1, m.ID, &problemID, "win", mock.Anything, 1000, 1024).Once()
	f.outbox.On("MatchCompleted", p2, m.ID, &problemID, "loss", mock.Anything, 1200, 1192).Once()

	got, err := f.service.SubmitVerdict(context.Background(), m.ID, p1, true)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, p1, *got.WinnerID)

	f.matches.AssertExpectations(t)
	f.outbox.AssertExpectations(t)
}

func TestSubmitVerdict_CorrectAsPlayer2(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := activeMatch(p1, p2)

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.users.On("GetPair", mock.Anything, p1, p2).
		Return(&User{ID: p1, Username: "alice", Rating: 1200}, &User{ID: p2, Username: "bob", Rating: 1000}, nil)

	// The snapshot stays in player1/player2 column order even when player2 won.
	expected := RatingSnapshot{Player1Old: 1200, Player1New: 1192, Player2Old: 1000, Player2New: 1024}
	f.matches.On("CompleteWithRatings", mock.Anything, m.ID, &p2, expected, mock.Anything).Return(nil)
	f.outbox.On("MatchCompleted", p2, m.ID, (*uuid.UUID)(nil), "win", mock.Anything, 1000, 1024).Once()
	f.outbox.On("MatchCompleted", p1, m.ID, (*uuid.UUID)(nil), "loss", mock.Anything, 1200, 1192).Once()

	_, err := f.service.SubmitVerdict(context.Background(), m.ID, p2, true)
	require.NoError(t, err)

	f.matches.AssertExpectations(t)
	f.outbox.AssertExpectations(t)
}

func TestSubmitVerdict_IdempotentAfterWin(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := activeMatch(p1, p2)
	m.Status = StatusCompleted
	m.WinnerID = &p1

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)

	got, err := f.service.SubmitVerdict(context.Background(), m.ID, p1, true)
	require.NoError(t, err)
	assert.Equal(t, p1, *got.WinnerID)

	f.matches.AssertNotCalled(t, "CompleteWithRatings", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitVerdict_ConflictWhenOpponentWon(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := activeMatch(p1, p2)
	m.Status = StatusCompleted
	m.WinnerID = &p2

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)

	_, err := f.service.SubmitVerdict(context.Background(), m.ID, p1, true)
	assert.ErrorIs(t, err, ErrWrongState)
}

func TestCapitulate(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := activeMatch(p1, p2)

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.users.On("GetPair", mock.Anything, p1, p2).
		Return(&User{ID: p1, Username: "alice", Rating: 1000}, &User{ID: p2, Username: "bob", Rating: 1000}, nil)

	expected := RatingSnapshot{Player1Old: 1000, Player1New: 984, Player2Old: 1000, Player2New: 1016}
	f.matches.On("CompleteWithRatings", mock.Anything, m.ID, &p2, expected, mock.Anything).Return(nil)
	f.outbox.On("MatchCompleted", p2, m.ID, (*uuid.UUID)(nil), "win", mock.Anything, 1000, 1016).Once()
	f.outbox.On("MatchCompleted", p1, m.ID, (*uuid.UUID)(nil), "loss", mock.Anything, 1000, 984).Once()

	got, err := f.service.Capitulate(context.Background(), m.ID, p1)
	require.NoError(t, err)
	assert.Equal(t, p2, *got.WinnerID)

	f.matches.AssertExpectations(t)
	f.outbox.AssertExpectations(t)
}

func TestCapitulate_PendingIsConflict(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := pendingMatch(p1, p2)

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)

	_, err := f.service.Capitulate(context.Background(), m.ID, p1)
	assert.ErrorIs(t, err, ErrWrongState)
}

func TestHandleAcceptanceTimeout_CancelsPending(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := pendingMatch(p1, p2)
	m.Player1Accepted = true

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.matches.On("Terminate", mock.Anything, m.ID, StatusCancelled, mock.Anything).Return(nil)
	f.users.On("GetPair", mock.Anything, p1, p2).
		Return(&User{ID: p1, Username: "alice"}, &User{ID: p2, Username: "bob"}, nil)
	f.outbox.On("MatchCancelled", p1, m.ID, "User 'bob' did not accept in time").Once()
	f.outbox.On("MatchCancelled", p2, m.ID, "You did not accept in time").Once()

	err := f.service.HandleAcceptanceTimeout(context.Background(), m.ID)
	require.NoError(t, err)

	f.outbox.AssertExpectations(t)
}

func TestHandleAcceptanceTimeout_NeitherAccepted(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := pendingMatch(p1, p2)

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.matches.On("Terminate", mock.Anything, m.ID, StatusCancelled, mock.Anything).Return(nil)
	f.users.On("GetPair", mock.Anything, p1, p2).
		Return(&User{ID: p1, Username: "alice"}, &User{ID: p2, Username: "bob"}, nil)
	f.outbox.On("MatchCancelled", p1, m.ID, "Neither player accepted in time").Once()
	f.outbox.On("MatchCancelled", p2, m.ID, "Neither player accepted in time").Once()

	require.NoError(t, f.service.HandleAcceptanceTimeout(context.Background(), m.ID))
	f.outbox.AssertExpectations(t)
}

func TestHandleAcceptanceTimeout_NoOpAfterStart(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := activeMatch(p1, p2)

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)

	require.NoError(t, f.service.HandleAcceptanceTimeout(context.Background(), m.ID))

	f.matches.AssertNotCalled(t, "Terminate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.outbox.AssertNotCalled(t, "MatchCancelled", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleDrawTimeout_CompletesDraw(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := activeMatch(p1, p2)

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.users.On("GetPair", mock.Anything, p1, p2).
		Return(&User{ID: p1, Username: "alice", Rating: 1000}, &User{ID: p2, Username: "bob", Rating: 1000}, nil)

	// Equal ratings: a draw moves nobody.
	expected := RatingSnapshot{Player1Old: 1000, Player1New: 1000, Player2Old: 1000, Player2New: 1000}
	f.matches.On("CompleteWithRatings", mock.Anything, m.ID, (*uuid.UUID)(nil), expected, mock.Anything).Return(nil)
	f.outbox.On("MatchDraw", p1, m.ID, mock.Anything, 1000, 1000).Once()
	f.outbox.On("MatchDraw", p2, m.ID, mock.Anything, 1000, 1000).Once()

	require.NoError(t, f.service.HandleDrawTimeout(context.Background(), m.ID))

	f.matches.AssertExpectations(t)
	f.outbox.AssertExpectations(t)
}

func TestHandleDrawTimeout_NoOpAfterCompletion(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := activeMatch(p1, p2)
	m.Status = StatusCompleted

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)

	require.NoError(t, f.service.HandleDrawTimeout(context.Background(), m.ID))

	f.matches.AssertNotCalled(t, "CompleteWithRatings", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDetails_ParticipantsOnly(t *testing.T) {
	f := newFixture(t)
	p1, p2 := uuid.New(), uuid.New()
	m := activeMatch(p1, p2)

	f.matches.On("GetByID", mock.Anything, m.ID).Return(m, nil)

	got, err := f.service.Details(context.Background(), m.ID, p1)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	_, err = f.service.Details(context.Background(), m.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestHistory_ClampsPagination(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	f.matches.On("History", mock.Anything, userID, 20, 0).Return([]Match{}, nil)

	_, err := f.service.History(context.Background(), userID, -5, -1)
	require.NoError(t, err)
	f.matches.AssertExpectations(t)
}
