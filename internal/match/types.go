package match

import (
	"time"

	"github.com/google/uuid"
)

// Match lifecycle states.
const (
	StatusCreated   = "created"
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusDeclined  = "declined"
	StatusCancelled = "cancelled"
)

// TerminalStatus reports whether a state admits no further transitions.
func TerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusDeclined, StatusCancelled:
		return true
	}
	return false
}

// Match is one 1v1 exchange over a single problem. The player1/player2
// ordering is fixed at pairing time and every per-side column refers to it.
type Match struct {
	ID               uuid.UUID
	ProblemID        *uuid.UUID
	Player1ID        uuid.UUID
	Player2ID        uuid.UUID
	WinnerID         *uuid.UUID
	Status           string
	Player1Accepted  bool
	Player2Accepted  bool
	Player1OldRating *int
	Player1NewRating *int
	Player2OldRating *int
	Player2NewRating *int
	StartTime        time.Time
	EndTime          *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasPlayer reports whether the user is one of the two participants.
func (m *Match) HasPlayer(userID uuid.UUID) bool {
	return m.Player1ID == userID || m.Player2ID == userID
}

// Opponent returns the other side of the match for a participant.
func (m *Match) Opponent(userID uuid.UUID) uuid.UUID {
	if m.Player1ID == userID {
		return m.Player2ID
	}
	return m.Player1ID
}

// User is the projection of an account the match core touches. rating is the
// only attribute the core ever mutates.
type User struct {
	ID        uuid.UUID
	Username  string
	Rating    int
	CreatedAt time.Time
}

// Problem is the catalog entry a match is played over.
type Problem struct {
	ID        uuid.UUID
	Rating    int
	CreatedAt time.Time
}

// RatingSnapshot carries the four per-side rating columns written atomically
// with the completed transition.
type RatingSnapshot struct {
	Player1Old int
	Player1New int
	Player2Old int
	Player2New int
}
