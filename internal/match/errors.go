package match

import "errors"

var (
	// ErrMatchNotFound is returned when the match id resolves to nothing.
	ErrMatchNotFound = errors.New("match not found")
	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrProblemNotFound is returned when the problem id resolves to nothing.
	ErrProblemNotFound = errors.New("problem not found")
	// ErrNotParticipant is returned when the caller is not one of the two players.
	ErrNotParticipant = errors.New("not a participant in this match")
	// ErrWrongState is returned when the requested input is not valid in the
	// match's current state.
	ErrWrongState = errors.New("match is not in the required state")
	// ErrAlreadyInMatch is returned when a user with a pending or active
	// match tries to enter the queue.
	ErrAlreadyInMatch = errors.New("user already has a pending or active match")
	// ErrAlreadyQueued is returned when the queue uniqueness marker exists.
	ErrAlreadyQueued = errors.New("user is already in the matchmaking queue")
)
