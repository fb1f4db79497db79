package match

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/buts00/algo-rumble-service/pkg/http/ws"
)

// Outbox is the notification surface the state machine emits into. It is
// called only after the corresponding state change has been committed.
// Delivery is best-effort; implementations must never return the failure to
// the state machine.
type Outbox interface {
	MatchFound(userID, matchID uuid.UUID, opponentUsername string, problemID *uuid.UUID, timeoutSeconds int)
	AcceptStatus(userID, matchID uuid.UUID, player1Accepted, player2Accepted bool)
	MatchStarted(userID, matchID uuid.UUID, opponentUsername string, problemID *uuid.UUID)
	MatchCancelled(userID, matchID uuid.UUID, reason string)
	SubmissionResult(userID, matchID uuid.UUID, message string)
	MatchCompleted(userID, matchID uuid.UUID, problemID *uuid.UUID, result, message string, oldRating, newRating int)
	MatchDraw(userID, matchID uuid.UUID, message string, oldRating, newRating int)
}

// Notifier converts state-machine events into typed messages and pushes them
// through the presence registry.
type Notifier struct {
	hub    *ws.Hub
	logger zerolog.Logger
}

// NewNotifier creates the broker over a presence hub.
func NewNotifier(hub *ws.Hub, logger zerolog.Logger) *Notifier {
	return &Notifier{hub: hub, logger: logger}
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func (n *Notifier) send(userID uuid.UUID, event any) {
	if delivered := n.hub.SendToUser(userID, event); delivered == 0 {
		n.logger.Debug().Str("user_id", userID.String()).Msg("no live sinks for event")
	}
}

func (n *Notifier) MatchFound(userID, matchID uuid.UUID, opponentUsername string, problemID *uuid.UUID, timeoutSeconds int) {
	n.send(userID, ws.MatchFoundEvent{
		Status:           ws.StatusMatchFound,
		MatchID:          matchID.String(),
		OpponentUsername: opponentUsername,
		ProblemID:        uuidString(problemID),
		TimeoutSeconds:   timeoutSeconds,
	})
}

func (n *Notifier) AcceptStatus(userID, matchID uuid.UUID, player1Accepted, player2Accepted bool) {
	n.send(userID, ws.AcceptStatusEvent{
		Status:          ws.StatusAcceptStatus,
		MatchID:         matchID.String(),
		Player1Accepted: player1Accepted,
		Player2Accepted: player2Accepted,
	})
}

func (n *Notifier) MatchStarted(userID, matchID uuid.UUID, opponentUsername string, problemID *uuid.UUID) {
	n.send(userID, ws.MatchStartedEvent{
		Status:           ws.StatusMatchStarted,
		MatchID:          matchID.String(),
		OpponentUsername: opponentUsername,
		ProblemID:        uuidString(problemID),
	})
}

func (n *Notifier) MatchCancelled(userID, matchID uuid.UUID, reason string) {
	n.send(userID, ws.MatchCancelledEvent{
		Status:  ws.StatusMatchCancelled,
		MatchID: matchID.String(),
		Reason:  reason,
	})
}

func (n *Notifier) SubmissionResult(userID, matchID uuid.UUID, message string) {
	n.send(userID, ws.SubmissionResultEvent{
		Status:    ws.StatusSubmissionResult,
		MatchID:   matchID.String(),
		IsCorrect: false,
		Message:   message,
	})
}

func (n *Notifier) MatchCompleted(userID, matchID uuid.UUID, problemID *uuid.UUID, result, message string, oldRating, newRating int) {
	n.send(userID, ws.MatchCompletedEvent{
		Status:    ws.StatusMatchCompleted,
		MatchID:   matchID.String(),
		ProblemID: uuidString(problemID),
		Result:    result,
		Message:   message,
		OldRating: oldRating,
		NewRating: newRating,
	})
}

func (n *Notifier) MatchDraw(userID, matchID uuid.UUID, message string, oldRating, newRating int) {
	n.send(userID, ws.MatchDrawEvent{
		Status:    ws.StatusMatchDraw,
		MatchID:   matchID.String(),
		Message:   message,
		OldRating: oldRating,
		NewRating: newRating,
	})
}
