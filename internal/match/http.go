package match

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/buts00/algo-rumble-service/internal/auth"
	httperrors "github.com/buts00/algo-rumble-service/pkg/http/errors"
)

// QueueOps is the matchmaker surface driven by /match/find and
// /match/cancel_find.
type QueueOps interface {
	Enqueue(ctx context.Context, userID uuid.UUID, userRating int) (bool, error)
	Cancel(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Waker nudges the pair-formation loop after an enqueue.
type Waker interface {
	Wake()
}

// HTTPHandlers exposes the match core's REST surface.
type HTTPHandlers struct {
	service  *Service
	queue    QueueOps
	consumer Waker
	logger   zerolog.Logger
}

// NewHTTPHandlers wires the REST surface of the matchmaker and the state
// machine.
func NewHTTPHandlers(service *Service, queue QueueOps, consumer Waker, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service:  service,
		queue:    queue,
		consumer: consumer,
		logger:   logger,
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondDomainError maps state-machine sentinels onto the HTTP error
// envelope. Unknown errors are treated as transient dependency failures.
func (h *HTTPHandlers) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMatchNotFound), errors.Is(err, ErrUserNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, err.Error())
	case errors.Is(err, ErrNotParticipant):
		httperrors.RespondForbidden(w, httperrors.ErrCodeNotParticipant, err.Error())
	case errors.Is(err, ErrWrongState):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeWrongMatchState, err.Error())
	case errors.Is(err, ErrAlreadyInMatch):
		httperrors.RespondConflict(w, httperrors.ErrCodeAlreadyInMatch, err.Error())
	case errors.Is(err, ErrAlreadyQueued):
		httperrors.RespondConflict(w, httperrors.ErrCodeAlreadyQueued, err.Error())
	default:
		h.logger.Error().Err(err).Msg("match operation failed")
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Operation temporarily unavailable")
	}
}

type findMatchRequest struct {
	UserID string `json:"user_id"`
}

// Find adds the caller to the matchmaking queue.
// POST /match/find
func (h *HTTPHandlers) Find(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req findMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidArgument, "Invalid user ID format")
		return
	}
	if userID != principal.UserID {
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "You can only find matches for yourself")
		return
	}

	user, err := h.service.users.GetByID(r.Context(), userID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	busy, err := h.service.HasOpenMatch(r.Context(), userID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	if busy {
		h.respondDomainError(w, ErrAlreadyInMatch)
		return
	}

	added, err := h.queue.Enqueue(r.Context(), userID, user.Rating)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	if !added {
		h.respondDomainError(w, ErrAlreadyQueued)
		return
	}

	h.consumer.Wake()
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "queued",
		"message": "You have been added to the match queue",
	})
}

// CancelFind removes the caller from the matchmaking queue.
// POST /match/cancel_find
func (h *HTTPHandlers) CancelFind(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	removed, err := h.queue.Cancel(r.Context(), principal.UserID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	if removed {
		respondJSON(w, http.StatusOK, map[string]string{
			"status":  "cancelled",
			"message": "You have been removed from the match queue",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "not_found",
		"message": "You were not in the match queue",
	})
}

type acceptMatchRequest struct {
	MatchID string `json:"match_id"`
}

// Accept records the caller's acceptance of a pending match.
// POST /match/accept
func (h *HTTPHandlers) Accept(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req acceptMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	matchID, err := uuid.Parse(req.MatchID)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidMatchID, "Invalid match ID format")
		return
	}

	m, err := h.service.Accept(r.Context(), matchID, principal.UserID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":           "accepted",
		"match_id":         m.ID.String(),
		"match_status":     m.Status,
		"player1_accepted": m.Player1Accepted,
		"player2_accepted": m.Player2Accepted,
	})
}

// Decline cancels a pending match on behalf of the caller.
// POST /match/decline/{match_id}
func (h *HTTPHandlers) Decline(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	matchID, err := uuid.Parse(r.PathValue("match_id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidMatchID, "Invalid match ID format")
		return
	}

	m, err := h.service.Decline(r.Context(), matchID, principal.UserID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "declined",
		"match_id":     m.ID.String(),
		"match_status": m.Status,
	})
}

type capitulateRequest struct {
	MatchID string `json:"match_id"`
	LoserID string `json:"loser_id"`
}

// Capitulate surrenders an active match.
// POST /match/capitulate
func (h *HTTPHandlers) Capitulate(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req capitulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	matchID, err := uuid.Parse(req.MatchID)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidMatchID, "Invalid match ID format")
		return
	}
	loserID, err := uuid.Parse(req.LoserID)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidArgument, "Invalid loser ID format")
		return
	}
	if loserID != principal.UserID {
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "You can only capitulate for yourself")
		return
	}

	m, err := h.service.Capitulate(r.Context(), matchID, loserID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":   "Match capitulated successfully",
		"match_id":  m.ID.String(),
		"winner_id": m.WinnerID.String(),
	})
}

// Active returns the caller's current pending or active match.
// GET /match/active
func (h *HTTPHandlers) Active(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	m, opponent, err := h.service.ActiveMatch(r.Context(), principal.UserID)
	if errors.Is(err, ErrMatchNotFound) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "No active match")
		return
	}
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	accepted := m.Player1Accepted
	if m.Player2ID == principal.UserID {
		accepted = m.Player2Accepted
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"match_id": m.ID.String(),
		"status":   m.Status,
		"opponent": map[string]any{
			"id":       opponent.ID.String(),
			"username": opponent.Username,
			"rating":   opponent.Rating,
		},
		"problem_id":      uuidString(m.ProblemID),
		"start_time":      m.StartTime,
		"player_accepted": accepted,
	})
}

// History returns the caller's completed matches with pagination.
// GET /match/history?limit&offset
func (h *HTTPHandlers) History(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	matches, err := h.service.History(r.Context(), principal.UserID, limit, offset)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		out = append(out, matchView(&m))
	}
	respondJSON(w, http.StatusOK, map[string]any{"matches": out})
}

// Details returns one match to one of its participants.
// GET /match/details/{match_id}
func (h *HTTPHandlers) Details(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	matchID, err := uuid.Parse(r.PathValue("match_id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidMatchID, "Invalid match ID format")
		return
	}

	m, err := h.service.Details(r.Context(), matchID, principal.UserID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, matchView(m))
}

func matchView(m *Match) map[string]any {
	view := map[string]any{
		"match_id":         m.ID.String(),
		"status":           m.Status,
		"player1_id":       m.Player1ID.String(),
		"player2_id":       m.Player2ID.String(),
		"problem_id":       uuidString(m.ProblemID),
		"player1_accepted": m.Player1Accepted,
		"player2_accepted": m.Player2Accepted,
		"start_time":       m.StartTime,
	}
	if m.WinnerID != nil {
		view["winner_id"] = m.WinnerID.String()
	}
	if m.EndTime != nil {
		view["end_time"] = *m.EndTime
	}
	if m.Player1OldRating != nil {
		view["player1_old_rating"] = *m.Player1OldRating
		view["player1_new_rating"] = *m.Player1NewRating
		view["player2_old_rating"] = *m.Player2OldRating
		view["player2_new_rating"] = *m.Player2NewRating
	}
	return view
}
