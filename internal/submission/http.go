package submission

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/buts00/algo-rumble-service/internal/auth"
	"github.com/buts00/algo-rumble-service/internal/judge"
	"github.com/buts00/algo-rumble-service/internal/match"
	httperrors "github.com/buts00/algo-rumble-service/pkg/http/errors"
)

// HTTPHandlers exposes the verdict ingress over REST.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates the submission HTTP surface.
func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{service: service, logger: logger}
}

type submitRequest struct {
	MatchID  string `json:"match_id"`
	UserID   string `json:"user_id"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Submit accepts a participant's solution and forwards the judge's verdict
// to the match state machine.
// POST /submissions/match
func (h *HTTPHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	matchID, err := uuid.Parse(req.MatchID)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidMatchID, "Invalid match ID format")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidArgument, "Invalid user ID format")
		return
	}
	if userID != principal.UserID {
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "You can only submit for yourself")
		return
	}

	result, err := h.service.Process(r.Context(), Request{
		MatchID:  matchID,
		UserID:   userID,
		Code:     req.Code,
		Language: req.Language,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"is_correct": result.IsCorrect,
		"message":    result.Message,
	})
}

func (h *HTTPHandlers) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidSubmission):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, err.Error())
	case errors.Is(err, judge.ErrUnknownLanguage):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeUnknownLanguage, err.Error())
	case errors.Is(err, match.ErrMatchNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, err.Error())
	case errors.Is(err, match.ErrNotParticipant):
		httperrors.RespondForbidden(w, httperrors.ErrCodeNotParticipant, err.Error())
	case errors.Is(err, match.ErrWrongState):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeWrongMatchState, err.Error())
	default:
		h.logger.Error().Err(err).Msg("submission processing failed")
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeUpstreamError, "Submission could not be judged")
	}
}
