package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/buts00/algo-rumble-service/internal/config"
	"github.com/buts00/algo-rumble-service/internal/match"
	"github.com/buts00/algo-rumble-service/internal/submission"
	httperrors "github.com/buts00/algo-rumble-service/pkg/http/errors"
)

// NewHTTPServer wires the match, submission and WebSocket routes plus the
// base health/metrics endpoints.
func NewHTTPServer(
	cfg *config.App,
	logger zerolog.Logger,
	pool *pgxpool.Pool,
	redisClient *redis.Client,
	authMiddleware func(http.Handler) http.Handler,
	matchHandlers *match.HTTPHandlers,
	wsHandler *match.WSHandler,
	submissionHandlers *submission.HTTPHandlers,
) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, redisClient); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "Upstream error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	// Matchmaking + match lifecycle
	mux.HandleFunc("POST /match/find", matchHandlers.Find)
	mux.HandleFunc("POST /match/cancel_find", matchHandlers.CancelFind)
	mux.HandleFunc("POST /match/accept", matchHandlers.Accept)
	mux.HandleFunc("POST /match/decline/{match_id}", matchHandlers.Decline)
	mux.HandleFunc("POST /match/capitulate", matchHandlers.Capitulate)
	mux.HandleFunc("GET /match/active", matchHandlers.Active)
	mux.HandleFunc("GET /match/history", matchHandlers.History)
	mux.HandleFunc("GET /match/details/{match_id}", matchHandlers.Details)

	// Real-time notifications
	mux.HandleFunc("GET /match/ws/{user_id}", wsHandler.HandleWebSocket)

	// Verdict ingress
	mux.HandleFunc("POST /submissions/match", submissionHandlers.Submit)

	handler := authMiddleware(mux)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redisClient *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}
