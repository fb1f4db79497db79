package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/buts00/algo-rumble-service/internal/auth"
	authjwt "github.com/buts00/algo-rumble-service/internal/auth/jwt"
	"github.com/buts00/algo-rumble-service/internal/config"
	"github.com/buts00/algo-rumble-service/internal/db/repository"
	"github.com/buts00/algo-rumble-service/internal/judge"
	"github.com/buts00/algo-rumble-service/internal/logging"
	"github.com/buts00/algo-rumble-service/internal/match"
	matchqueue "github.com/buts00/algo-rumble-service/internal/match/queue"
	"github.com/buts00/algo-rumble-service/internal/server"
	"github.com/buts00/algo-rumble-service/internal/submission"
	ws "github.com/buts00/algo-rumble-service/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, queue store, HTTP server)
// and the background workers of the match core.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	consumer  *matchqueue.Consumer
	sweeper   *match.Sweeper
	bgCancels []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	userRepo := repository.NewUserRepository(pool)
	matchRepo := repository.NewMatchRepository(pool)
	problemRepo := repository.NewProblemRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)

	tokenManager := authjwt.NewManager(authjwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		Issuer: cfg.Name,
	})
	blocklist := auth.NewBlocklist(redisClient)
	authMiddleware := auth.Middleware(tokenManager, blocklist, logger)

	hub := ws.NewHub(logger)
	notifier := match.NewNotifier(hub, logger)
	locker := match.NewRedisLocker(redisClient, logger)

	matchSvc := match.NewService(
		matchRepo,
		userRepo,
		problemRepo,
		locker,
		notifier,
		match.ServiceOptions{
			AcceptTimeout: cfg.Matchmaking.AcceptTimeout,
			DrawTimeout:   cfg.Matchmaking.DrawTimeout,
		},
		logger,
	)

	queueMgr := matchqueue.NewManager(redisClient, cfg.Matchmaking.QueueEntryTTL, logger)
	consumer := matchqueue.NewConsumer(queueMgr, matchSvc, cfg.Matchmaking.TickInterval, logger)
	sweeper := match.NewSweeper(matchSvc, cfg.Matchmaking.SweepInterval, cfg.Matchmaking.PendingMaxAge, logger)

	judgeClient := judge.NewClient(judge.Config{
		BaseURL:      cfg.Judge.BaseURL,
		AuthToken:    cfg.Judge.AuthToken,
		PollInterval: cfg.Judge.PollInterval,
		Timeout:      cfg.Judge.Timeout,
	}, logger)
	submissionSvc := submission.NewService(matchSvc, judgeClient, submissionRepo, logger)

	matchHandlers := match.NewHTTPHandlers(matchSvc, queueMgr, consumer, logger)
	wsHandler := match.NewWSHandler(hub, logger)
	submissionHandlers := submission.NewHTTPHandlers(submissionSvc, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, authMiddleware, matchHandlers, wsHandler, submissionHandlers)

	return &Application{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		redis:     redisClient,
		http:      apiServer,
		consumer:  consumer,
		sweeper:   sweeper,
		bgCancels: make([]context.CancelFunc, 0, 2),
	}, nil
}

// Run starts the HTTP server and background workers, then waits for
// termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancelConsumer)
	go func() {
		if err := a.consumer.Run(consumerCtx); err != nil && err != context.Canceled {
			a.logger.Warn().Err(err).Msg("matchmaking consumer stopped")
		}
	}()

	sweeperCtx, cancelSweeper := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancelSweeper)
	go func() {
		if err := a.sweeper.Run(sweeperCtx); err != nil && err != context.Canceled {
			a.logger.Warn().Err(err).Msg("match sweeper stopped")
		}
	}()
}
