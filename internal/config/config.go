package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"algo-rumble"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres    Postgres
	Redis       Redis
	Security    Security
	Matchmaking Matchmaking
	Judge       Judge
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds queue store + blocklist configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for token validation.
type Security struct {
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
}

// Matchmaking groups the queue and match lifecycle knobs.
type Matchmaking struct {
	AcceptTimeout  time.Duration `env:"MATCH_ACCEPT_TIMEOUT" envDefault:"30s"`
	DrawTimeout    time.Duration `env:"MATCH_DRAW_TIMEOUT" envDefault:"45m"`
	SweepInterval  time.Duration `env:"MATCH_SWEEP_INTERVAL" envDefault:"1m"`
	PendingMaxAge  time.Duration `env:"MATCH_PENDING_MAX_AGE" envDefault:"5m"`
	QueueEntryTTL  time.Duration `env:"QUEUE_ENTRY_TTL" envDefault:"1h"`
	TickInterval   time.Duration `env:"QUEUE_TICK_INTERVAL" envDefault:"1s"`
}

// Judge configures the external code-execution collaborator.
type Judge struct {
	BaseURL      string        `env:"JUDGE_URL,notEmpty"`
	AuthToken    string        `env:"JUDGE_AUTH_TOKEN"`
	PollInterval time.Duration `env:"JUDGE_POLL_INTERVAL" envDefault:"500ms"`
	Timeout      time.Duration `env:"JUDGE_TIMEOUT" envDefault:"30s"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
