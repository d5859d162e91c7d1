package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"smart-break-quiz/internal/app"
	"smart-break-quiz/internal/config"
	"smart-break-quiz/internal/infra/memory"
	pgstore "smart-break-quiz/internal/infra/postgres"
	redisstore "smart-break-quiz/internal/infra/redis"
	"smart-break-quiz/internal/infra/sqlite"
	"smart-break-quiz/internal/leaderboard"
	"smart-break-quiz/internal/logging"
	"smart-break-quiz/internal/metrics"
	"smart-break-quiz/internal/profile"
	"smart-break-quiz/internal/question"
	"smart-break-quiz/internal/session"
	transport "smart-break-quiz/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New("smart-break", cfg.Log.Level, cfg.Log.Format)
	ctx = logging.IntoContext(ctx, logger)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	deps, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	profiles := profile.NewService(deps.profiles, logger)
	board := leaderboard.NewService(deps.profiles, config.TTLDuration(cfg.Leaderboard.TTL, 10*time.Second))
	service := app.NewGameService(deps.sessions, profiles, question.NewGenerator(), board, app.Options{
		Session: sessionConfig(cfg.Session),
		Metrics: m,
		Logger:  logger,
	})

	handler := transport.NewRouter(transport.RouterConfig{
		API:            transport.NewAPIHandler(profiles, board, cfg.Leaderboard.Limit),
		WS:             transport.NewWSHandler(service),
		Gatherer:       reg,
		Logger:         logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Str("store", deps.name).Msg("starting game server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// deps holds the storage selected by configuration.
type deps struct {
	name     string
	profiles profile.Repository
	sessions app.SessionRepository
	closers  []func()
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// buildDeps picks the profile store: Postgres, then Redis, then SQLite, then memory.
// Sessions live in memory, with Redis liveness markers when Redis is configured.
func buildDeps(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*deps, error) {
	d := &deps{name: "memory", profiles: memory.NewProfileRepository(), sessions: memory.NewSessionStore()}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		d.closers = append(d.closers, func() { _ = redisClient.Close() })
		d.sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	}

	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrations(ctx, cfg.Postgres.URL, logger); err != nil {
			d.close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			d.close()
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		d.closers = append(d.closers, pool.Close)
		d.name = "postgres"
		d.profiles = pgstore.NewProfileRepository(pool)
	case redisClient != nil:
		d.name = "redis"
		d.profiles = redisstore.NewProfileRepository(redisClient)
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			d.close()
			return nil, err
		}
		d.closers = append(d.closers, func() { _ = store.Close() })
		d.name = "sqlite"
		d.profiles = sqlite.NewProfileRepository(store)
	}
	return d, nil
}

func sessionConfig(c config.Session) session.Config {
	return session.Config{
		QuestionBudget: c.QuestionSeconds,
		Tick:           config.TTLDuration(c.Tick, session.DefaultTick),
		RevealDelay:    config.TTLDuration(c.RevealDelay, session.DefaultRevealDelay),
	}
}
