// @title        Workout Tracker API
// @version      1.0
// @description  Ownership-scoped workout logging and search.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/fitlog/workout-tracker/internal/api"
	"github.com/fitlog/workout-tracker/internal/api/handler"
	"github.com/fitlog/workout-tracker/internal/core/ports"
	"github.com/fitlog/workout-tracker/internal/core/service"
	"github.com/fitlog/workout-tracker/internal/infrastructure/db/memory"
	"github.com/fitlog/workout-tracker/internal/infrastructure/db/mongo"
	"github.com/fitlog/workout-tracker/internal/infrastructure/db/redis"
	"github.com/fitlog/workout-tracker/internal/infrastructure/oauth"
	"github.com/fitlog/workout-tracker/internal/infrastructure/queue"
	"github.com/fitlog/workout-tracker/internal/pkg/config"
	"github.com/fitlog/workout-tracker/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// stores groups the persistence adapters selected by STORE_DRIVER.
type stores struct {
	users       ports.UserRepository
	sessions    ports.SessionStore
	workouts    ports.WorkoutRepository
	idempotency ports.IdempotencyStore
	events      ports.EventRepository
	states      handler.StateStore
	checks      map[string]handler.DependencyCheck
	close       func(context.Context)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{})
		bootLog.Fatal().Err(err).Msg("could not load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "workout-tracker",
		Env:     cfg.Env,
	})

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("could not open stores")
	}

	// --- Change events ---
	var sink ports.EventSink
	var dispatcher *queue.Dispatcher
	if st.events != nil {
		dispatcher = queue.NewDispatcher(cfg.EventWorkers, st.events, log.With().Str("component", "events").Logger())
		// Workers outlive the signal context so Stop can drain them.
		dispatcher.Start(context.WithoutCancel(ctx))
		sink = dispatcher
	}

	identity := service.NewIdentityService(st.users, st.sessions, service.IdentityConfig{
		SessionSecret: cfg.Session.Secret,
		SessionTTL:    cfg.Session.TTL,
		StoreTimeout:  cfg.StoreTimeout,
	})
	workouts := service.NewWorkoutService(st.workouts, st.idempotency, sink, cfg.StoreTimeout)

	deps := api.Deps{
		Identity:     identity,
		Workouts:     workouts,
		Checks:       st.checks,
		CookieSecure: cfg.Session.CookieSecure || cfg.IsProduction(),
		Log:          log,
	}
	gh := oauth.GitHubConfig{
		ClientID:     cfg.GitHub.ClientID,
		ClientSecret: cfg.GitHub.ClientSecret,
		CallbackURL:  cfg.GitHub.CallbackURL,
	}
	if gh.Enabled() {
		deps.Provider = oauth.NewGitHub(gh)
		deps.States = st.states
		log.Info().Msg("github sign-in enabled")
	}

	e := api.NewRouter(deps)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("driver", cfg.StoreDriver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if dispatcher != nil {
		dispatcher.Stop()
	}
	st.close(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn().Msg("using in-memory stores; data is lost on restart")
		return &stores{
			users:    memory.NewUserRepository(),
			sessions: memory.NewSessionStore(cfg.Session.TTL),
			workouts: memory.NewWorkoutRepository(),
			states:   memory.NewStateStore(),
			checks:   map[string]handler.DependencyCheck{},
			close:    func(context.Context) {},
		}, nil
	}

	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:           cfg.Mongo.URI,
		Database:      cfg.Mongo.Database,
		MaxPoolSize:   cfg.Mongo.MaxPoolSize,
		SocketTimeout: cfg.Mongo.SocketTimeout,
	})
	if err != nil {
		return nil, err
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.StoreTimeout,
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	users := mongo.NewUserRepository(db)
	workouts := mongo.NewWorkoutRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return nil, closeAll(ctx, client, rdb, err)
	}
	if err := workouts.EnsureIndexes(ctx); err != nil {
		return nil, closeAll(ctx, client, rdb, err)
	}
	log.Info().Str("database", cfg.Mongo.Database).Str("redis", cfg.Redis.Addr).Msg("stores ready")

	return &stores{
		users:       users,
		sessions:    redis.NewSessionStore(rdb, cfg.Session.TTL),
		workouts:    workouts,
		idempotency: redis.NewIdempotencyStore(rdb),
		events:      mongo.NewEventRepository(db),
		states:      redis.NewStateStore(rdb),
		checks: map[string]handler.DependencyCheck{
			"mongodb": handler.MongoCheck(db),
			"redis":   handler.RedisCheck(rdb),
		},
		close: func(ctx context.Context) {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("redis close failed")
			}
			if err := client.Disconnect(ctx); err != nil {
				log.Error().Err(err).Msg("mongo disconnect failed")
			}
		},
	}, nil
}

func closeAll(ctx context.Context, client *mongodriver.Client, rdb *goredis.Client, err error) error {
	_ = rdb.Close()
	_ = client.Disconnect(ctx)
	return err
}
