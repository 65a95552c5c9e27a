package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/OwlWorksInnovations/lumina-local-video-player/config"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/application/session"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/achievement"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/content"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/messaging"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/notification"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/persistence/memory"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/persistence/postgres"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/persistence/redis"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/persistence/sqlite"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/persistence/state"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/provider"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/interface/cli/presenter"
	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/circuitbreaker"
	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION WIRING
// ══════════════════════════════════════════════════════════════════════════════

// globalFlags are the persistent flags of the root command.
type globalFlags struct {
	configPath string
	profile    string
	library    string
	storage    string
}

// app holds everything a command needs. Close releases it in reverse order.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	sess      *session.Session
	committer *state.Committer
	bus       *messaging.InMemoryEventBus
	closers   []func() error
}

// bootstrap loads configuration, opens the store and hydrates a session.
// Toasts for unlocks are written to toasts when it is not nil.
func bootstrap(ctx context.Context, flags globalFlags, stderr, toasts io.Writer) (*app, error) {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.profile != "" {
		cfg.App.Profile = flags.profile
	}
	if flags.library != "" {
		cfg.Library.Path = flags.library
	}
	if flags.storage != "" {
		cfg.Storage.Driver = flags.storage
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output: stderr,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
		Format: cfg.Observability.LogFormat,
	})
	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, func() error {
		_ = log.Sync()
		return nil
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 3. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	store, publisher, err := a.openStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.committer = state.NewCommitter(store, state.Options{
		Namespace:     cfg.Storage.Namespace,
		Profile:       cfg.App.Profile,
		Policy:        state.WritePolicy(cfg.Storage.WritePolicy),
		RetryAttempts: cfg.Storage.RetryAttempts,
		Logger:        log,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 4. EVENTS & NOTIFICATIONS
	// ─────────────────────────────────────────────────────────────────────────
	a.bus = messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{Logger: log})
	a.bus.Use(messaging.RecoveryMiddleware(log))
	a.bus.Use(messaging.LoggingMiddleware(log))
	a.closers = append(a.closers, a.bus.Close)
	if publisher != nil {
		if err := messaging.Forward(a.bus, publisher); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	notifiers := notification.Multi{notification.NewLogNotifier(log)}
	if toasts != nil {
		notifiers = append(notifiers, notification.NewWriterNotifier(toasts, presenter.FormatToast))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. SESSION
	// ─────────────────────────────────────────────────────────────────────────
	a.sess = session.New(session.Config{
		Profile:  cfg.App.Profile,
		Location: cfg.App.Location,
	}, session.Deps{
		Persister: a.committer,
		Publisher: a.bus,
		Notifier:  notifiers,
		Logger:    log,
	})
	if err := a.sess.Load(ctx); err != nil {
		log.Warn("progress unavailable, changes will not be saved", logger.Err(err))
	}

	if cfg.Library.Path != "" {
		tree, err := content.LoadOrEmpty(ctx, a.provider(), cfg.Library.Path)
		if err != nil {
			log.Warn("library unavailable", logger.String("path", cfg.Library.Path), logger.Err(err))
		}
		a.sess.SetLibrary(tree)
	}

	return a, nil
}

func (a *app) provider() content.Provider {
	return provider.Auto{}
}

// openStore opens the configured backend. The returned publisher is non-nil
// when events should fan out beyond this process.
func (a *app) openStore(ctx context.Context) (state.Store, *redis.EventPublisher, error) {
	cfg := a.cfg.Storage
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store, nil, nil

	case config.DriverPostgres:
		conn, err := postgres.Connect(ctx, cfg.DatabaseURL, postgres.DefaultPoolOptions())
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() error {
			conn.Close()
			return nil
		})
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return nil, nil, err
		}
		return a.guard(postgres.NewStore(conn), "postgres"), nil, nil

	case config.DriverRedis:
		rcfg := redis.DefaultConfig()
		rcfg.Addr = cfg.RedisAddr
		rcfg.Password = cfg.RedisPassword
		rcfg.DB = cfg.RedisDB
		client, err := redis.NewClient(ctx, rcfg)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, client.Close)
		return a.guard(redis.NewStore(client), "redis"), redis.NewEventPublisher(client, cfg.RedisChannel), nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// guard puts a circuit breaker in front of a network store.
func (a *app) guard(store state.Store, name string) state.Store {
	return state.NewGuardedStore(store, name,
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			a.log.Warn("storage circuit changed",
				logger.String("backend", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		}),
	)
}

// lockedRules returns the rules not yet unlocked.
func (a *app) lockedRules() []achievement.Definition {
	unlocked := make(map[achievement.ID]bool)
	for _, d := range a.sess.Unlocked() {
		unlocked[d.ID] = true
	}
	var locked []achievement.Definition
	for _, d := range achievement.DefaultRules() {
		if !unlocked[d.ID] {
			locked = append(locked, d)
		}
	}
	return locked
}

// Close flushes deferred state and releases resources.
func (a *app) Close() error {
	var errs []error
	if a.sess != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
		errs = append(errs, a.sess.Flush(ctx))
		cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) shutdownTimeout() time.Duration {
	if a.cfg == nil || a.cfg.App.ShutdownTimeout <= 0 {
		return 10 * time.Second
	}
	return a.cfg.App.ShutdownTimeout
}
