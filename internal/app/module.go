// Package app composes the TUI client out of its parts: config, logger, bus,
// REST client, store, history cache, transports and the reconciliation
// engine. clipctl stays out of it: one-shot commands wire the few pieces they
// need by hand and skip the cache lock.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"clipsync/internal/api"
	"clipsync/internal/bus"
	"clipsync/internal/config"
	"clipsync/internal/engine"
	"clipsync/internal/history"
	"clipsync/internal/lock"
	"clipsync/internal/logging"
	"clipsync/internal/paths"
	"clipsync/internal/status"
	"clipsync/internal/store"
	"clipsync/internal/transport"
)

// Params holds per-binary settings passed to the fx module.
type Params struct {
	Program    string // names the log file
	FileOnly   bool   // true when the terminal belongs to the TUI
	ConfigPath string // optional override for testing; empty = use default
	WithCache  bool   // open the sqlite history cache
}

// Module returns the fx module composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	opts := []fx.Option{
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideStore,
			provideClient,
			provideEngine,
			provideCascade,
		),
		fx.Invoke(registerLifecycle),
	}
	if p.WithCache {
		opts = append(opts, fx.Provide(provideLock, provideHistory, provideRecorder))
	} else {
		opts = append(opts, fx.Provide(func() engine.Recorder { return nil }))
	}
	return fx.Module("app", opts...)
}

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = paths.ConfigPath()
	}
	return config.Load(path)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := paths.EnsureBase(); err != nil {
		return nil, err
	}
	if p.FileOnly {
		return logging.NewFileOnly(paths.LogPath(p.Program), p.Program)
	}
	return logging.New(paths.LogPath(p.Program), p.Program)
}

func provideBus(logger *zap.Logger) *bus.Bus {
	b := bus.New()
	b.SetLogger(logger)
	return b
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideStore(b *bus.Bus) *store.Store {
	return store.New(b)
}

func provideClient(cfg *config.Config, logger *zap.Logger) *api.Client {
	return api.NewClient(cfg.ServerURL, logger)
}

func provideLock(logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring cache lock", zap.String("dir", paths.CacheDir()))
	l, err := lock.Acquire(paths.CacheDir())
	if err != nil {
		return nil, err
	}
	logger.Info("cache lock acquired")
	return l, nil
}

func provideHistory(_ *lock.Lock, logger *zap.Logger) (*history.DB, error) {
	dbPath := paths.CacheDBPath()
	db, err := history.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("cache migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("cache migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("history cache initialized", zap.String("path", dbPath))
	return db, nil
}

func provideRecorder(db *history.DB) engine.Recorder {
	return db
}

func provideEngine(s *store.Store, rec engine.Recorder, b *bus.Bus, logger *zap.Logger) *engine.Engine {
	return engine.New(s, rec, b, logger)
}

func provideCascade(cfg *config.Config, client *api.Client, s *store.Store, m *status.Machine, b *bus.Bus, logger *zap.Logger) *transport.Cascade {
	candidates := []transport.Candidate{
		{Channel: transport.NewWebSocketChannel(client.BaseURL(), m, b, logger), Enabled: cfg.WebSocketEnabled},
		{Channel: transport.NewSSEChannel(client.BaseURL(), m, b, logger), Enabled: cfg.EventStreamEnabled},
		{Channel: transport.NewLongPollChannel(client.BaseURL(), m, b, logger), Enabled: true},
	}
	return transport.NewCascade(client, s, m, logger, candidates)
}

type lifecycleParams struct {
	fx.In

	Engine  *engine.Engine
	Cascade *transport.Cascade
	Logger  *zap.Logger
	Lock    *lock.Lock  `optional:"true"`
	History *history.DB `optional:"true"`
}

func registerLifecycle(lc fx.Lifecycle, p lifecycleParams) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			p.Engine.Start(context.Background())
			return nil
		},
		OnStop: func(_ context.Context) error {
			p.Cascade.Stop()
			p.Engine.Stop()
			if p.History != nil {
				if err := p.History.Close(); err != nil {
					p.Logger.Warn("error closing history cache", zap.Error(err))
				}
			}
			if p.Lock != nil {
				if err := p.Lock.Release(); err != nil {
					p.Logger.Warn("error releasing cache lock", zap.Error(err))
				}
			}
			p.Logger.Info("client stopped")
			_ = p.Logger.Sync()
			return nil
		},
	})
}
