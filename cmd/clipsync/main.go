package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"clipsync/internal/api"
	"clipsync/internal/app"
	"clipsync/internal/bus"
	"clipsync/internal/config"
	"clipsync/internal/engine"
	"clipsync/internal/paths"
	"clipsync/internal/status"
	"clipsync/internal/store"
	"clipsync/internal/transport"
	"clipsync/internal/tui"
	"clipsync/internal/tui/model"
)

func main() {
	sessionFlag := flag.String("session", "", "session ID (overrides config default; empty creates a new session)")
	flag.Parse()

	fxApp := fx.New(
		app.Module(app.Params{Program: "clipsync", FileOnly: true, WithCache: true}),
		fx.Provide(newViewModel, newApp),
		fx.Invoke(func(lc fx.Lifecycle, sh fx.Shutdowner, a *tui.App, vm *model.ViewModel, cfg *config.Config, client *api.Client, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					sessionID, err := resolveSession(ctx, *sessionFlag, cfg, client)
					if err != nil {
						return err
					}
					go func() {
						if err := a.Run(sessionID); err != nil {
							logger.Error("tui error", zap.Error(err))
						}
						_ = sh.Shutdown()
					}()
					return nil
				},
				OnStop: func(context.Context) error {
					a.Stop()
					return nil
				},
			})
		}),
		fx.NopLogger,
	)

	fxApp.Run()

	if err := fxApp.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newViewModel(c *api.Client, s *store.Store, casc *transport.Cascade, m *status.Machine, e *engine.Engine, logger *zap.Logger) *model.ViewModel {
	return model.NewViewModel(c, s, casc, m, e, logger)
}

func newApp(vm *model.ViewModel, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *tui.App {
	return tui.NewApp(vm, b, cfg.NotificationEnabled, logger)
}

// resolveSession picks the session to join: flag, then config default, else a
// freshly created session.
func resolveSession(ctx context.Context, flagOverride string, cfg *config.Config, client *api.Client) (string, error) {
	id := flagOverride
	if id == "" {
		id = cfg.DefaultSession
	}
	if id == "" {
		created, err := client.CreateSession(ctx)
		if err != nil {
			return "", fmt.Errorf("create session: %w", err)
		}
		return created, nil
	}
	if err := paths.ValidateSessionID(id); err != nil {
		return "", err
	}
	return id, nil
}
