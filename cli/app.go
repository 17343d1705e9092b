package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"llmkeyring/config"
	"llmkeyring/i18n"
	"llmkeyring/registry"
	"llmkeyring/storage"
	"llmkeyring/transport"
)

// App holds the wired collaborators a command works with.
type App struct {
	Registry *registry.Registry
	Secrets  registry.SecretStore
	Messages i18n.Localizer
	Logger   *slog.Logger

	closers []func() error
}

// locker is implemented by secret stores that may need a passphrase.
type locker interface {
	Unlock() error
	SetPassphrase(passphrase string)
}

// OpenApp loads the configuration and opens the database, the secret store
// and the registry.
func OpenApp(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	app := &App{}
	if config.CheckDebug() {
		f, err := config.InitDebugLog(cfg.DataDirectory)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, f.Close)
	}
	app.Logger = config.DebugLog

	store, err := storage.Open(cfg.DatabasePath())
	if err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, store.Close)

	app.Secrets = cfg.NewCredentialStore()
	app.Messages = i18n.New(cfg.Locale)
	app.Registry = registry.New(registry.Options{
		Store:       store,
		Secrets:     app.Secrets,
		Transport:   transport.New(app.Logger),
		Messages:    app.Messages,
		Timeout:     cfg.HTTPTimeout,
		Concurrency: cfg.Concurrency,
		Logger:      app.Logger,
	})

	if err := app.Registry.Load(ctx); err != nil {
		app.Close()
		return nil, err
	}

	app.Logger.Debug("app opened", "data_dir", cfg.DataDirectory, "locale", cfg.Locale, "security", cfg.SecurityMethod)
	return app, nil
}

// Close releases everything OpenApp acquired, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("failed to close: %w", errors.Join(errs...))
	}
	return nil
}
