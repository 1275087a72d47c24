// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"

	"nsctl/cli/internal/auth"
	"nsctl/cli/internal/backend"
	"nsctl/cli/internal/config"
	clierrors "nsctl/cli/internal/errors"
	"nsctl/cli/internal/keychain"
	"nsctl/cli/internal/logging"
	"nsctl/cli/internal/session"
	"nsctl/cli/internal/ui"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app is everything a command needs, built once per invocation in the
// root PersistentPreRunE and carried on the command context.
type app struct {
	cfg   config.Config
	log   *logrus.Logger
	state *session.State
	store auth.SecretStore
	auth  *auth.Service
	guard *ui.Guard

	stopPersist func()
}

type appKey struct{}

// secretStoreOpener is swapped in tests.
var secretStoreOpener = func() (auth.SecretStore, error) {
	return keychain.GetManager()
}

// newApp loads configuration, opens the keychain, and restores the
// session into a fresh state.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, &cfg)

	log := logging.NewLogger(cfg.LogLevel, verbose)
	log.WithFields(logrus.Fields{"server": cfg.Server, "command": cmd.CommandPath()}).Debug("starting")

	store, err := secretStoreOpener()
	if err != nil {
		return nil, clierrors.Wrap(clierrors.SecureStorage, "cannot open keychain", err)
	}

	st := session.New()
	svc := auth.NewService(newBackend(cfg, log), store, st, log)

	if err := svc.Restore(ctx); err != nil {
		return nil, err
	}

	a := &app{
		cfg:   cfg,
		log:   log,
		state: st,
		store: store,
		auth:  svc,
		guard: ui.NewGuard(st),
	}
	// Restore ran before the subscription so startup does not rewrite the keychain.
	a.stopPersist = auth.Persist(st, store, log)
	return a, nil
}

// applyFlags overlays explicitly set persistent flags on cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.Server = backend.NormalizeBaseURL(serverFlag)
	}
	if flags.Changed("insecure") {
		cfg.Insecure = insecure
	}
}

func newBackend(cfg config.Config, log logrus.FieldLogger) backend.API {
	return backend.New(cfg.Server, backend.Options{
		Endpoints: cfg.Endpoints,
		Timeout:   cfg.Timeout,
		Insecure:  cfg.Insecure,
		Logger:    log,
	})
}

// useServer points the auth service at another controller, keeping the
// same state and secret store.
func (a *app) useServer(server string) {
	a.cfg.Server = server
	a.auth = auth.NewService(newBackend(a.cfg, a.log), a.store, a.state, a.log)
}

func (a *app) close() {
	if a.stopPersist != nil {
		a.stopPersist()
	}
}

func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

// appFrom returns the app attached by the root command.
func appFrom(cmd *cobra.Command) (*app, error) {
	if a, ok := cmd.Context().Value(appKey{}).(*app); ok {
		return a, nil
	}
	return nil, errors.New("command context not initialized")
}
