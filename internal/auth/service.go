// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"nsctl/cli/internal/backend"
	clierrors "nsctl/cli/internal/errors"
	"nsctl/cli/internal/keychain"
	"nsctl/cli/internal/session"

	"github.com/sirupsen/logrus"
)

// refreshWindow is how close to expiry a token gets refreshed before use.
const refreshWindow = time.Minute

// Service centralizes authentication-related operations against the
// controller and local secure storage. It is the only writer of the
// session state.
type Service struct {
	be    backend.API
	store SecretStore
	state *session.State
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewService constructs an auth Service. A nil logger discards output.
func NewService(be backend.API, store SecretStore, state *session.State, log logrus.FieldLogger) *Service {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Service{be: be, store: store, state: state, log: log, now: time.Now}
}

// Identity is what the CLI knows about the current user without a network call.
type Identity struct {
	Username string
	// Subject is the identity carried by the token, when it is a JWT.
	Subject string
	// Expire is zero when unknown.
	Expire time.Time
}

// Login authenticates against the controller, stores the token and marks
// the session as logged in.
func (s *Service) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username is required")
	}
	if password == "" {
		return errors.New("password is required")
	}

	tok, err := s.be.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return clierrors.Wrap(clierrors.InvalidCredentials, "controller rejected the credentials", err)
		}
		return rejected(err)
	}

	if err := s.store.SaveToken(tok.Value, tok.Expire); err != nil {
		return clierrors.Wrap(clierrors.SecureStorage, "cannot store token", err)
	}

	s.log.WithFields(logrus.Fields{"username": username, "expire": tok.Expire}).Debug("login succeeded")
	s.state.SetUsername(username)
	s.state.SetLoggedIn(true)
	return nil
}

// Logout performs remote logout (best-effort) and clears local credentials/state.
func (s *Service) Logout(ctx context.Context) error {
	if token, _, err := s.store.LoadToken(); err == nil && token != "" {
		if err := s.be.Logout(ctx, token); err != nil {
			s.log.WithError(err).Debug("remote logout failed; clearing local session anyway")
		}
	}
	return s.ResetLocalAuth()
}

// ResetLocalAuth clears only local credentials/state (no remote calls).
// The setters run first so observers that persist the state cannot write
// a snapshot back after the store is cleared.
func (s *Service) ResetLocalAuth() error {
	s.state.SetLoggedIn(false)
	s.state.SetUsername("")
	if err := s.store.ClearAuth(); err != nil {
		return clierrors.Wrap(clierrors.SecureStorage, "cannot clear stored credentials", err)
	}
	return nil
}

// Restore loads the persisted session into the state at startup.
// An expired token is refreshed once. A 401 resets the local session; any
// other failure leaves the stored session untouched and the state logged
// out for this run, so the next run can try again. Restore only returns
// storage errors.
func (s *Service) Restore(ctx context.Context) error {
	snap, err := Load(s.store)
	if err != nil {
		return clierrors.Wrap(clierrors.SecureStorage, "cannot read session state", err)
	}
	if !snap.LoggedIn {
		s.state.SetUsername(snap.Username)
		s.state.SetLoggedIn(false)
		return nil
	}

	token, expire, err := s.store.LoadToken()
	if err != nil {
		s.log.WithError(err).Debug("session marked logged in but no token found")
		return s.ResetLocalAuth()
	}

	if s.expired(expire, 0) {
		tok, rerr := s.be.Refresh(ctx, token)
		if errors.Is(rerr, backend.ErrUnauthorized) {
			s.log.WithError(rerr).Info("stored session expired")
			return s.ResetLocalAuth()
		}
		if rerr != nil {
			s.log.WithError(rerr).Warn("cannot refresh the stored session; it is kept for the next run")
			s.state.SetUsername(snap.Username)
			s.state.SetLoggedIn(false)
			return nil
		}
		if err := s.store.SaveToken(tok.Value, tok.Expire); err != nil {
			return clierrors.Wrap(clierrors.SecureStorage, "cannot store token", err)
		}
	}

	s.state.SetUsername(snap.Username)
	s.state.SetLoggedIn(true)
	return nil
}

// Token returns a bearer token for protected calls, refreshing it when it
// is about to expire.
func (s *Service) Token(ctx context.Context) (string, error) {
	if !s.state.IsLoggedIn() {
		return "", clierrors.New(clierrors.NotLoggedIn, "run 'nsctl login' first")
	}
	token, expire, err := s.store.LoadToken()
	if err != nil {
		if errors.Is(err, keychain.ErrNotFound) {
			_ = s.ResetLocalAuth()
			return "", clierrors.New(clierrors.NotLoggedIn, "no stored token")
		}
		return "", clierrors.Wrap(clierrors.SecureStorage, "cannot read token", err)
	}
	if !s.expired(expire, refreshWindow) {
		return token, nil
	}
	return s.refresh(ctx, token, expire)
}

// refresh exchanges token for a new one. Only a 401 ends the session.
// When the controller is unreachable the old token is returned while it is
// still valid; past expiry the transport error is returned as is.
func (s *Service) refresh(ctx context.Context, token string, expire time.Time) (string, error) {
	tok, err := s.be.Refresh(ctx, token)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			_ = s.ResetLocalAuth()
			return "", clierrors.Wrap(clierrors.SessionExpired, "token refresh failed", err)
		}
		if s.expired(expire, 0) {
			return "", err
		}
		s.log.WithError(err).Debug("token refresh failed; using current token")
		return token, nil
	}
	if err := s.store.SaveToken(tok.Value, tok.Expire); err != nil {
		return "", clierrors.Wrap(clierrors.SecureStorage, "cannot store token", err)
	}
	s.log.WithField("expire", tok.Expire).Debug("token refreshed")
	return tok.Value, nil
}

// WithToken runs fn with a valid token. If the controller answers 401 the
// token is refreshed once and fn retried; a second 401 ends the session.
// Other error statuses come back as ServerRejected.
func (s *Service) WithToken(ctx context.Context, fn func(token string) error) error {
	token, err := s.Token(ctx)
	if err != nil {
		return err
	}
	err = fn(token)
	if !errors.Is(err, backend.ErrUnauthorized) {
		return rejected(err)
	}

	tok, rerr := s.be.Refresh(ctx, token)
	if errors.Is(rerr, backend.ErrUnauthorized) {
		_ = s.ResetLocalAuth()
		return clierrors.Wrap(clierrors.SessionExpired, "controller rejected the session", err)
	}
	if rerr != nil {
		return rerr
	}
	if serr := s.store.SaveToken(tok.Value, tok.Expire); serr != nil {
		return clierrors.Wrap(clierrors.SecureStorage, "cannot store token", serr)
	}

	err = fn(tok.Value)
	if errors.Is(err, backend.ErrUnauthorized) {
		_ = s.ResetLocalAuth()
		return clierrors.Wrap(clierrors.SessionExpired, "controller rejected the session", err)
	}
	return rejected(err)
}

// rejected types a non-401 controller status as ServerRejected, keeping the
// controller's message. Transport errors pass through.
func rejected(err error) error {
	var se *backend.StatusError
	if !errors.As(err, &se) || errors.Is(err, backend.ErrUnauthorized) {
		return err
	}
	msg := se.Message
	if msg == "" {
		msg = fmt.Sprintf("%s answered %d", se.Op, se.Status)
	}
	return clierrors.Wrap(clierrors.ServerRejected, msg, err)
}

// WhoAmI reports the current identity from local state only.
func (s *Service) WhoAmI() (Identity, bool) {
	if !s.state.IsLoggedIn() {
		return Identity{}, false
	}
	id := Identity{Username: s.state.Username()}
	if token, expire, err := s.store.LoadToken(); err == nil {
		id.Subject = backend.SubjectFromJWT(token)
		id.Expire = expire
	}
	return id, true
}

// expired reports whether expire falls within margin of now.
// A zero expire means unknown and is treated as valid.
func (s *Service) expired(expire time.Time, margin time.Duration) bool {
	if expire.IsZero() {
		return false
	}
	return !s.now().Add(margin).Before(expire)
}
