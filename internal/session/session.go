// Package session owns the authenticated-user state: identity, token pair,
// and the durable storage mirror. It is an explicitly-constructed object with
// an init/teardown lifecycle, passed to whatever needs it, never a package
// global.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"carelink.org/internal/api"
	"carelink.org/internal/care"
	"carelink.org/internal/storage"
)

// Snapshot is a point-in-time copy of the session state. Authenticated is
// true iff an access token is present.
type Snapshot struct {
	User          *care.User
	AccessToken   string
	RefreshToken  string
	Authenticated bool
	Loading       bool
	Err           string
}

// Session coordinates auth operations against the backend and mirrors the
// result into durable storage.
type Session struct {
	mu    sync.Mutex
	api   *api.Client
	store storage.Store
	log   zerolog.Logger

	user         *care.User
	accessToken  string
	refreshToken string
	loading      bool
	errMsg       string

	afterLogin  []LoginHook
	afterLogout []LogoutHook
}

// Option configures a Session.
type Option func(*Session)

// WithLogger attaches a logger; default is a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// New creates a session bound to an API client and a durable store. Call
// Rehydrate once at startup to restore a persisted session.
func New(client *api.Client, store storage.Store, opts ...Option) (*Session, error) {
	if client == nil {
		return nil, errors.New("session: api client is required")
	}
	if store == nil {
		return nil, errors.New("session: storage is required")
	}
	s := &Session{api: client, store: store, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TokenSource exposes the persisted access token for the API client, matching
// the rule that outgoing requests read the durable mirror.
func (s *Session) TokenSource() api.TokenSource {
	return func() string {
		tok, err := s.store.Get(storage.KeyAccessToken)
		if err != nil {
			return ""
		}
		return tok
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var user *care.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Snapshot{
		User:          user,
		AccessToken:   s.accessToken,
		RefreshToken:  s.refreshToken,
		Authenticated: s.accessToken != "",
		Loading:       s.loading,
		Err:           s.errMsg,
	}
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

type messageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// Login authenticates, persists the session, and then runs the post-login
// hooks. Hook failures are logged and never fail the login.
func (s *Session) Login(ctx context.Context, email, password string) error {
	s.begin()
	var resp dataEnvelope[care.LoginResponse]
	err := s.api.Post(ctx, "/auth/login", care.LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		s.fail(err, "Login failed")
		return err
	}

	s.mu.Lock()
	u := resp.Data.User
	s.user = &u
	s.accessToken = resp.Data.AccessToken
	s.refreshToken = resp.Data.RefreshToken
	s.loading = false
	s.errMsg = ""
	hooks := append([]LoginHook(nil), s.afterLogin...)
	s.mu.Unlock()

	s.persist(resp.Data)

	for _, hook := range hooks {
		if err := hook(ctx, u); err != nil {
			s.log.Warn().Err(err).Msg("post-login hook failed")
		}
	}
	return nil
}

// Logout runs the post-logout hooks, then clears the session state and the
// durable mirror unconditionally. Hook failures never block the logout.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	hooks := append([]LogoutHook(nil), s.afterLogout...)
	s.mu.Unlock()

	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			s.log.Warn().Err(err).Msg("post-logout hook failed")
		}
	}
	s.clear()
}

// Register creates a caregiver account. No session state changes on success.
func (s *Session) Register(ctx context.Context, req care.RegisterCaregiverRequest) error {
	s.begin()
	var resp messageResponse
	if err := s.api.Post(ctx, "/auth/register-caregiver", req, &resp); err != nil {
		s.fail(err, "Registration failed")
		return err
	}
	s.finish()
	return nil
}

// ChangePassword rotates the current user's password.
func (s *Session) ChangePassword(ctx context.Context, current, next string) error {
	s.begin()
	var resp messageResponse
	req := care.ChangePasswordRequest{CurrentPassword: current, NewPassword: next}
	if err := s.api.Post(ctx, "/auth/change-password", req, &resp); err != nil {
		s.fail(err, "Password change failed")
		return err
	}
	s.finish()
	return nil
}

// ForgotPassword starts the email reset flow.
func (s *Session) ForgotPassword(ctx context.Context, email string) error {
	s.begin()
	var resp messageResponse
	if err := s.api.Post(ctx, "/auth/forgot-password", care.ForgotPasswordRequest{Email: email}, &resp); err != nil {
		s.fail(err, "Forgot password failed")
		return err
	}
	s.finish()
	return nil
}

// ResetPassword completes the reset flow with the emailed token.
func (s *Session) ResetPassword(ctx context.Context, token, newPassword string) error {
	s.begin()
	var resp messageResponse
	req := care.ResetPasswordRequest{Token: token, NewPassword: newPassword}
	if err := s.api.Post(ctx, "/auth/reset-password", req, &resp); err != nil {
		s.fail(err, "Password reset failed")
		return err
	}
	s.finish()
	return nil
}

// Refresh exchanges the refresh token for a new pair. This is the one place a
// failure is fatal to the session: the state and the durable mirror are
// cleared, forcing a fresh login.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	refresh := s.refreshToken
	s.mu.Unlock()
	if refresh == "" {
		if tok, err := s.store.Get(storage.KeyRefreshToken); err == nil {
			refresh = tok
		}
	}
	if refresh == "" {
		s.clear()
		return errors.New("session: no refresh token")
	}

	var resp dataEnvelope[care.LoginResponse]
	err := s.api.Post(ctx, "/auth/refresh-token", map[string]string{"refreshToken": refresh}, &resp)
	if err != nil {
		s.log.Warn().Err(err).Msg("token refresh rejected, clearing session")
		s.clear()
		return err
	}

	s.mu.Lock()
	s.accessToken = resp.Data.AccessToken
	s.refreshToken = resp.Data.RefreshToken
	s.mu.Unlock()

	if err := s.store.Set(storage.KeyAccessToken, resp.Data.AccessToken); err != nil {
		s.log.Warn().Err(err).Msg("persist access token")
	}
	if err := s.store.Set(storage.KeyRefreshToken, resp.Data.RefreshToken); err != nil {
		s.log.Warn().Err(err).Msg("persist refresh token")
	}
	return nil
}

// Rehydrate reloads identity and tokens from the durable mirror. Called once
// at startup; a missing or unreadable mirror leaves the session signed out.
func (s *Session) Rehydrate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessToken = ""
	s.refreshToken = ""
	s.user = nil

	if tok, err := s.store.Get(storage.KeyAccessToken); err == nil {
		s.accessToken = tok
	}
	if tok, err := s.store.Get(storage.KeyRefreshToken); err == nil {
		s.refreshToken = tok
	}
	if raw, err := s.store.Get(storage.KeyUser); err == nil {
		var u care.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			s.user = &u
		} else {
			s.log.Warn().Err(err).Msg("stored user record unreadable")
		}
	}
}

// ClearError drops the last operation error.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}

// AccessTokenExpiry reads the exp claim from the access token without
// verifying the signature; verification is the backend's job.
func (s *Session) AccessTokenExpiry() (time.Time, error) {
	s.mu.Lock()
	tok := s.accessToken
	s.mu.Unlock()
	if tok == "" {
		return time.Time{}, errors.New("session: no access token")
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("session: token has no expiry")
	}
	return claims.ExpiresAt.Time, nil
}

// NeedsRefresh reports whether the access token expires within the window.
// An unparseable token reports true so the caller tries a refresh.
func (s *Session) NeedsRefresh(within time.Duration) bool {
	exp, err := s.AccessTokenExpiry()
	if err != nil {
		return true
	}
	return time.Until(exp) < within
}

func (s *Session) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.errMsg = ""
}

func (s *Session) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.errMsg = ""
}

func (s *Session) fail(err error, fallback string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.errMsg = errorMessage(err, fallback)
}

func (s *Session) persist(resp care.LoginResponse) {
	if err := s.store.Set(storage.KeyAccessToken, resp.AccessToken); err != nil {
		s.log.Warn().Err(err).Msg("persist access token")
	}
	if err := s.store.Set(storage.KeyRefreshToken, resp.RefreshToken); err != nil {
		s.log.Warn().Err(err).Msg("persist refresh token")
	}
	if raw, err := json.Marshal(resp.User); err == nil {
		if err := s.store.Set(storage.KeyUser, string(raw)); err != nil {
			s.log.Warn().Err(err).Msg("persist user")
		}
	}
}

func (s *Session) clear() {
	s.mu.Lock()
	s.user = nil
	s.accessToken = ""
	s.refreshToken = ""
	s.loading = false
	s.errMsg = ""
	s.mu.Unlock()

	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyUser} {
		if err := s.store.Delete(key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("clear storage key")
		}
	}
}

// errorMessage prefers the backend's message, falling back to a generic
// per-operation string.
func errorMessage(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
