package backend

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/okian/roadlens/pkg/logger"
	"github.com/okian/roadlens/pkg/metrics"
)

// Session owns the one bearer credential needed to call protected endpoints.
// Acquisition is lazy, cached, and single-flight: concurrent callers
// serialize on the mutex and all but the first reuse the cached token.
// Invalidate drops the cache after any downstream 401.
type Session struct {
	mu       sync.Mutex
	d        *Dispatcher
	username string
	password string
	token    string
	log      logger.Logger
}

// SessionOption applies a configuration option to the Session.
type SessionOption func(*Session)

// WithSessionLogger sets a custom logger for the session.
func WithSessionLogger(log logger.Logger) SessionOption {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSession creates a session manager around the configured identity.
func NewSession(d *Dispatcher, username, password string, opts ...SessionOption) *Session {
	s := &Session{
		d:        d,
		username: username,
		password: password,
		log:      logger.Get().Named("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Acquire returns a valid bearer token, performing a login round trip only
// when no cached credential exists. Failures wrap ErrAuth regardless of
// whether the backend rejected the identity or never answered.
func (s *Session) Acquire(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return s.token, nil
	}

	resp, err := s.d.Dispatch(ctx, http.MethodPost, "/auth/login",
		WithOperation("login"),
		WithJSONBody(loginRequest{Username: s.username, Password: s.password}),
	)
	if err != nil {
		metrics.RecordAuthFailure()
		return "", fmt.Errorf("%w: %w", ErrAuth, err)
	}

	var payload loginResponse
	if !resp.OK() || !resp.DecodeJSON(&payload) || payload.AccessToken == "" {
		metrics.RecordAuthFailure()
		detail := resp.Detail()
		if detail == "" {
			detail = fmt.Sprintf("login failed (%d)", resp.Status)
		}
		s.log.Warn(ctx, "credential acquisition rejected",
			logger.Int("status", resp.Status),
			logger.String("username", s.username))
		return "", fmt.Errorf("%w: %s", ErrAuth, detail)
	}

	s.token = payload.AccessToken
	metrics.RecordLogin()
	s.log.Debug(ctx, "credential acquired", logger.String("username", s.username))
	return s.token, nil
}

// Invalidate drops the cached credential so the next Acquire performs a
// fresh login. Called by the client whenever a downstream call returns 401.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}
