package session

import (
	"context"

	"carelink.org/internal/care"
)

// LoginHook runs after a successful login with the authenticated user. Errors
// are captured and logged by the session, never propagated: a hook cannot
// fail a login.
type LoginHook func(ctx context.Context, user care.User) error

// LogoutHook runs before the session state is cleared on logout. Errors are
// captured and logged; the logout always proceeds.
type LogoutHook func(ctx context.Context) error

// AfterLogin appends a post-login hook. Hooks run in registration order.
func (s *Session) AfterLogin(hook LoginHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterLogin = append(s.afterLogin, hook)
}

// AfterLogout appends a pre-clear logout hook. Hooks run in registration order.
func (s *Session) AfterLogout(hook LogoutHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterLogout = append(s.afterLogout, hook)
}
