// Package auth decides what the current user may see. The gate consumes the
// session snapshot and a declared allowed-role set; it never talks to the
// backend itself.
package auth

import (
	"carelink.org/internal/care"
	"carelink.org/internal/session"
)

// Verdict is the outcome of a route guard check.
type Verdict int

const (
	// Allow renders the guarded content.
	Allow Verdict = iota
	// Loading renders a placeholder while the session is still resolving.
	Loading
	// RedirectLogin sends an unauthenticated user to the login view.
	RedirectLogin
	// RedirectFallback sends an authenticated but unauthorized user to the
	// fallback path.
	RedirectFallback
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Loading:
		return "loading"
	case RedirectLogin:
		return "redirect-login"
	case RedirectFallback:
		return "redirect-fallback"
	}
	return "unknown"
}

const (
	// DefaultFallbackPath is where unauthorized route access lands.
	DefaultFallbackPath = "/dashboard"
	// LoginPath is where unauthenticated route access lands.
	LoginPath = "/login"
)

// Gate is a declared allowed-role set for a piece of UI.
type Gate struct {
	Allowed  []care.Role
	Fallback string
}

// NewGate builds a gate with the default fallback path.
func NewGate(allowed ...care.Role) Gate {
	return Gate{Allowed: allowed, Fallback: DefaultFallbackPath}
}

// Decide evaluates a whole-route guard against the session snapshot.
func (g Gate) Decide(snap session.Snapshot) (Verdict, string) {
	if snap.Loading {
		return Loading, ""
	}
	if !snap.Authenticated {
		return RedirectLogin, LoginPath
	}
	if snap.User == nil || !snap.User.Role.In(g.Allowed...) {
		fallback := g.Fallback
		if fallback == "" {
			fallback = DefaultFallbackPath
		}
		return RedirectFallback, fallback
	}
	return Allow, ""
}

// Visible evaluates an inline-component guard: render the content or render
// nothing. No redirects for inline pieces.
func (g Gate) Visible(snap session.Snapshot) bool {
	if snap.User == nil {
		return false
	}
	return snap.User.Role.In(g.Allowed...)
}
