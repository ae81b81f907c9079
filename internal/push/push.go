// Package push registers the device's messaging token with the care backend
// so reminder notifications can target it. Everything here is best effort:
// any failure is logged and the surrounding flow (login, logout, app start)
// proceeds regardless.
package push

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"carelink.org/internal/api"
	"carelink.org/internal/care"
	"carelink.org/internal/session"
)

// Permission mirrors the platform's notification permission state.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// Messenger abstracts the third-party messaging client that issues device
// tokens.
type Messenger interface {
	// Supported reports whether push messaging is available at all on this
	// platform/configuration.
	Supported() bool
	// Permission returns the current notification permission state.
	Permission() (Permission, error)
	// RequestPermission asks the user and returns the resulting state.
	RequestPermission() (Permission, error)
	// Token fetches the device registration token.
	Token(ctx context.Context) (string, error)
}

// AppVersion is reported with every token registration.
const AppVersion = "1.0.0"

// Registrar runs the registration sequence against the backend.
type Registrar struct {
	api       *api.Client
	messenger Messenger
	log       zerolog.Logger
}

// NewRegistrar wires the backend client and the messaging client.
func NewRegistrar(client *api.Client, messenger Messenger, log zerolog.Logger) *Registrar {
	return &Registrar{api: client, messenger: messenger, log: log}
}

type tokensEnvelope struct {
	Data []care.FCMToken `json:"data"`
}

// Register runs the sequence: support check, permission, token fetch,
// duplicate check, register with device metadata. In the default (unasked)
// permission state it requests permission and retries once on grant.
func (r *Registrar) Register(ctx context.Context, user care.User) error {
	return r.register(ctx, user, true)
}

func (r *Registrar) register(ctx context.Context, user care.User, mayAsk bool) error {
	if r.messenger == nil || !r.messenger.Supported() {
		r.log.Debug().Msg("push messaging not supported, skipping registration")
		return nil
	}

	perm, err := r.messenger.Permission()
	if err != nil {
		return fmt.Errorf("push: read permission: %w", err)
	}
	switch perm {
	case PermissionGranted:
		// fall through to token fetch
	case PermissionDefault:
		if !mayAsk {
			return nil
		}
		granted, err := r.messenger.RequestPermission()
		if err != nil {
			return fmt.Errorf("push: request permission: %w", err)
		}
		if granted != PermissionGranted {
			r.log.Debug().Msg("notification permission not granted")
			return nil
		}
		return r.register(ctx, user, false)
	default:
		r.log.Debug().Msg("notification permission denied")
		return nil
	}

	token, err := r.messenger.Token(ctx)
	if err != nil {
		return fmt.Errorf("push: fetch token: %w", err)
	}
	if token == "" {
		return nil
	}

	registered, err := r.isRegistered(ctx, token)
	if err != nil {
		return err
	}
	if registered {
		r.log.Debug().Msg("push token already registered, skipping")
		return nil
	}

	req := care.RegisterFCMTokenRequest{
		Token:      token,
		DeviceID:   "web-" + user.ID,
		DeviceType: care.DeviceWeb,
		AppVersion: AppVersion,
	}
	if err := r.api.Post(ctx, "/notifications/register-fcm-token", req, nil); err != nil {
		return fmt.Errorf("push: register token: %w", err)
	}
	r.log.Info().Str("deviceId", req.DeviceID).Msg("push token registered")
	return nil
}

// Unregister removes the current device token from the backend. Called on
// logout; a failure never blocks the logout.
func (r *Registrar) Unregister(ctx context.Context) error {
	if r.messenger == nil || !r.messenger.Supported() {
		return nil
	}
	token, err := r.messenger.Token(ctx)
	if err != nil {
		return fmt.Errorf("push: fetch token for cleanup: %w", err)
	}
	if token == "" {
		return nil
	}
	body := map[string]string{"token": token}
	if err := r.api.Post(ctx, "/notifications/unregister-fcm-token", body, nil); err != nil {
		return fmt.Errorf("push: unregister token: %w", err)
	}
	return nil
}

// Tokens lists the tokens registered for the current user.
func (r *Registrar) Tokens(ctx context.Context) ([]care.FCMToken, error) {
	var resp tokensEnvelope
	if err := r.api.Get(ctx, "/notifications/fcm-tokens", nil, &resp); err != nil {
		return nil, fmt.Errorf("push: list tokens: %w", err)
	}
	return resp.Data, nil
}

func (r *Registrar) isRegistered(ctx context.Context, token string) (bool, error) {
	tokens, err := r.Tokens(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range tokens {
		if t.Token == token {
			return true, nil
		}
	}
	return false, nil
}

// LoginHook adapts the registrar to the session's post-login hook slot.
func (r *Registrar) LoginHook() session.LoginHook {
	return func(ctx context.Context, user care.User) error {
		return r.Register(ctx, user)
	}
}

// LogoutHook adapts the registrar to the session's post-logout hook slot.
func (r *Registrar) LogoutHook() session.LogoutHook {
	return func(ctx context.Context) error {
		return r.Unregister(ctx)
	}
}
