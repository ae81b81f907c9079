package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"carelink.org/internal/storage"
)

const (
	defaultInstallationsEndpoint = "https://firebaseinstallations.googleapis.com/v1"

	// permissionKey is the durable-storage analog of the browser's persisted
	// notification permission.
	permissionKey = "pushPermission"
)

// FCMConfig carries the messaging project credentials.
type FCMConfig struct {
	ProjectID string
	AppID     string
	APIKey    string
	SenderID  string
	VAPIDKey  string
	// Endpoint overrides the installations API base, for tests.
	Endpoint string
}

// complete reports whether enough credentials are present to attempt a fetch.
func (c FCMConfig) complete() bool {
	return c.ProjectID != "" && c.AppID != "" && c.APIKey != "" && c.VAPIDKey != ""
}

// FCM is a Messenger backed by the Firebase installations API. The
// notification permission is persisted in durable storage, mirroring how a
// browser remembers the user's choice across sessions.
type FCM struct {
	cfg   FCMConfig
	store storage.Store
	http  *http.Client
}

// NewFCM builds the messenger. A nil http client gets a 10s default.
func NewFCM(cfg FCMConfig, store storage.Store, hc *http.Client) *FCM {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &FCM{cfg: cfg, store: store, http: hc}
}

// Supported reports whether the messaging credentials are configured.
func (f *FCM) Supported() bool {
	return f.cfg.complete()
}

// Permission reads the persisted permission; unset means default (unasked).
func (f *FCM) Permission() (Permission, error) {
	v, err := f.store.Get(permissionKey)
	if errors.Is(err, storage.ErrNotFound) {
		return PermissionDefault, nil
	}
	if err != nil {
		return PermissionDefault, err
	}
	switch Permission(v) {
	case PermissionGranted, PermissionDenied:
		return Permission(v), nil
	}
	return PermissionDefault, nil
}

// RequestPermission records a grant. Invoking it at all is the explicit user
// action (`carectl push enable`), so consent is implied.
func (f *FCM) RequestPermission() (Permission, error) {
	if err := f.store.Set(permissionKey, string(PermissionGranted)); err != nil {
		return PermissionDefault, err
	}
	return PermissionGranted, nil
}

// Deny records a refusal so later registration attempts stay silent.
func (f *FCM) Deny() error {
	return f.store.Set(permissionKey, string(PermissionDenied))
}

type installationRequest struct {
	AppID       string `json:"appId"`
	AuthVersion string `json:"authVersion"`
	SDKVersion  string `json:"sdkVersion"`
}

type installationResponse struct {
	AuthToken struct {
		Token string `json:"token"`
	} `json:"authToken"`
}

// Token registers an installation with the messaging backend and returns its
// auth token as the device registration token.
func (f *FCM) Token(ctx context.Context) (string, error) {
	endpoint := f.cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultInstallationsEndpoint
	}
	url := fmt.Sprintf("%s/projects/%s/installations", endpoint, f.cfg.ProjectID)

	body, err := json.Marshal(installationRequest{
		AppID:       f.cfg.AppID,
		AuthVersion: "FIS_v2",
		SDKVersion:  "w:0.6.4",
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", f.cfg.APIKey)

	resp, err := f.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("installations API returned %d", resp.StatusCode)
	}
	var ir installationResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return "", err
	}
	if ir.AuthToken.Token == "" {
		return "", errors.New("installations API returned no token")
	}
	return ir.AuthToken.Token, nil
}
