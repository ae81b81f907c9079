package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"carelink.org/internal/api"
	"carelink.org/internal/care"
	"carelink.org/internal/storage"
)

func loginPayload(access, refresh string) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"accessToken":  access,
			"refreshToken": refresh,
			"user": map[string]any{
				"id":        "u1",
				"email":     "cg@example.com",
				"firstName": "Grace",
				"lastName":  "Hopper",
				"role":      "CAREGIVER",
			},
		},
	}
}

func newTestSession(t *testing.T, handler http.Handler) (*Session, storage.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := api.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	store := storage.NewMemory()
	s, err := New(client, store)
	if err != nil {
		t.Fatal(err)
	}
	return s, store
}

func TestLoginStoresSessionAndPersists(t *testing.T) {
	s, store := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(loginPayload("acc-1", "ref-1"))
	}))

	if err := s.Login(context.Background(), "cg@example.com", "pw"); err != nil {
		t.Fatal(err)
	}

	snap := s.Snapshot()
	if !snap.Authenticated {
		t.Fatal("expected authenticated session")
	}
	if snap.AccessToken != "acc-1" || snap.RefreshToken != "ref-1" {
		t.Fatalf("tokens = %q %q", snap.AccessToken, snap.RefreshToken)
	}
	if snap.User == nil || snap.User.Role != care.RoleCaregiver {
		t.Fatalf("user = %+v", snap.User)
	}
	if snap.Loading || snap.Err != "" {
		t.Fatalf("loading=%v err=%q", snap.Loading, snap.Err)
	}

	for key, want := range map[string]string{
		storage.KeyAccessToken:  "acc-1",
		storage.KeyRefreshToken: "ref-1",
	} {
		got, err := store.Get(key)
		if err != nil || got != want {
			t.Fatalf("storage %s = %q, %v", key, got, err)
		}
	}
	if _, err := store.Get(storage.KeyUser); err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
}

func TestLoginFailureRecordsBackendMessage(t *testing.T) {
	s, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid credentials"})
	}))

	if err := s.Login(context.Background(), "cg@example.com", "bad"); err == nil {
		t.Fatal("expected error")
	}
	snap := s.Snapshot()
	if snap.Authenticated {
		t.Fatal("must not be authenticated")
	}
	if snap.Err != "invalid credentials" {
		t.Fatalf("err = %q", snap.Err)
	}
}

func TestAuthenticatedTracksAccessToken(t *testing.T) {
	s, _ := newTestSession(t, http.NewServeMux())
	if s.Snapshot().Authenticated {
		t.Fatal("fresh session must be unauthenticated")
	}
}

func TestLoginRunsHooksBestEffort(t *testing.T) {
	s, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(loginPayload("acc-1", "ref-1"))
	}))

	var ran []string
	s.AfterLogin(func(ctx context.Context, u care.User) error {
		ran = append(ran, "fail:"+u.ID)
		return errors.New("push backend down")
	})
	s.AfterLogin(func(ctx context.Context, u care.User) error {
		ran = append(ran, "ok:"+u.ID)
		return nil
	})

	if err := s.Login(context.Background(), "cg@example.com", "pw"); err != nil {
		t.Fatalf("hook error must not fail login: %v", err)
	}
	if len(ran) != 2 || ran[0] != "fail:u1" || ran[1] != "ok:u1" {
		t.Fatalf("hooks = %v", ran)
	}
}

func TestLogoutClearsEverythingDespiteHookFailure(t *testing.T) {
	s, store := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(loginPayload("acc-1", "ref-1"))
	}))
	if err := s.Login(context.Background(), "cg@example.com", "pw"); err != nil {
		t.Fatal(err)
	}

	hookRan := false
	s.AfterLogout(func(ctx context.Context) error {
		hookRan = true
		return errors.New("unregister failed")
	})

	s.Logout(context.Background())

	if !hookRan {
		t.Fatal("logout hook did not run")
	}
	snap := s.Snapshot()
	if snap.Authenticated || snap.User != nil || snap.AccessToken != "" || snap.RefreshToken != "" {
		t.Fatalf("session not cleared: %+v", snap)
	}
	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyUser} {
		if _, err := store.Get(key); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("storage key %s survived logout", key)
		}
	}
}

func TestRefreshReplacesTokens(t *testing.T) {
	calls := 0
	s, store := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_ = json.NewEncoder(w).Encode(loginPayload("acc-1", "ref-1"))
		case "/auth/refresh-token":
			calls++
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["refreshToken"] != "ref-1" {
				t.Fatalf("refresh token sent = %q", body["refreshToken"])
			}
			_ = json.NewEncoder(w).Encode(loginPayload("acc-2", "ref-2"))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	if err := s.Login(context.Background(), "cg@example.com", "pw"); err != nil {
		t.Fatal(err)
	}

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("refresh calls = %d", calls)
	}
	snap := s.Snapshot()
	if snap.AccessToken != "acc-2" || snap.RefreshToken != "ref-2" {
		t.Fatalf("tokens = %q %q", snap.AccessToken, snap.RefreshToken)
	}
	if !snap.Authenticated || snap.User == nil {
		t.Fatal("refresh must keep the user signed in")
	}
	if got, _ := store.Get(storage.KeyAccessToken); got != "acc-2" {
		t.Fatalf("persisted access token = %q", got)
	}
}

func TestRefreshRejectionForcesLogout(t *testing.T) {
	s, store := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_ = json.NewEncoder(w).Encode(loginPayload("acc-1", "ref-1"))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "refresh token revoked"})
		}
	}))
	if err := s.Login(context.Background(), "cg@example.com", "pw"); err != nil {
		t.Fatal(err)
	}

	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}

	snap := s.Snapshot()
	if snap.User != nil || snap.AccessToken != "" || snap.Authenticated {
		t.Fatalf("session must be fully cleared: %+v", snap)
	}
	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyUser} {
		if _, err := store.Get(key); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("storage key %s survived forced logout", key)
		}
	}
}

func TestRehydrateRestoresPersistedSession(t *testing.T) {
	srv := httptest.NewServer(http.NewServeMux())
	defer srv.Close()
	client, err := api.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	store := storage.NewMemory()
	_ = store.Set(storage.KeyAccessToken, "acc-9")
	_ = store.Set(storage.KeyRefreshToken, "ref-9")
	_ = store.Set(storage.KeyUser, `{"id":"u9","email":"a@b.c","firstName":"Ada","lastName":"L","role":"ADMIN"}`)

	s, err := New(client, store)
	if err != nil {
		t.Fatal(err)
	}
	s.Rehydrate()

	snap := s.Snapshot()
	if !snap.Authenticated || snap.AccessToken != "acc-9" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.User == nil || snap.User.Role != care.RoleAdmin {
		t.Fatalf("user = %+v", snap.User)
	}
}

func TestRehydrateWithEmptyStorage(t *testing.T) {
	s, _ := newTestSession(t, http.NewServeMux())
	s.Rehydrate()
	snap := s.Snapshot()
	if snap.Authenticated || snap.User != nil {
		t.Fatalf("expected signed-out session, got %+v", snap)
	}
}

func TestRegisterTogglesLoadingOnly(t *testing.T) {
	s, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/register-caregiver" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "created", "success": true})
	}))

	err := s.Register(context.Background(), care.RegisterCaregiverRequest{
		Email: "new@example.com", Password: "pw", FirstName: "New", LastName: "Caregiver",
	})
	if err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if snap.Authenticated || snap.Loading || snap.Err != "" {
		t.Fatalf("register must not mutate auth state: %+v", snap)
	}
}

func TestTokenSourceReadsDurableStorage(t *testing.T) {
	s, store := newTestSession(t, http.NewServeMux())
	src := s.TokenSource()
	if got := src(); got != "" {
		t.Fatalf("empty store should yield empty token, got %q", got)
	}
	_ = store.Set(storage.KeyAccessToken, "acc-7")
	if got := src(); got != "acc-7" {
		t.Fatalf("token = %q", got)
	}
}
