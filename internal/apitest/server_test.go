package apitest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"carelink.org/internal/api"
	"carelink.org/internal/care"
	"carelink.org/internal/push"
	"carelink.org/internal/resources"
	"carelink.org/internal/session"
	"carelink.org/internal/storage"
)

type staticMessenger struct{ token string }

func (m staticMessenger) Supported() bool                        { return true }
func (m staticMessenger) Permission() (push.Permission, error)   { return push.PermissionGranted, nil }
func (m staticMessenger) RequestPermission() (push.Permission, error) {
	return push.PermissionGranted, nil
}
func (m staticMessenger) Token(context.Context) (string, error) { return m.token, nil }

// wires the full client stack against the fake backend: login, resource CRUD,
// push registration, token refresh.
func TestClientStackAgainstFakeBackend(t *testing.T) {
	backend := New()
	t.Cleanup(backend.Close)

	caregiver := backend.SeedUser(care.User{
		Email: "alice@example.com", FirstName: "Alice", LastName: "Ward",
		Role: care.RoleCaregiver,
	}, "secret12")
	senior := backend.SeedUser(care.User{
		Email: "rose@example.com", FirstName: "Rose", LastName: "Doe",
		Role: care.RoleSenior,
	}, "secret34")

	store := storage.NewMemory()
	var sess *session.Session
	client, err := api.New(backend.URL(), api.WithTokenSource(func() string {
		if sess == nil {
			return ""
		}
		return sess.TokenSource()()
	}))
	if err != nil {
		t.Fatal(err)
	}
	sess, err = session.New(client, store)
	if err != nil {
		t.Fatal(err)
	}

	registrar := push.NewRegistrar(client, staticMessenger{token: "device-token-1"}, zerolog.Nop())
	sess.AfterLogin(registrar.LoginHook())
	sess.AfterLogout(registrar.LogoutHook())

	ctx := context.Background()

	// Unauthenticated requests must be refused.
	meds := resources.NewMedications(client)
	if _, err := meds.List(ctx, care.MedicationFilter{}); err == nil {
		t.Fatal("list before login must fail")
	}

	if err := sess.Login(ctx, "alice@example.com", "secret12"); err != nil {
		t.Fatal(err)
	}
	snap := sess.Snapshot()
	if !snap.Authenticated || snap.User == nil || snap.User.ID != caregiver.ID {
		t.Fatalf("snapshot = %+v", snap)
	}

	// The post-login hook registered the device token exactly once.
	if n := backend.TokenCount(caregiver.ID); n != 1 {
		t.Fatalf("token count = %d", n)
	}
	if err := registrar.Register(ctx, caregiver); err != nil {
		t.Fatal(err)
	}
	if n := backend.TokenCount(caregiver.ID); n != 1 {
		t.Fatalf("token count after re-register = %d", n)
	}

	created, err := meds.Create(ctx, care.AddMedicationRequest{
		Name: "Aspirin", Dosage: "10mg", Frequency: "daily",
		StartDate: "2026-01-01", SeniorID: senior.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.CaregiverID != caregiver.ID || !created.IsActive {
		t.Fatalf("created = %+v", created)
	}

	scheds := resources.NewSchedules(client)
	bulk, err := scheds.CreateBulk(ctx, care.CreateBulkScheduleRequest{
		MedicationID: created.ID,
		Schedules: []care.BulkScheduleSlot{
			{Time: "08:00", DaysOfWeek: []string{"monday"}},
			{Time: "20:00", DaysOfWeek: []string{"monday"}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(bulk) != 2 {
		t.Fatalf("bulk = %+v", bulk)
	}

	reminders, err := scheds.Reminders(ctx, senior.ID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(reminders) != 2 {
		t.Fatalf("reminders = %+v", reminders)
	}

	toggled, err := meds.Toggle(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if toggled.IsActive {
		t.Fatal("expected medication toggled off")
	}

	seeded := backend.SeedNotification(care.Notification{
		UserID: caregiver.ID, Type: care.NotificationMedicationReminder,
		Title: "Time for Aspirin", Status: care.NotificationDelivered,
		Channels: []string{"PUSH"},
	})
	notifs := resources.NewNotifications(client)
	if _, err := notifs.List(ctx, 20, 0); err != nil {
		t.Fatal(err)
	}
	if err := notifs.Confirm(ctx, seeded.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := notifs.Cache().Get(seeded.ID)
	if got.Status != care.NotificationRead {
		t.Fatalf("status = %s", got.Status)
	}

	if err := sess.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	after := sess.Snapshot()
	if !after.Authenticated || after.RefreshToken == "" {
		t.Fatalf("snapshot after refresh = %+v", after)
	}

	sess.Logout(ctx)
	if sess.Snapshot().Authenticated {
		t.Fatal("still authenticated after logout")
	}
	if n := backend.TokenCount(caregiver.ID); n != 0 {
		t.Fatalf("token count after logout = %d", n)
	}
	if _, err := meds.List(ctx, care.MedicationFilter{}); err == nil {
		t.Fatal("list after logout must fail")
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	backend := New()
	t.Cleanup(backend.Close)
	backend.SeedUser(care.User{Email: "bob@example.com", Role: care.RoleAdmin}, "pw123456")

	store := storage.NewMemory()
	client, err := api.New(backend.URL())
	if err != nil {
		t.Fatal(err)
	}
	sess, err := session.New(client, store)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := sess.Login(ctx, "bob@example.com", "pw123456"); err != nil {
		t.Fatal(err)
	}

	old := sess.Snapshot().RefreshToken
	if err := sess.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if sess.Snapshot().RefreshToken == old {
		t.Fatal("refresh token was not rotated")
	}

	// A spent refresh token is rejected, and the rejection forces a signout.
	replay, err := session.New(client, store)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set(storage.KeyRefreshToken, old); err != nil {
		t.Fatal(err)
	}
	replay.Rehydrate()
	if err := replay.Refresh(ctx); err == nil {
		t.Fatal("spent refresh token must be rejected")
	}
	if _, err := store.Get(storage.KeyAccessToken); err == nil {
		t.Fatal("rejected refresh must clear the durable mirror")
	}
}
