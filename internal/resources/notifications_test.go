package resources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"carelink.org/internal/api"
	"carelink.org/internal/care"
)

func notif(id string, status care.NotificationStatus) care.Notification {
	return care.Notification{
		ID: id, UserID: "u1", Type: care.NotificationMedicationReminder,
		Title: "Time for Aspirin", Message: "Take 10mg", Status: status,
		Channels: []string{"PUSH"},
	}
}

func newNotifService(t *testing.T, handler http.Handler) *Notifications {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := api.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	return NewNotifications(client)
}

func notifListHandler(t *testing.T, items []care.Notification) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"notifications": items,
			"total":         len(items),
			"limit":         20,
			"offset":        0,
		})
	}
}

func TestNotificationsListUsesOffsetPaging(t *testing.T) {
	var gotQuery string
	svc := newNotifService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{
			"notifications": []care.Notification{notif("n1", care.NotificationDelivered)},
			"total":         41,
			"limit":         20,
			"offset":        20,
		})
	}))

	items, err := svc.List(context.Background(), 20, 20)
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery != "limit=20&offset=20" {
		t.Fatalf("query = %q", gotQuery)
	}
	if len(items) != 1 {
		t.Fatalf("items = %+v", items)
	}
	if svc.Offset() != 20 {
		t.Fatalf("offset = %d", svc.Offset())
	}
	if svc.Cache().Meta().Total != 41 {
		t.Fatalf("total = %d", svc.Cache().Meta().Total)
	}
}

func TestNotificationsConfirmMarksReadEverywhere(t *testing.T) {
	var confirmed string
	svc := newNotifService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/notifications":
			notifListHandler(t, []care.Notification{notif("n1", care.NotificationDelivered)})(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/notifications/n1":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": notif("n1", care.NotificationDelivered)})
		case r.Method == http.MethodPost && r.URL.Path == "/notifications/n1/confirm":
			confirmed = "n1"
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	if _, err := svc.List(context.Background(), 0, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(context.Background(), "n1"); err != nil {
		t.Fatal(err)
	}

	if err := svc.Confirm(context.Background(), "n1"); err != nil {
		t.Fatal(err)
	}
	if confirmed != "n1" {
		t.Fatal("confirm never reached the backend")
	}
	got, _ := svc.Cache().Get("n1")
	if got.Status != care.NotificationRead || got.ReadAt == "" {
		t.Fatalf("list entry = %+v", got)
	}
	sel, ok := svc.Cache().Selected()
	if !ok || sel.Status != care.NotificationRead {
		t.Fatalf("selected = %+v ok=%v", sel, ok)
	}
}

func TestNotificationsMarkReadBulk(t *testing.T) {
	var body map[string][]string
	svc := newNotifService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notifications":
			notifListHandler(t, []care.Notification{
				notif("n1", care.NotificationDelivered),
				notif("n2", care.NotificationSent),
				notif("n3", care.NotificationDelivered),
			})(w, r)
		case "/notifications/bulk/mark-read":
			_ = json.NewDecoder(r.Body).Decode(&body)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	if _, err := svc.List(context.Background(), 0, 0); err != nil {
		t.Fatal(err)
	}

	if err := svc.MarkRead(context.Background(), []string{"n1", "n3"}); err != nil {
		t.Fatal(err)
	}
	if len(body["notificationIds"]) != 2 {
		t.Fatalf("body = %+v", body)
	}
	for _, id := range []string{"n1", "n3"} {
		got, _ := svc.Cache().Get(id)
		if got.Status != care.NotificationRead {
			t.Fatalf("%s status = %s", id, got.Status)
		}
	}
	untouched, _ := svc.Cache().Get("n2")
	if untouched.Status != care.NotificationSent {
		t.Fatalf("n2 status = %s", untouched.Status)
	}
}

func TestNotificationsDeleteBulkSendsIDsQuery(t *testing.T) {
	var gotIDs string
	svc := newNotifService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notifications":
			notifListHandler(t, []care.Notification{
				notif("n1", care.NotificationRead),
				notif("n2", care.NotificationRead),
				notif("n3", care.NotificationDelivered),
			})(w, r)
		case "/notifications/bulk/delete":
			gotIDs = r.URL.Query().Get("ids")
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	if _, err := svc.List(context.Background(), 0, 0); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteBulk(context.Background(), []string{"n1", "n2"}); err != nil {
		t.Fatal(err)
	}
	if gotIDs != "n1,n2" {
		t.Fatalf("ids = %q", gotIDs)
	}
	if svc.Cache().Len() != 1 {
		t.Fatalf("len = %d", svc.Cache().Len())
	}
	if svc.Cache().Meta().Total != 1 {
		t.Fatalf("total = %d", svc.Cache().Meta().Total)
	}
}

func TestNotificationsUpdateSettingsMergesByChannel(t *testing.T) {
	updated := care.NotificationSetting{
		ID: "st1", UserID: "u1", Channel: care.ChannelPush, IsEnabled: false, Timezone: "UTC",
	}
	svc := newNotifService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []care.NotificationSetting{
				{ID: "st1", UserID: "u1", Channel: care.ChannelPush, IsEnabled: true, Timezone: "UTC"},
				{ID: "st2", UserID: "u1", Channel: care.ChannelEmail, IsEnabled: true, Timezone: "UTC"},
			}})
		case http.MethodPut:
			_ = json.NewEncoder(w).Encode(map[string]any{"data": updated})
		}
	}))
	if _, err := svc.Settings(context.Background()); err != nil {
		t.Fatal(err)
	}

	got, err := svc.UpdateSettings(context.Background(), care.UpdateNotificationSettingsRequest{
		Channel: care.ChannelPush, IsEnabled: false,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.IsEnabled {
		t.Fatal("expected disabled setting")
	}
	settings := svc.CachedSettings()
	if len(settings) != 2 {
		t.Fatalf("settings = %+v", settings)
	}
	for _, st := range settings {
		switch st.Channel {
		case care.ChannelPush:
			if st.IsEnabled {
				t.Fatal("push setting not merged")
			}
		case care.ChannelEmail:
			if !st.IsEnabled {
				t.Fatal("email setting must stay enabled")
			}
		}
	}
}

func TestNotificationsStats(t *testing.T) {
	svc := newNotifService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": care.NotificationStats{
			Total: 12, Sent: 4, Delivered: 5, Read: 2, Failed: 1,
			ByChannel: map[string]int{"PUSH": 10, "EMAIL": 2},
		}})
	}))

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 12 || stats.ByChannel["PUSH"] != 10 {
		t.Fatalf("stats = %+v", stats)
	}
	cached, ok := svc.CachedStats()
	if !ok || cached.Read != 2 {
		t.Fatalf("cached = %+v ok=%v", cached, ok)
	}
}
