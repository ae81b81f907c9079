package resources

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"carelink.org/internal/api"
	"carelink.org/internal/cache"
	"carelink.org/internal/care"
)

// notificationsEnvelope is the offset-paginated notifications list response.
type notificationsEnvelope struct {
	Notifications []care.Notification `json:"notifications"`
	Total         int                 `json:"total"`
	Limit         int                 `json:"limit"`
	Offset        int                 `json:"offset"`
}

// Notifications is the notification collection service. Notifications are
// created server-side; the client reads, marks read, or deletes. Settings and
// stats ride along in the same service.
type Notifications struct {
	api   *api.Client
	cache *cache.Collection[care.Notification]

	mu       sync.RWMutex
	settings []care.NotificationSetting
	stats    *care.NotificationStats
	offset   int
}

// NewNotifications binds the service to an API client with an empty cache.
func NewNotifications(client *api.Client) *Notifications {
	return &Notifications{
		api:   client,
		cache: cache.New(func(n care.Notification) string { return n.ID }),
	}
}

// Cache exposes the collection for the view layer.
func (s *Notifications) Cache() *cache.Collection[care.Notification] { return s.cache }

// List replaces the cache with one offset page.
func (s *Notifications) List(ctx context.Context, limit, offset int) ([]care.Notification, error) {
	s.cache.Begin()
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var resp notificationsEnvelope
	if err := s.api.Get(ctx, "/notifications", q, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to fetch notifications"))
		return nil, err
	}
	s.mu.Lock()
	s.offset = resp.Offset
	s.mu.Unlock()
	s.cache.SetList(resp.Notifications, cache.Page{Total: resp.Total, Limit: resp.Limit})
	return resp.Notifications, nil
}

// Get populates the selected slot independent of the list.
func (s *Notifications) Get(ctx context.Context, id string) (care.Notification, error) {
	s.cache.Begin()
	var resp dataEnvelope[care.Notification]
	if err := s.api.Get(ctx, "/notifications/"+id, nil, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to fetch notification"))
		return care.Notification{}, err
	}
	s.cache.SetSelected(resp.Data)
	return resp.Data, nil
}

// Settings fetches the per-channel delivery preferences.
func (s *Notifications) Settings(ctx context.Context) ([]care.NotificationSetting, error) {
	s.cache.Begin()
	var resp dataEnvelope[[]care.NotificationSetting]
	if err := s.api.Get(ctx, "/notifications/settings", nil, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to fetch notification settings"))
		return nil, err
	}
	s.mu.Lock()
	s.settings = resp.Data
	s.mu.Unlock()
	s.cache.Finish()
	return resp.Data, nil
}

// UpdateSettings updates one channel's preferences and merges the returned
// setting into the cached list by (userId, channel).
func (s *Notifications) UpdateSettings(ctx context.Context, req care.UpdateNotificationSettingsRequest) (care.NotificationSetting, error) {
	s.cache.Begin()
	var resp dataEnvelope[care.NotificationSetting]
	if err := s.api.Put(ctx, "/notifications/settings", req, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to update notification settings"))
		return care.NotificationSetting{}, err
	}
	s.mu.Lock()
	replaced := false
	for i, st := range s.settings {
		if st.UserID == resp.Data.UserID && st.Channel == resp.Data.Channel {
			s.settings[i] = resp.Data
			replaced = true
			break
		}
	}
	if !replaced {
		s.settings = append(s.settings, resp.Data)
	}
	s.mu.Unlock()
	s.cache.Finish()
	return resp.Data, nil
}

// SendTest asks the backend to deliver a throwaway notification.
func (s *Notifications) SendTest(ctx context.Context, req care.TestNotificationRequest) error {
	s.cache.Begin()
	if err := s.api.Post(ctx, "/notifications/settings/test", req, nil); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to send test notification"))
		return err
	}
	s.cache.Finish()
	return nil
}

// Confirm acknowledges a reminder; the cached record (list and selected slot
// alike) moves to READ with a fresh readAt.
func (s *Notifications) Confirm(ctx context.Context, id string) error {
	s.cache.Begin()
	if err := s.api.Post(ctx, "/notifications/"+id+"/confirm", nil, nil); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to confirm notification"))
		return err
	}
	s.markReadLocally(id)
	s.cache.Finish()
	return nil
}

// MarkRead bulk-marks notifications as read and updates the cached copies.
func (s *Notifications) MarkRead(ctx context.Context, ids []string) error {
	s.cache.Begin()
	body := map[string][]string{"notificationIds": ids}
	if err := s.api.Post(ctx, "/notifications/bulk/mark-read", body, nil); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to mark notifications as read"))
		return err
	}
	for _, id := range ids {
		s.markReadLocally(id)
	}
	s.cache.Finish()
	return nil
}

// DeleteBulk removes notifications server-side and drops each from the cache.
func (s *Notifications) DeleteBulk(ctx context.Context, ids []string) error {
	s.cache.Begin()
	q := url.Values{"ids": []string{strings.Join(ids, ",")}}
	if err := s.api.Delete(ctx, "/notifications/bulk/delete", q, nil); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to delete notifications"))
		return err
	}
	for _, id := range ids {
		s.cache.Remove(id)
	}
	return nil
}

// Stats fetches the aggregate notification counters.
func (s *Notifications) Stats(ctx context.Context) (care.NotificationStats, error) {
	s.cache.Begin()
	var resp dataEnvelope[care.NotificationStats]
	if err := s.api.Get(ctx, "/notifications/stats", nil, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to fetch notification stats"))
		return care.NotificationStats{}, err
	}
	s.mu.Lock()
	stats := resp.Data
	s.stats = &stats
	s.mu.Unlock()
	s.cache.Finish()
	return resp.Data, nil
}

// CachedSettings returns the last fetched settings list.
func (s *Notifications) CachedSettings() []care.NotificationSetting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]care.NotificationSetting(nil), s.settings...)
}

// CachedStats returns the last fetched stats, if any.
func (s *Notifications) CachedStats() (care.NotificationStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stats == nil {
		return care.NotificationStats{}, false
	}
	return *s.stats, true
}

// Offset returns the offset of the last fetched page.
func (s *Notifications) Offset() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offset
}

func (s *Notifications) markReadLocally(id string) {
	if n, ok := s.cache.Get(id); ok {
		n.Status = care.NotificationRead
		n.ReadAt = time.Now().UTC().Format(time.RFC3339)
		s.cache.Replace(n)
	}
}
