package resources

import (
	"context"
	"net/url"
	"strconv"
	"sync"

	"carelink.org/internal/api"
	"carelink.org/internal/cache"
	"carelink.org/internal/care"
)

// schedulesEnvelope is the schedules list response; the backend names the
// list field differently from the other collections.
type schedulesEnvelope struct {
	Schedules  []care.Schedule `json:"schedules"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}

// Schedules is the dosing-schedule collection service. Besides the cached
// list it holds the last fetched templates and upcoming reminders.
type Schedules struct {
	api   *api.Client
	cache *cache.Collection[care.Schedule]

	mu        sync.RWMutex
	templates []care.ScheduleTemplate
	reminders []care.ScheduleReminder
}

// NewSchedules binds the service to an API client with an empty cache.
func NewSchedules(client *api.Client) *Schedules {
	return &Schedules{
		api:   client,
		cache: cache.New(func(s care.Schedule) string { return s.ID }),
	}
}

// Cache exposes the collection for the view layer.
func (s *Schedules) Cache() *cache.Collection[care.Schedule] { return s.cache }

// List replaces the cache with the filtered page from the backend.
func (s *Schedules) List(ctx context.Context, f care.ScheduleFilter) ([]care.Schedule, error) {
	s.cache.Begin()
	q := url.Values{}
	if f.MedicationID != "" {
		q.Set("medicationId", f.MedicationID)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.IsActive != "" {
		q.Set("isActive", f.IsActive)
	}

	var resp schedulesEnvelope
	if err := s.api.Get(ctx, "/schedules", q, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to fetch schedules"))
		return nil, err
	}
	s.cache.SetList(resp.Schedules, cache.Page{
		Total: resp.Total, Page: resp.Page, Limit: resp.Limit, TotalPages: resp.TotalPages,
	})
	return resp.Schedules, nil
}

// Get populates the selected slot independent of the list.
func (s *Schedules) Get(ctx context.Context, id string) (care.Schedule, error) {
	s.cache.Begin()
	var resp dataEnvelope[care.Schedule]
	if err := s.api.Get(ctx, "/schedules/"+id, nil, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to fetch schedule"))
		return care.Schedule{}, err
	}
	s.cache.SetSelected(resp.Data)
	return resp.Data, nil
}

// Create validates the slot client-side, then prepends the created record.
func (s *Schedules) Create(ctx context.Context, req care.CreateScheduleRequest) (care.Schedule, error) {
	if err := req.Validate(); err != nil {
		return care.Schedule{}, err
	}
	s.cache.Begin()
	var resp dataEnvelope[care.Schedule]
	if err := s.api.Post(ctx, "/schedules", req, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to create schedule"))
		return care.Schedule{}, err
	}
	s.cache.Prepend(resp.Data)
	return resp.Data, nil
}

// CreateBulk creates several slots for one medication in a single request and
// prepends each returned record.
func (s *Schedules) CreateBulk(ctx context.Context, req care.CreateBulkScheduleRequest) ([]care.Schedule, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.cache.Begin()
	var resp dataEnvelope[[]care.Schedule]
	if err := s.api.Post(ctx, "/schedules/bulk", req, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to create schedules"))
		return nil, err
	}
	for i := len(resp.Data) - 1; i >= 0; i-- {
		s.cache.Prepend(resp.Data[i])
	}
	return resp.Data, nil
}

// Update replaces the cached record with the server-returned one.
func (s *Schedules) Update(ctx context.Context, id string, req care.UpdateScheduleRequest) (care.Schedule, error) {
	if err := req.Validate(); err != nil {
		return care.Schedule{}, err
	}
	s.cache.Begin()
	var resp dataEnvelope[care.Schedule]
	if err := s.api.Put(ctx, "/schedules/"+id, req, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to update schedule"))
		return care.Schedule{}, err
	}
	s.cache.Replace(resp.Data)
	return resp.Data, nil
}

// Delete removes the record from the backend and the cache.
func (s *Schedules) Delete(ctx context.Context, id string) error {
	s.cache.Begin()
	if err := s.api.Delete(ctx, "/schedules/"+id, nil, nil); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to delete schedule"))
		return err
	}
	s.cache.Remove(id)
	return nil
}

// Toggle flips the active flag server-side and reconciles the returned record.
func (s *Schedules) Toggle(ctx context.Context, id string) (care.Schedule, error) {
	s.cache.Begin()
	var resp dataEnvelope[care.Schedule]
	if err := s.api.Put(ctx, "/schedules/"+id+"/toggle", nil, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to toggle schedule status"))
		return care.Schedule{}, err
	}
	s.cache.Replace(resp.Data)
	return resp.Data, nil
}

// Templates fetches the backend's preset schedule templates.
func (s *Schedules) Templates(ctx context.Context) ([]care.ScheduleTemplate, error) {
	s.cache.Begin()
	var resp dataEnvelope[[]care.ScheduleTemplate]
	if err := s.api.Get(ctx, "/schedules/templates", nil, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to fetch schedule templates"))
		return nil, err
	}
	s.mu.Lock()
	s.templates = resp.Data
	s.mu.Unlock()
	s.cache.Finish()
	return resp.Data, nil
}

// Reminders fetches the next dose reminders for a user over the given number
// of days.
func (s *Schedules) Reminders(ctx context.Context, userID string, days int) ([]care.ScheduleReminder, error) {
	s.cache.Begin()
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var resp dataEnvelope[[]care.ScheduleReminder]
	if err := s.api.Get(ctx, "/schedules/reminders/"+userID, q, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to fetch next reminders"))
		return nil, err
	}
	s.mu.Lock()
	s.reminders = resp.Data
	s.mu.Unlock()
	s.cache.Finish()
	return resp.Data, nil
}

// CachedTemplates returns the last fetched template list.
func (s *Schedules) CachedTemplates() []care.ScheduleTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]care.ScheduleTemplate(nil), s.templates...)
}

// CachedReminders returns the last fetched reminder list.
func (s *Schedules) CachedReminders() []care.ScheduleReminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]care.ScheduleReminder(nil), s.reminders...)
}
