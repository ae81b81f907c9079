package resources

import (
	"context"
	"net/url"
	"strconv"

	"carelink.org/internal/api"
	"carelink.org/internal/cache"
	"carelink.org/internal/care"
)

// Medications is the medication collection service.
type Medications struct {
	api   *api.Client
	cache *cache.Collection[care.Medication]
}

// NewMedications binds the service to an API client with an empty cache.
func NewMedications(client *api.Client) *Medications {
	return &Medications{
		api:   client,
		cache: cache.New(func(m care.Medication) string { return m.ID }),
	}
}

// Cache exposes the collection for the view layer.
func (s *Medications) Cache() *cache.Collection[care.Medication] { return s.cache }

// List replaces the cache with the filtered page from the backend.
func (s *Medications) List(ctx context.Context, f care.MedicationFilter) ([]care.Medication, error) {
	s.cache.Begin()
	q := url.Values{}
	if f.SeniorID != "" {
		q.Set("seniorId", f.SeniorID)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	if f.SortBy != "" {
		q.Set("sortBy", f.SortBy)
	}
	if f.IsActive != "" {
		q.Set("isActive", f.IsActive)
	}

	var resp pagedEnvelope[care.Medication]
	if err := s.api.Get(ctx, "/medications", q, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to fetch medications"))
		return nil, err
	}
	s.cache.SetList(resp.Data, cache.Page{
		Total: resp.Total, Page: resp.Page, Limit: resp.Limit, TotalPages: resp.TotalPages,
	})
	return resp.Data, nil
}

// Get populates the selected slot independent of the list.
func (s *Medications) Get(ctx context.Context, id string) (care.Medication, error) {
	s.cache.Begin()
	var resp dataEnvelope[care.Medication]
	if err := s.api.Get(ctx, "/medications/"+id, nil, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to fetch medication"))
		return care.Medication{}, err
	}
	s.cache.SetSelected(resp.Data)
	return resp.Data, nil
}

// Create validates client-side, then prepends the created record. The list is
// not re-fetched.
func (s *Medications) Create(ctx context.Context, req care.AddMedicationRequest) (care.Medication, error) {
	if err := req.Validate(); err != nil {
		return care.Medication{}, err
	}
	s.cache.Begin()
	var resp dataEnvelope[care.Medication]
	if err := s.api.Post(ctx, "/medications", req, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to add medication"))
		return care.Medication{}, err
	}
	s.cache.Prepend(resp.Data)
	return resp.Data, nil
}

// Update replaces the cached record with the server-returned one.
func (s *Medications) Update(ctx context.Context, id string, req care.UpdateMedicationRequest) (care.Medication, error) {
	if err := req.Validate(); err != nil {
		return care.Medication{}, err
	}
	s.cache.Begin()
	var resp dataEnvelope[care.Medication]
	if err := s.api.Put(ctx, "/medications/"+id, req, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to update medication"))
		return care.Medication{}, err
	}
	s.cache.Replace(resp.Data)
	return resp.Data, nil
}

// Delete removes the record from the backend and the cache.
func (s *Medications) Delete(ctx context.Context, id string) error {
	s.cache.Begin()
	if err := s.api.Delete(ctx, "/medications/"+id, nil, nil); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to delete medication"))
		return err
	}
	s.cache.Remove(id)
	return nil
}

// Toggle flips the active flag server-side and reconciles the returned record.
func (s *Medications) Toggle(ctx context.Context, id string) (care.Medication, error) {
	s.cache.Begin()
	var resp dataEnvelope[care.Medication]
	if err := s.api.Patch(ctx, "/medications/"+id+"/toggle", nil, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to toggle medication status"))
		return care.Medication{}, err
	}
	s.cache.Replace(resp.Data)
	return resp.Data, nil
}
