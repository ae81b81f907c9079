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

// UserFilter narrows a user list request.
type UserFilter struct {
	Role   string
	Page   int
	Limit  int
	Search string
}

// Users is the user-administration collection service. Alongside the main
// list it tracks the caregiver's seniors, kept in step with user mutations.
type Users struct {
	api   *api.Client
	cache *cache.Collection[care.User]

	mu      sync.RWMutex
	seniors []care.User
}

// NewUsers binds the service to an API client with an empty cache.
func NewUsers(client *api.Client) *Users {
	return &Users{
		api:   client,
		cache: cache.New(func(u care.User) string { return u.ID }),
	}
}

// Cache exposes the collection for the view layer.
func (s *Users) Cache() *cache.Collection[care.User] { return s.cache }

// List replaces the cache with the filtered page from the backend.
func (s *Users) List(ctx context.Context, f UserFilter) ([]care.User, error) {
	s.cache.Begin()
	q := url.Values{}
	if f.Role != "" {
		q.Set("role", f.Role)
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
	var resp pagedEnvelope[care.User]
	if err := s.api.Get(ctx, "/user", q, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to fetch users"))
		return nil, err
	}
	s.cache.SetList(resp.Data, cache.Page{
		Total: resp.Total, Page: resp.Page, Limit: resp.Limit, TotalPages: resp.TotalPages,
	})
	return resp.Data, nil
}

// Get populates the selected slot independent of the list.
func (s *Users) Get(ctx context.Context, id string) (care.User, error) {
	s.cache.Begin()
	var resp dataEnvelope[care.User]
	if err := s.api.Get(ctx, "/user/"+id, nil, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to fetch user"))
		return care.User{}, err
	}
	s.cache.SetSelected(resp.Data)
	return resp.Data, nil
}

// CreateSenior creates a care recipient account and prepends it to both the
// user list and the seniors list.
func (s *Users) CreateSenior(ctx context.Context, req care.CreateSeniorRequest) (care.User, error) {
	s.cache.Begin()
	var resp dataEnvelope[care.User]
	if err := s.api.Post(ctx, "/user/create-senior", req, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to create senior"))
		return care.User{}, err
	}
	s.cache.Prepend(resp.Data)
	s.mu.Lock()
	s.seniors = append([]care.User{resp.Data}, s.seniors...)
	s.mu.Unlock()
	return resp.Data, nil
}

// Update replaces the cached record, in the seniors list too when it matches.
func (s *Users) Update(ctx context.Context, id string, req care.UpdateUserRequest) (care.User, error) {
	s.cache.Begin()
	var resp dataEnvelope[care.User]
	if err := s.api.Put(ctx, "/user/"+id, req, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to update user"))
		return care.User{}, err
	}
	s.cache.Replace(resp.Data)
	s.mu.Lock()
	for i, u := range s.seniors {
		if u.ID == resp.Data.ID {
			s.seniors[i] = resp.Data
			break
		}
	}
	s.mu.Unlock()
	return resp.Data, nil
}

// Delete removes the user from the backend, the cache, and the seniors list.
func (s *Users) Delete(ctx context.Context, id string) error {
	s.cache.Begin()
	if err := s.api.Delete(ctx, "/user/"+id, nil, nil); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to delete user"))
		return err
	}
	s.cache.Remove(id)
	s.mu.Lock()
	for i, u := range s.seniors {
		if u.ID == id {
			s.seniors = append(s.seniors[:i], s.seniors[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// CaregiverSeniors fetches the seniors assigned to the current caregiver.
func (s *Users) CaregiverSeniors(ctx context.Context) ([]care.User, error) {
	s.cache.Begin()
	var resp dataEnvelope[[]care.User]
	if err := s.api.Get(ctx, "/user/caregiver/seniors", nil, &resp); err != nil {
		s.cache.Fail(errorMessage(err, "Failed to fetch seniors"))
		return nil, err
	}
	s.mu.Lock()
	s.seniors = resp.Data
	s.mu.Unlock()
	s.cache.Finish()
	return resp.Data, nil
}

// CachedSeniors returns the last known seniors list.
func (s *Users) CachedSeniors() []care.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]care.User(nil), s.seniors...)
}
