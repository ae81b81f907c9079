// Package cache holds the client-side mirror of a backend collection. One
// generic indexed collection serves all four resource types: records live in
// an id-keyed map, an ordered id list defines display order, and the selected
// slot is an id resolved through the same map, so the list and the selected
// record cannot diverge after a mutation.
package cache

import "sync"

// Page is the pagination metadata returned alongside a list response.
type Page struct {
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// Collection is an in-memory mirror of one backend collection.
type Collection[R any] struct {
	mu sync.RWMutex

	idOf func(R) string

	byID     map[string]R
	order    []string
	selected string

	page    Page
	loading bool
	errMsg  string
}

// New creates a collection. idOf extracts the record identifier.
func New[R any](idOf func(R) string) *Collection[R] {
	return &Collection[R]{
		idOf: idOf,
		byID: make(map[string]R),
	}
}

// Begin marks an operation in flight and clears the previous error.
func (c *Collection[R]) Begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = true
	c.errMsg = ""
}

// Fail records the operation error and ends the in-flight state.
func (c *Collection[R]) Fail(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	c.errMsg = msg
}

// Finish ends the in-flight state with no list mutation, for operations whose
// success leaves the collection untouched.
func (c *Collection[R]) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	c.errMsg = ""
}

// SetList replaces the whole list and pagination metadata. The selected slot
// is untouched: a selected record absent from the new page is carried over
// off-list, the same way SetSelected holds it.
func (c *Collection[R]) SetList(items []R, page Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var held R
	heldOK := false
	if c.selected != "" {
		held, heldOK = c.byID[c.selected]
	}
	c.byID = make(map[string]R, len(items))
	c.order = c.order[:0]
	for _, r := range items {
		id := c.idOf(r)
		c.byID[id] = r
		c.order = append(c.order, id)
	}
	if heldOK {
		if _, ok := c.byID[c.selected]; !ok {
			c.byID[c.selected] = held
		}
	}
	c.page = page
	c.loading = false
	c.errMsg = ""
}

// Prepend puts a freshly created record at the head of the list and bumps the
// total. A record with a known id is replaced in place instead.
func (c *Collection[R]) Prepend(r R) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.idOf(r)
	if _, ok := c.byID[id]; ok {
		c.byID[id] = r
	} else {
		c.byID[id] = r
		c.order = append([]string{id}, c.order...)
		c.page.Total++
	}
	c.loading = false
	c.errMsg = ""
}

// Replace swaps the stored record for the server-returned one by identifier
// equality. An unknown id is a silent no-op. Because the selected slot
// resolves through the same map, list and selection update in one step.
func (c *Collection[R]) Replace(r R) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.idOf(r)
	if _, ok := c.byID[id]; ok {
		c.byID[id] = r
	}
	c.loading = false
	c.errMsg = ""
}

// Remove drops the record, decrements the total if it was listed, and clears
// the selected slot iff it held that id.
func (c *Collection[R]) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[id]; ok {
		delete(c.byID, id)
		for i, oid := range c.order {
			if oid == id {
				c.order = append(c.order[:i], c.order[i+1:]...)
				c.page.Total--
				break
			}
		}
	}
	if c.selected == id {
		c.selected = ""
	}
	c.loading = false
	c.errMsg = ""
}

// SetSelected stores the record and points the selected slot at it. The
// record does not join the display list unless it was already listed.
func (c *Collection[R]) SetSelected(r R) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.idOf(r)
	c.byID[id] = r
	c.selected = id
	c.loading = false
	c.errMsg = ""
}

// Select points the selected slot at an already-cached id.
func (c *Collection[R]) Select(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[id]; !ok {
		return false
	}
	c.selected = id
	return true
}

// ClearSelected empties the selected slot.
func (c *Collection[R]) ClearSelected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = ""
}

// List returns the records in display order.
func (c *Collection[R]) List() []R {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]R, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Get returns the cached record for id.
func (c *Collection[R]) Get(id string) (R, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.byID[id]
	return r, ok
}

// Selected returns the record in the selected slot.
func (c *Collection[R]) Selected() (R, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var zero R
	if c.selected == "" {
		return zero, false
	}
	r, ok := c.byID[c.selected]
	if !ok {
		return zero, false
	}
	return r, true
}

// Meta returns the pagination metadata from the last list response.
func (c *Collection[R]) Meta() Page {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.page
}

// Loading reports whether an operation is in flight.
func (c *Collection[R]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the last operation error, or "" after a success.
func (c *Collection[R]) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errMsg
}

// Len reports how many records are in the display list.
func (c *Collection[R]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
