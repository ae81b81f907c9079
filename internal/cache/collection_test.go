package cache

import "testing"

type rec struct {
	ID   string
	Name string
}

func newTestCollection() *Collection[rec] {
	return New(func(r rec) string { return r.ID })
}

func TestSetListReplacesEverything(t *testing.T) {
	c := newTestCollection()
	c.SetList([]rec{{"a", "one"}, {"b", "two"}}, Page{Total: 2, Page: 1, Limit: 10, TotalPages: 1})

	if got := c.Len(); got != 2 {
		t.Fatalf("len = %d", got)
	}
	list := c.List()
	if list[0].ID != "a" || list[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", list)
	}

	c.SetList([]rec{{"c", "three"}}, Page{Total: 1, Page: 1, Limit: 10, TotalPages: 1})
	if got := c.Len(); got != 1 {
		t.Fatalf("len after replace = %d", got)
	}
	if c.Meta().Total != 1 {
		t.Fatalf("total = %d", c.Meta().Total)
	}
}

func TestPrependAddsAtHeadAndBumpsTotal(t *testing.T) {
	c := newTestCollection()
	c.SetList([]rec{{"a", "one"}}, Page{Total: 1})

	c.Prepend(rec{"b", "two"})

	list := c.List()
	if list[0].ID != "b" {
		t.Fatalf("expected new record at head, got %+v", list)
	}
	if c.Meta().Total != 2 {
		t.Fatalf("total = %d, want 2", c.Meta().Total)
	}
}

func TestReplaceUpdatesListAndSelectedInOneStep(t *testing.T) {
	c := newTestCollection()
	c.SetList([]rec{{"a", "one"}, {"b", "two"}}, Page{Total: 2})
	if !c.Select("a") {
		t.Fatal("select failed")
	}

	c.Replace(rec{"a", "uno"})

	got, ok := c.Get("a")
	if !ok || got.Name != "uno" {
		t.Fatalf("list entry not replaced: %+v", got)
	}
	sel, ok := c.Selected()
	if !ok || sel.Name != "uno" {
		t.Fatalf("selected slot diverged: %+v", sel)
	}
	// Non-matching entries are untouched.
	other, _ := c.Get("b")
	if other.Name != "two" {
		t.Fatalf("unrelated entry changed: %+v", other)
	}
}

func TestReplaceUnknownIDIsNoOp(t *testing.T) {
	c := newTestCollection()
	c.SetList([]rec{{"a", "one"}}, Page{Total: 1})

	c.Replace(rec{"zz", "ghost"})

	if c.Len() != 1 {
		t.Fatalf("len = %d", c.Len())
	}
	if _, ok := c.Get("zz"); ok {
		t.Fatal("no-op replace must not insert")
	}
}

func TestRemoveDropsEntryAndClearsMatchingSelection(t *testing.T) {
	c := newTestCollection()
	c.SetList([]rec{{"a", "one"}, {"b", "two"}}, Page{Total: 2})
	c.Select("a")

	c.Remove("a")

	if _, ok := c.Get("a"); ok {
		t.Fatal("entry still present after remove")
	}
	if c.Meta().Total != 1 {
		t.Fatalf("total = %d, want 1", c.Meta().Total)
	}
	if _, ok := c.Selected(); ok {
		t.Fatal("selected slot should be cleared")
	}
}

func TestRemoveKeepsUnrelatedSelection(t *testing.T) {
	c := newTestCollection()
	c.SetList([]rec{{"a", "one"}, {"b", "two"}}, Page{Total: 2})
	c.Select("b")

	c.Remove("a")

	sel, ok := c.Selected()
	if !ok || sel.ID != "b" {
		t.Fatalf("selection lost: %+v ok=%v", sel, ok)
	}
}

func TestSetSelectedIndependentOfList(t *testing.T) {
	c := newTestCollection()
	c.SetList([]rec{{"a", "one"}}, Page{Total: 1})

	c.SetSelected(rec{"solo", "detail"})

	sel, ok := c.Selected()
	if !ok || sel.ID != "solo" {
		t.Fatalf("selected = %+v ok=%v", sel, ok)
	}
	// The detail record must not leak into the display list.
	if c.Len() != 1 {
		t.Fatalf("len = %d", c.Len())
	}
}

func TestSetListKeepsDetachedSelection(t *testing.T) {
	c := newTestCollection()
	c.SetSelected(rec{"solo", "detail"})

	c.SetList([]rec{{"a", "one"}, {"b", "two"}}, Page{Total: 2})

	sel, ok := c.Selected()
	if !ok || sel.ID != "solo" || sel.Name != "detail" {
		t.Fatalf("detail selection lost across list refetch: %+v ok=%v", sel, ok)
	}
	// The carried-over record stays off the display list.
	if c.Len() != 2 {
		t.Fatalf("len = %d", c.Len())
	}

	// A selection that IS on the new page resolves to the fresh copy.
	c.Select("a")
	c.SetList([]rec{{"a", "uno"}}, Page{Total: 1})
	sel, ok = c.Selected()
	if !ok || sel.Name != "uno" {
		t.Fatalf("listed selection not refreshed: %+v ok=%v", sel, ok)
	}
}

func TestLoadingErrorLifecycle(t *testing.T) {
	c := newTestCollection()

	c.Begin()
	if !c.Loading() {
		t.Fatal("expected loading")
	}

	c.Fail("backend said no")
	if c.Loading() {
		t.Fatal("loading should end on failure")
	}
	if c.Err() != "backend said no" {
		t.Fatalf("err = %q", c.Err())
	}

	c.Begin()
	if c.Err() != "" {
		t.Fatal("Begin must clear the previous error")
	}
	c.SetList(nil, Page{})
	if c.Loading() || c.Err() != "" {
		t.Fatal("success must clear loading and error")
	}
}
