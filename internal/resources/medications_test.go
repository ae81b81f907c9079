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

func med(id, name string, active bool) care.Medication {
	return care.Medication{
		ID: id, Name: name, Dosage: "10mg", Frequency: "daily",
		StartDate: "2026-01-01", IsActive: active, SeniorID: "s1", CaregiverID: "c1",
	}
}

func newMedService(t *testing.T, handler http.Handler) *Medications {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := api.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	return NewMedications(client)
}

func TestMedicationsListPopulatesCache(t *testing.T) {
	var gotQuery string
	svc := newMedService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":  []care.Medication{med("m1", "Aspirin", true), med("m2", "Lisinopril", true)},
			"total": 2, "page": 1, "limit": 10, "totalPages": 1,
		})
	}))

	items, err := svc.List(context.Background(), care.MedicationFilter{SeniorID: "s1", Page: 1, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d", len(items))
	}
	if gotQuery != "limit=10&page=1&seniorId=s1" {
		t.Fatalf("query = %q", gotQuery)
	}
	c := svc.Cache()
	if c.Len() != 2 || c.Meta().Total != 2 || c.Loading() || c.Err() != "" {
		t.Fatalf("cache state: len=%d meta=%+v loading=%v err=%q", c.Len(), c.Meta(), c.Loading(), c.Err())
	}
}

func TestMedicationsCreatePrependsAndBumpsTotal(t *testing.T) {
	svc := newMedService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []care.Medication{med("m1", "Aspirin", true)}, "total": 1, "page": 1, "limit": 10, "totalPages": 1,
			})
		case r.Method == http.MethodPost:
			_ = json.NewEncoder(w).Encode(map[string]any{"data": med("m9", "Metformin", true)})
		}
	}))
	if _, err := svc.List(context.Background(), care.MedicationFilter{}); err != nil {
		t.Fatal(err)
	}

	created, err := svc.Create(context.Background(), care.AddMedicationRequest{
		Name: "Metformin", Dosage: "500mg", Frequency: "twice daily",
		StartDate: "2026-02-01", SeniorID: "s1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID != "m9" {
		t.Fatalf("created = %+v", created)
	}
	list := svc.Cache().List()
	if list[0].ID != "m9" {
		t.Fatalf("new record not at head: %+v", list)
	}
	if svc.Cache().Meta().Total != 2 {
		t.Fatalf("total = %d, want 2", svc.Cache().Meta().Total)
	}
}

func TestMedicationsCreateValidatesDateRange(t *testing.T) {
	svc := newMedService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid request must not reach the backend")
	}))

	_, err := svc.Create(context.Background(), care.AddMedicationRequest{
		Name: "X", SeniorID: "s1", StartDate: "2026-03-01", EndDate: "2026-02-01",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestMedicationsUpdateReplacesListAndSelected(t *testing.T) {
	renamed := med("m1", "Aspirin 100", true)
	svc := newMedService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if r.URL.Path == "/medications/m1" {
				_ = json.NewEncoder(w).Encode(map[string]any{"data": med("m1", "Aspirin", true)})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []care.Medication{med("m1", "Aspirin", true), med("m2", "Other", true)},
				"total": 2, "page": 1, "limit": 10, "totalPages": 1,
			})
		case http.MethodPut:
			_ = json.NewEncoder(w).Encode(map[string]any{"data": renamed})
		}
	}))
	if _, err := svc.List(context.Background(), care.MedicationFilter{}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(context.Background(), "m1"); err != nil {
		t.Fatal(err)
	}

	name := "Aspirin 100"
	if _, err := svc.Update(context.Background(), "m1", care.UpdateMedicationRequest{Name: &name}); err != nil {
		t.Fatal(err)
	}

	got, _ := svc.Cache().Get("m1")
	if got.Name != "Aspirin 100" {
		t.Fatalf("list entry = %+v", got)
	}
	sel, ok := svc.Cache().Selected()
	if !ok || sel.Name != "Aspirin 100" {
		t.Fatalf("selected = %+v ok=%v", sel, ok)
	}
	other, _ := svc.Cache().Get("m2")
	if other.Name != "Other" {
		t.Fatalf("unrelated entry touched: %+v", other)
	}
}

func TestMedicationsDeleteRemovesAndClearsSelection(t *testing.T) {
	svc := newMedService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if r.URL.Path == "/medications/m1" {
				_ = json.NewEncoder(w).Encode(map[string]any{"data": med("m1", "Aspirin", true)})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []care.Medication{med("m1", "Aspirin", true)}, "total": 1, "page": 1, "limit": 10, "totalPages": 1,
			})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	if _, err := svc.List(context.Background(), care.MedicationFilter{}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(context.Background(), "m1"); err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(context.Background(), "m1"); err != nil {
		t.Fatal(err)
	}
	c := svc.Cache()
	if _, ok := c.Get("m1"); ok {
		t.Fatal("record survived delete")
	}
	if c.Meta().Total != 0 {
		t.Fatalf("total = %d", c.Meta().Total)
	}
	if _, ok := c.Selected(); ok {
		t.Fatal("selected slot not cleared")
	}
}

func TestMedicationsToggleFlipsActiveFlag(t *testing.T) {
	svc := newMedService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []care.Medication{med("m1", "Aspirin", true), med("m2", "Other", true)},
				"total": 2, "page": 1, "limit": 10, "totalPages": 1,
			})
		case http.MethodPatch:
			if r.URL.Path != "/medications/m1/toggle" {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"data": med("m1", "Aspirin", false)})
		}
	}))
	if _, err := svc.List(context.Background(), care.MedicationFilter{}); err != nil {
		t.Fatal(err)
	}

	toggled, err := svc.Toggle(context.Background(), "m1")
	if err != nil {
		t.Fatal(err)
	}
	if toggled.IsActive {
		t.Fatal("expected inactive record")
	}
	got, _ := svc.Cache().Get("m1")
	if got.IsActive {
		t.Fatal("cache entry for m1 still active")
	}
	other, _ := svc.Cache().Get("m2")
	if !other.IsActive {
		t.Fatal("unrelated entry changed")
	}
}

func TestMedicationsListFailureRecordsError(t *testing.T) {
	svc := newMedService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "caregiver has no access"})
	}))

	if _, err := svc.List(context.Background(), care.MedicationFilter{}); err == nil {
		t.Fatal("expected error")
	}
	c := svc.Cache()
	if c.Loading() {
		t.Fatal("loading must end on failure")
	}
	if c.Err() != "caregiver has no access" {
		t.Fatalf("err = %q", c.Err())
	}
}
