// Package apitest runs an in-memory care backend for package tests. It speaks
// the same envelopes and routes as the production API so client code can be
// exercised end to end without a real deployment.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"carelink.org/internal/care"
)

// Server is a fake care backend bound to an httptest listener.
type Server struct {
	mu sync.Mutex

	users     map[string]care.User
	passwords map[string]string // email -> password
	refresh   map[string]string // refresh token -> user id

	medications map[string]care.Medication
	schedules   map[string]care.Schedule
	notifs      map[string]care.Notification
	settings    map[string]care.NotificationSetting
	fcmTokens   map[string]care.FCMToken

	secret []byte
	http   *httptest.Server
}

// New starts the backend. Close it when the test finishes.
func New() *Server {
	s := &Server{
		users:       make(map[string]care.User),
		passwords:   make(map[string]string),
		refresh:     make(map[string]string),
		medications: make(map[string]care.Medication),
		schedules:   make(map[string]care.Schedule),
		notifs:      make(map[string]care.Notification),
		settings:    make(map[string]care.NotificationSetting),
		fcmTokens:   make(map[string]care.FCMToken),
		secret:      []byte("apitest-signing-secret"),
	}
	s.http = httptest.NewServer(s.router())
	return s
}

// URL is the backend base URL.
func (s *Server) URL() string { return s.http.URL }

// Close shuts the listener down.
func (s *Server) Close() { s.http.Close() }

// SeedUser registers an account with a password and returns it with an id.
func (s *Server) SeedUser(u care.User, password string) care.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = u
	s.passwords[u.Email] = password
	return u
}

// SeedMedication stores a medication record and returns it with an id.
func (s *Server) SeedMedication(m care.Medication) care.Medication {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now().UTC()
	m.UpdatedAt = m.CreatedAt
	s.medications[m.ID] = m
	return m
}

// SeedNotification stores a notification record and returns it with an id.
func (s *Server) SeedNotification(n care.Notification) care.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = time.Now().UTC()
	n.UpdatedAt = n.CreatedAt
	s.notifs[n.ID] = n
	return n
}

// TokenCount reports how many push tokens a user has registered.
func (s *Server) TokenCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.fcmTokens {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/register-caregiver", s.handleRegisterCaregiver)
		r.Post("/refresh-token", s.handleRefresh)
		r.With(s.authenticate).Post("/change-password", s.handleChangePassword)
		r.Post("/forgot-password", s.handleAccepted)
		r.Post("/reset-password", s.handleAccepted)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Route("/medications", func(r chi.Router) {
			r.Get("/", s.handleMedicationList)
			r.Post("/", s.handleMedicationCreate)
			r.Get("/{id}", s.handleMedicationGet)
			r.Put("/{id}", s.handleMedicationUpdate)
			r.Delete("/{id}", s.handleMedicationDelete)
			r.Patch("/{id}/toggle", s.handleMedicationToggle)
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", s.handleScheduleList)
			r.Post("/", s.handleScheduleCreate)
			r.Post("/bulk", s.handleScheduleCreateBulk)
			r.Get("/templates", s.handleScheduleTemplates)
			r.Get("/reminders/{userId}", s.handleScheduleReminders)
			r.Get("/{id}", s.handleScheduleGet)
			r.Put("/{id}", s.handleScheduleUpdate)
			r.Delete("/{id}", s.handleScheduleDelete)
			r.Put("/{id}/toggle", s.handleScheduleToggle)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.handleNotificationList)
			r.Get("/settings", s.handleSettingsGet)
			r.Put("/settings", s.handleSettingsUpdate)
			r.Post("/settings/test", s.handleAccepted)
			r.Get("/stats", s.handleNotificationStats)
			r.Get("/fcm-tokens", s.handleFCMTokenList)
			r.Post("/register-fcm-token", s.handleFCMTokenRegister)
			r.Post("/unregister-fcm-token", s.handleFCMTokenUnregister)
			r.Post("/bulk/mark-read", s.handleNotificationMarkRead)
			r.Delete("/bulk/delete", s.handleNotificationDeleteBulk)
			r.Get("/{id}", s.handleNotificationGet)
			r.Post("/{id}/confirm", s.handleNotificationConfirm)
		})

		r.Route("/user", func(r chi.Router) {
			r.Get("/", s.handleUserList)
			r.Post("/create-senior", s.handleUserCreateSenior)
			r.Get("/caregiver/seniors", s.handleCaregiverSeniors)
			r.Get("/{id}", s.handleUserGet)
			r.Put("/{id}", s.handleUserUpdate)
			r.Delete("/{id}", s.handleUserDelete)
		})
	})

	return r
}

// issueTokens mints a short-lived access JWT and a stored refresh token.
func (s *Server) issueTokens(u care.User) (string, string, error) {
	claims := jwt.MapClaims{
		"sub":  u.ID,
		"role": string(u.Role),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(15 * time.Minute).Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	refresh := uuid.NewString()
	s.refresh[refresh] = u.ID
	return access, refresh, nil
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tok, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return s.secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !tok.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		sub, _ := tok.Claims.GetSubject()
		r.Header.Set("X-Test-User", sub)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) currentUser(r *http.Request) (care.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[r.Header.Get("X-Test-User")]
	return u, ok
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req care.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pw, ok := s.passwords[req.Email]
	if !ok || pw != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	var user care.User
	for _, u := range s.users {
		if u.Email == req.Email {
			user = u
			break
		}
	}
	access, refresh, err := s.issueTokens(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token signing failed")
		return
	}
	writeData(w, care.LoginResponse{AccessToken: access, RefreshToken: refresh, User: user})
}

func (s *Server) handleRegisterCaregiver(w http.ResponseWriter, r *http.Request) {
	var req care.RegisterCaregiverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.passwords[req.Email]; exists {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	u := care.User{
		ID: uuid.NewString(), Email: req.Email, FirstName: req.FirstName,
		LastName: req.LastName, PhoneNumber: req.PhoneNumber, Address: req.Address,
		Role: care.RoleCaregiver, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	s.users[u.ID] = u
	s.passwords[u.Email] = req.Password
	writeData(w, u)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.refresh[req.RefreshToken]
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	delete(s.refresh, req.RefreshToken)
	u := s.users[userID]
	access, refresh, err := s.issueTokens(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token signing failed")
		return
	}
	writeData(w, care.LoginResponse{AccessToken: access, RefreshToken: refresh, User: u})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req care.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	u, ok := s.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.passwords[u.Email] != req.CurrentPassword {
		writeError(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	s.passwords[u.Email] = req.NewPassword
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAccepted(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMedicationList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := make([]care.Medication, 0, len(s.medications))
	for _, m := range s.medications {
		if sid := r.URL.Query().Get("seniorId"); sid != "" && m.SeniorID != sid {
			continue
		}
		items = append(items, m)
	}
	s.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	writePaged(w, r, "data", items)
}

func (s *Server) handleMedicationCreate(w http.ResponseWriter, r *http.Request) {
	var req care.AddMedicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	u, _ := s.currentUser(r)
	m := care.Medication{
		ID: uuid.NewString(), Name: req.Name, Dosage: req.Dosage, Frequency: req.Frequency,
		Instructions: req.Instructions, StartDate: req.StartDate, EndDate: req.EndDate,
		IsActive: true, SeniorID: req.SeniorID, CaregiverID: u.ID,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.medications[m.ID] = m
	s.mu.Unlock()
	writeData(w, m)
}

func (s *Server) handleMedicationGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	m, ok := s.medications[chi.URLParam(r, "id")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Medication not found")
		return
	}
	writeData(w, m)
}

func (s *Server) handleMedicationUpdate(w http.ResponseWriter, r *http.Request) {
	var req care.UpdateMedicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.medications[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Medication not found")
		return
	}
	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Dosage != nil {
		m.Dosage = *req.Dosage
	}
	if req.Frequency != nil {
		m.Frequency = *req.Frequency
	}
	if req.Instructions != nil {
		m.Instructions = *req.Instructions
	}
	if req.StartDate != nil {
		m.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		m.EndDate = *req.EndDate
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	m.UpdatedAt = time.Now().UTC()
	s.medications[m.ID] = m
	writeData(w, m)
}

func (s *Server) handleMedicationDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(s.medications, chi.URLParam(r, "id"))
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMedicationToggle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.medications[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Medication not found")
		return
	}
	m.IsActive = !m.IsActive
	m.UpdatedAt = time.Now().UTC()
	s.medications[m.ID] = m
	writeData(w, m)
}

func (s *Server) handleScheduleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := make([]care.Schedule, 0, len(s.schedules))
	for _, sc := range s.schedules {
		if mid := r.URL.Query().Get("medicationId"); mid != "" && sc.MedicationID != mid {
			continue
		}
		items = append(items, sc)
	}
	s.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	writePaged(w, r, "schedules", items)
}

func (s *Server) handleScheduleCreate(w http.ResponseWriter, r *http.Request) {
	var req care.CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	sc := s.storeSchedule(req.MedicationID, req.Time, req.DaysOfWeek)
	writeData(w, sc)
}

func (s *Server) handleScheduleCreateBulk(w http.ResponseWriter, r *http.Request) {
	var req care.CreateBulkScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	created := make([]care.Schedule, 0, len(req.Schedules))
	for _, slot := range req.Schedules {
		created = append(created, s.storeSchedule(req.MedicationID, slot.Time, slot.DaysOfWeek))
	}
	writeData(w, created)
}

func (s *Server) storeSchedule(medicationID, hhmm string, days []string) care.Schedule {
	sc := care.Schedule{
		ID: uuid.NewString(), MedicationID: medicationID, Time: hhmm,
		DaysOfWeek: days, IsActive: true,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.schedules[sc.ID] = sc
	s.mu.Unlock()
	return sc
}

func (s *Server) handleScheduleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sc, ok := s.schedules[chi.URLParam(r, "id")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Schedule not found")
		return
	}
	writeData(w, sc)
}

func (s *Server) handleScheduleUpdate(w http.ResponseWriter, r *http.Request) {
	var req care.UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Schedule not found")
		return
	}
	if req.Time != nil {
		sc.Time = *req.Time
	}
	if req.DaysOfWeek != nil {
		sc.DaysOfWeek = req.DaysOfWeek
	}
	if req.IsActive != nil {
		sc.IsActive = *req.IsActive
	}
	sc.UpdatedAt = time.Now().UTC()
	s.schedules[sc.ID] = sc
	writeData(w, sc)
}

func (s *Server) handleScheduleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(s.schedules, chi.URLParam(r, "id"))
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScheduleToggle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Schedule not found")
		return
	}
	sc.IsActive = !sc.IsActive
	sc.UpdatedAt = time.Now().UTC()
	s.schedules[sc.ID] = sc
	writeData(w, sc)
}

func (s *Server) handleScheduleTemplates(w http.ResponseWriter, _ *http.Request) {
	writeData(w, []care.ScheduleTemplate{
		{
			ID: "tpl-morning", Name: "Every morning",
			TimeSlots: []string{"08:00"},
			DaysOfWeek: []string{
				"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
			},
			IsActive: true,
		},
		{
			ID: "tpl-twice-daily", Name: "Morning and evening",
			TimeSlots: []string{"08:00", "20:00"},
			DaysOfWeek: []string{
				"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
			},
			IsActive: true,
		},
	})
}

func (s *Server) handleScheduleReminders(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	s.mu.Lock()
	defer s.mu.Unlock()
	reminders := make([]care.ScheduleReminder, 0)
	for _, sc := range s.schedules {
		if !sc.IsActive {
			continue
		}
		m, ok := s.medications[sc.MedicationID]
		if !ok || m.SeniorID != userID {
			continue
		}
		reminders = append(reminders, care.ScheduleReminder{
			ID: uuid.NewString(), ScheduleID: sc.ID,
			ScheduledFor:   time.Now().UTC().Format(time.RFC3339),
			Status:         care.ReminderPending,
			MedicationName: m.Name,
			Time:           sc.Time,
		})
	}
	writeData(w, reminders)
}

func (s *Server) handleNotificationList(w http.ResponseWriter, r *http.Request) {
	u, _ := s.currentUser(r)
	s.mu.Lock()
	items := make([]care.Notification, 0, len(s.notifs))
	for _, n := range s.notifs {
		if n.UserID == u.ID {
			items = append(items, n)
		}
	}
	s.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)
	total := len(items)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": items[offset:end],
		"total":         total,
		"limit":         limit,
		"offset":        offset,
	})
}

func (s *Server) handleNotificationGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n, ok := s.notifs[chi.URLParam(r, "id")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Notification not found")
		return
	}
	writeData(w, n)
}

func (s *Server) handleNotificationConfirm(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifs[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Notification not found")
		return
	}
	if !n.Status.CanTransition(care.NotificationRead) {
		writeError(w, http.StatusConflict, "Notification cannot be confirmed")
		return
	}
	n.Status = care.NotificationRead
	n.ReadAt = time.Now().UTC().Format(time.RFC3339)
	s.notifs[n.ID] = n
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNotificationMarkRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NotificationIDs []string `json:"notificationIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range req.NotificationIDs {
		if n, ok := s.notifs[id]; ok && n.Status.CanTransition(care.NotificationRead) {
			n.Status = care.NotificationRead
			n.ReadAt = time.Now().UTC().Format(time.RFC3339)
			s.notifs[id] = n
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNotificationDeleteBulk(w http.ResponseWriter, r *http.Request) {
	ids := strings.Split(r.URL.Query().Get("ids"), ",")
	s.mu.Lock()
	for _, id := range ids {
		delete(s.notifs, id)
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNotificationStats(w http.ResponseWriter, r *http.Request) {
	u, _ := s.currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := care.NotificationStats{
		ByChannel: make(map[string]int),
		ByType:    make(map[string]int),
	}
	for _, n := range s.notifs {
		if n.UserID != u.ID {
			continue
		}
		stats.Total++
		switch n.Status {
		case care.NotificationSent:
			stats.Sent++
		case care.NotificationDelivered:
			stats.Delivered++
		case care.NotificationRead:
			stats.Read++
		case care.NotificationFailed:
			stats.Failed++
		}
		for _, ch := range n.Channels {
			stats.ByChannel[ch]++
		}
		stats.ByType[string(n.Type)]++
	}
	writeData(w, stats)
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	u, _ := s.currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]care.NotificationSetting, 0)
	for _, st := range s.settings {
		if st.UserID == u.ID {
			out = append(out, st)
		}
	}
	writeData(w, out)
}

func (s *Server) handleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	var req care.UpdateNotificationSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	u, _ := s.currentUser(r)
	key := u.ID + "/" + string(req.Channel)
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[key]
	if !ok {
		st = care.NotificationSetting{
			ID: uuid.NewString(), UserID: u.ID, Channel: req.Channel, Timezone: "UTC",
		}
	}
	st.IsEnabled = req.IsEnabled
	if req.PreferredTime != nil {
		st.PreferredTime = *req.PreferredTime
	}
	if req.Timezone != nil {
		st.Timezone = *req.Timezone
	}
	if req.QuietHoursStart != nil {
		st.QuietHoursStart = *req.QuietHoursStart
	}
	if req.QuietHoursEnd != nil {
		st.QuietHoursEnd = *req.QuietHoursEnd
	}
	if req.MaxNotificationsPerDay != nil {
		st.MaxNotificationsPerDay = *req.MaxNotificationsPerDay
	}
	s.settings[key] = st
	writeData(w, st)
}

func (s *Server) handleFCMTokenList(w http.ResponseWriter, r *http.Request) {
	u, _ := s.currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]care.FCMToken, 0)
	for _, t := range s.fcmTokens {
		if t.UserID == u.ID {
			out = append(out, t)
		}
	}
	writeData(w, out)
}

func (s *Server) handleFCMTokenRegister(w http.ResponseWriter, r *http.Request) {
	var req care.RegisterFCMTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	u, _ := s.currentUser(r)
	t := care.FCMToken{
		ID: uuid.NewString(), UserID: u.ID, Token: req.Token,
		DeviceID: req.DeviceID, DeviceType: req.DeviceType, AppVersion: req.AppVersion,
		IsActive: true, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.fcmTokens[req.Token] = t
	s.mu.Unlock()
	writeData(w, t)
}

func (s *Server) handleFCMTokenUnregister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	s.mu.Lock()
	delete(s.fcmTokens, req.Token)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := make([]care.User, 0, len(s.users))
	for _, u := range s.users {
		if role := r.URL.Query().Get("role"); role != "" && string(u.Role) != role {
			continue
		}
		items = append(items, u)
	}
	s.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	writePaged(w, r, "data", items)
}

func (s *Server) handleUserGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u, ok := s.users[chi.URLParam(r, "id")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeData(w, u)
}

func (s *Server) handleUserCreateSenior(w http.ResponseWriter, r *http.Request) {
	var req care.CreateSeniorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	u := care.User{
		ID: uuid.NewString(), Email: req.Email, FirstName: req.FirstName,
		LastName: req.LastName, PhoneNumber: req.PhoneNumber,
		DateOfBirth: req.DateOfBirth, Address: req.Address,
		EmergencyContact: req.EmergencyContact, Role: care.RoleSenior,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.users[u.ID] = u
	s.passwords[u.Email] = req.Password
	s.mu.Unlock()
	writeData(w, u)
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	var req care.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = *req.PhoneNumber
	}
	if req.DateOfBirth != nil {
		u.DateOfBirth = *req.DateOfBirth
	}
	if req.Address != nil {
		u.Address = *req.Address
	}
	if req.EmergencyContact != nil {
		u.EmergencyContact = *req.EmergencyContact
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	u.UpdatedAt = time.Now().UTC()
	s.users[u.ID] = u
	writeData(w, u)
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(s.users, chi.URLParam(r, "id"))
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCaregiverSeniors(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]care.User, 0)
	for _, u := range s.users {
		if u.Role == care.RoleSenior {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeData(w, out)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, map[string]any{"data": v})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writePaged emits a page-numbered list envelope under the given list field.
func writePaged[T any](w http.ResponseWriter, r *http.Request, field string, items []T) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(r, "limit", 10)
	if limit < 1 {
		limit = 10
	}
	total := len(items)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	totalPages := (total + limit - 1) / limit
	writeJSON(w, http.StatusOK, map[string]any{
		field:        items[start:end],
		"total":      total,
		"page":       page,
		"limit":      limit,
		"totalPages": totalPages,
	})
}
