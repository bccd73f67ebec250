package handlers

import (
	"context"
	"net/http"
	stdsync "sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"finresolve/internal/cache"
	"finresolve/internal/models"
	"finresolve/internal/store"
	"finresolve/internal/sync"
)

// --- in-memory store and cache fakes ---

// stubStore is an in-memory ProfileStore with optional function overrides,
// good enough for handler tests that only need the engine to come up READY.
type stubStore struct {
	mu        stdsync.Mutex
	profiles  map[string]models.Profile // keyed by user id
	entries   map[string][]models.SpendingEntry
	summaries map[string][]models.SpendingSummary
	goals     map[string][]models.SavingsGoal

	findProfileFn func(ctx context.Context, userID string) (*models.Profile, error)
}

func newStubStore() *stubStore {
	return &stubStore{
		profiles:  make(map[string]models.Profile),
		entries:   make(map[string][]models.SpendingEntry),
		summaries: make(map[string][]models.SpendingSummary),
		goals:     make(map[string][]models.SavingsGoal),
	}
}

func (s *stubStore) FindProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	if s.findProfileFn != nil {
		return s.findProfileFn(ctx, userID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[userID]; ok {
		out := p
		return &out, nil
	}
	return nil, nil
}

func (s *stubStore) ListSpendingEntries(_ context.Context, profileID string) ([]models.SpendingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[profileID], nil
}

func (s *stubStore) ListSpendingSummaries(_ context.Context, profileID string) ([]models.SpendingSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaries[profileID], nil
}

func (s *stubStore) ListGoals(_ context.Context, profileID string) ([]models.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goals[profileID], nil
}

func (s *stubStore) UpsertProfile(_ context.Context, profile models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = profile
	return nil
}

func (s *stubStore) DeleteProfile(_ context.Context, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, p := range s.profiles {
		if p.ID == profileID {
			delete(s.profiles, userID)
		}
	}
	delete(s.entries, profileID)
	delete(s.summaries, profileID)
	delete(s.goals, profileID)
	return nil
}

func (s *stubStore) ReplaceSpendingSummaries(_ context.Context, profileID string, summaries []models.SpendingSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[profileID] = summaries
	return nil
}

func (s *stubStore) DeleteGoals(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	for profileID, goals := range s.goals {
		kept := goals[:0]
		for _, g := range goals {
			if !drop[g.ID] {
				kept = append(kept, g)
			}
		}
		s.goals[profileID] = kept
	}
	return nil
}

func (s *stubStore) UpsertGoals(_ context.Context, profileID string, goals []models.SavingsGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[profileID] = goals
	return nil
}

func (s *stubStore) InsertSpendingEntries(_ context.Context, profileID string, entries []models.SpendingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[profileID] = append(s.entries[profileID], entries...)
	return nil
}

var _ store.ProfileStore = (*stubStore)(nil)

// memCache is a map-backed Cache.
type memCache struct {
	mu      stdsync.Mutex
	entries map[string]models.Profile
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]models.Profile)}
}

func (m *memCache) Get(key string) (models.Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.entries[key]
	return p, ok
}

func (m *memCache) Set(key string, profile models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = profile
	return nil
}

func (m *memCache) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

var _ cache.Cache = (*memCache)(nil)

func newTestRegistry() *sync.Registry {
	return sync.NewRegistry(newStubStore(), newMemCache(), 10*time.Millisecond)
}

func setupProfileRouter(handler *ProfileHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/profile", handler.GetProfile)
	auth.PUT("/profile/income", handler.UpdateIncome)
	auth.PUT("/profile/name", handler.UpdateName)
	auth.POST("/profile/onboarding/complete", handler.CompleteOnboarding)
	auth.POST("/profile/reset", handler.ResetProfile)
	return r
}

// --- tests ---

func TestProfileHandler_GetProfile(t *testing.T) {
	t.Run("returns an empty ready profile for a new user", func(t *testing.T) {
		handler := NewProfileHandler(newTestRegistry())
		r := setupProfileRouter(handler)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["is_loading"] != false {
			t.Error("expected is_loading false after ForUser")
		}
		if result["sync_status"] != "ok" {
			t.Errorf("expected sync_status ok, got %v", result["sync_status"])
		}
		if result["data_completeness"].(float64) != 0 {
			t.Errorf("expected completeness 0, got %v", result["data_completeness"])
		}
	})

	t.Run("returns 401 without a user", func(t *testing.T) {
		handler := NewProfileHandler(newTestRegistry())
		r := gin.New()
		r.GET("/profile", handler.GetProfile)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestProfileHandler_UpdateIncome(t *testing.T) {
	t.Run("replaces income and raises completeness", func(t *testing.T) {
		handler := NewProfileHandler(newTestRegistry())
		r := setupProfileRouter(handler)

		rec := doRequest(r, "PUT", "/profile/income",
			`{"amount":"5000","frequency":"monthly","confidence":"high","source":"payslip"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["data_completeness"].(float64) != 30 {
			t.Errorf("expected completeness 30 with income only, got %v", result["data_completeness"])
		}
		profile := result["profile"].(map[string]interface{})
		income := profile["income"].(map[string]interface{})
		if income["frequency"] != "monthly" {
			t.Errorf("expected monthly frequency, got %v", income["frequency"])
		}
	})

	t.Run("returns 400 on unknown frequency", func(t *testing.T) {
		handler := NewProfileHandler(newTestRegistry())
		r := setupProfileRouter(handler)

		rec := doRequest(r, "PUT", "/profile/income",
			`{"amount":"5000","frequency":"fortnightly","confidence":"high"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestProfileHandler_UpdateName(t *testing.T) {
	t.Run("sets the display name", func(t *testing.T) {
		handler := NewProfileHandler(newTestRegistry())
		r := setupProfileRouter(handler)

		rec := doRequest(r, "PUT", "/profile/name", `{"name":"Jane"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		profile := parseJSON(t, rec)["profile"].(map[string]interface{})
		if profile["name"] != "Jane" {
			t.Errorf("expected Jane, got %v", profile["name"])
		}
	})

	t.Run("returns 400 on empty name", func(t *testing.T) {
		handler := NewProfileHandler(newTestRegistry())
		r := setupProfileRouter(handler)

		rec := doRequest(r, "PUT", "/profile/name", `{"name":""}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestProfileHandler_CompleteOnboarding(t *testing.T) {
	t.Run("sets the flag and persists immediately", func(t *testing.T) {
		st := newStubStore()
		registry := sync.NewRegistry(st, newMemCache(), time.Hour)
		handler := NewProfileHandler(registry)
		r := setupProfileRouter(handler)

		rec := doRequest(r, "POST", "/profile/onboarding/complete", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		profile := parseJSON(t, rec)["profile"].(map[string]interface{})
		if profile["has_completed_onboarding"] != true {
			t.Error("expected has_completed_onboarding true")
		}

		// Persisted without waiting out the hour-long debounce window.
		remote, err := st.FindProfileByUserID(context.Background(), testUserID)
		if err != nil || remote == nil {
			t.Fatalf("expected remote profile row, got %v, %v", remote, err)
		}
		if !remote.HasCompletedOnboarding {
			t.Error("expected onboarding flag persisted remotely")
		}
	})
}

func TestProfileHandler_ResetProfile(t *testing.T) {
	t.Run("returns a fresh empty profile", func(t *testing.T) {
		registry := newTestRegistry()
		handler := NewProfileHandler(registry)
		r := setupProfileRouter(handler)

		doRequest(r, "PUT", "/profile/name", `{"name":"Jane"}`)
		rec := doRequest(r, "POST", "/profile/reset", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		profile := result["profile"].(map[string]interface{})
		if name, ok := profile["name"]; ok && name != "" {
			t.Errorf("expected empty name after reset, got %v", name)
		}
		if result["data_completeness"].(float64) != 0 {
			t.Errorf("expected completeness 0 after reset, got %v", result["data_completeness"])
		}
	})
}
