package state

import (
	"reflect"
	"testing"
	"time"

	"github.com/depotctl/depotctl/internal/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestSessionRoundTrip(t *testing.T) {
	m := newTestManager(t)

	if err := m.SaveSession(domain.Session{Username: "mira", Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	s, err := m.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if s.Username != "mira" || s.Role != domain.RoleAdmin {
		t.Errorf("session = %+v", s)
	}
}

func TestSession_OverwriteAndClear(t *testing.T) {
	m := newTestManager(t)

	m.SaveSession(domain.Session{Username: "mira", Role: domain.RoleAdmin})
	m.SaveSession(domain.Session{Username: "jonas", Role: domain.RoleUser})

	s, _ := m.LoadSession()
	if s.Username != "jonas" || s.Role != domain.RoleUser {
		t.Errorf("session after overwrite = %+v", s)
	}

	if err := m.ClearSession(); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	s, err := m.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession after clear: %v", err)
	}
	if s.Valid() {
		t.Errorf("session survived clear: %+v", s)
	}
}

func TestSaveSession_RejectsEmpty(t *testing.T) {
	m := newTestManager(t)

	if err := m.SaveSession(domain.Session{}); err == nil {
		t.Error("empty session accepted")
	}
}

func TestPrefs_DefaultsWhenUnset(t *testing.T) {
	m := newTestManager(t)

	p, err := m.LoadPrefs()
	if err != nil {
		t.Fatalf("LoadPrefs: %v", err)
	}
	if p.DarkMode || !p.Notifications {
		t.Errorf("defaults = %+v, want notifications on, dark mode off", p)
	}
}

func TestPrefs_RoundTrip(t *testing.T) {
	m := newTestManager(t)

	if err := m.SavePrefs(domain.Prefs{DarkMode: true, Notifications: false}); err != nil {
		t.Fatalf("SavePrefs: %v", err)
	}
	p, err := m.LoadPrefs()
	if err != nil {
		t.Fatalf("LoadPrefs: %v", err)
	}
	if !p.DarkMode || p.Notifications {
		t.Errorf("prefs = %+v", p)
	}
}

func TestRecentSearches_DedupKeepsMostRecentPosition(t *testing.T) {
	m := newTestManager(t)

	for _, term := range []string{"alpha", "beta", "alpha"} {
		if err := m.PushRecentSearch("operation", term); err != nil {
			t.Fatalf("PushRecentSearch(%q): %v", term, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	got, err := m.RecentSearches("operation")
	if err != nil {
		t.Fatalf("RecentSearches: %v", err)
	}
	want := []string{"alpha", "beta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RecentSearches = %v, want %v", got, want)
	}
}

func TestRecentSearches_CapAtTen(t *testing.T) {
	m := newTestManager(t)

	terms := []string{"t01", "t02", "t03", "t04", "t05", "t06", "t07", "t08", "t09", "t10", "t11", "t12"}
	for _, term := range terms {
		if err := m.PushRecentSearch("research", term); err != nil {
			t.Fatalf("PushRecentSearch: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	got, err := m.RecentSearches("research")
	if err != nil {
		t.Fatalf("RecentSearches: %v", err)
	}
	if len(got) != RecentSearchCap {
		t.Fatalf("len = %d, want %d", len(got), RecentSearchCap)
	}
	if got[0] != "t12" || got[len(got)-1] != "t03" {
		t.Errorf("window = %v", got)
	}
}

func TestRecentSearches_PerViewIsolation(t *testing.T) {
	m := newTestManager(t)

	m.PushRecentSearch("operation", "drill")
	m.PushRecentSearch("training", "manual")

	op, _ := m.RecentSearches("operation")
	if !reflect.DeepEqual(op, []string{"drill"}) {
		t.Errorf("operation searches = %v", op)
	}
}

func TestActivityCache_RoundTrip(t *testing.T) {
	m := newTestManager(t)

	now := time.Now().UTC().Truncate(time.Second)
	activities := []domain.Activity{
		{ID: 1, Username: "mira", Action: "upload", Detail: "report.txt", Timestamp: now.Add(-time.Minute)},
		{ID: 2, Username: "jonas", Action: "delete", Timestamp: now},
	}
	if err := m.CacheActivities(activities); err != nil {
		t.Fatalf("CacheActivities: %v", err)
	}

	got, err := m.CachedActivities(10)
	if err != nil {
		t.Fatalf("CachedActivities: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].ID != 2 {
		t.Errorf("newest first violated: %+v", got[0])
	}

	// A second cache replaces the first
	if err := m.CacheActivities(activities[:1]); err != nil {
		t.Fatalf("CacheActivities: %v", err)
	}
	got, _ = m.CachedActivities(10)
	if len(got) != 1 {
		t.Errorf("replace semantics violated, len = %d", len(got))
	}
}
