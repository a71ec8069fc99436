// Package state persists the client-held state that the original views
// kept in browser localStorage: session identity, UI preferences and
// per-view recent searches, plus a small activity cache for offline
// display. Everything lives in one sqlite database under the data dir.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/depotctl/depotctl/internal/domain"
)

// RecentSearchCap bounds each view's recent-search list
const RecentSearchCap = 10

// Manager handles local state persistence
type Manager struct {
	db *sql.DB
}

// NewManager opens (or creates) the state database under dataDir
func NewManager(dataDir string) (*Manager, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "depotctl.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Limit connection pool to prevent "database is locked" errors
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	manager := &Manager{db: db}
	if err := manager.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return manager, nil
}

func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS session (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		username TEXT NOT NULL,
		role TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS prefs (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		dark_mode INTEGER NOT NULL DEFAULT 0,
		notifications INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS recent_searches (
		view TEXT NOT NULL,
		term TEXT NOT NULL,
		used_at TIMESTAMP NOT NULL,
		PRIMARY KEY (view, term)
	);

	CREATE TABLE IF NOT EXISTS activity_cache (
		id INTEGER PRIMARY KEY,
		username TEXT NOT NULL,
		action TEXT NOT NULL,
		detail TEXT,
		ts TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_recent_view_time ON recent_searches(view, used_at DESC);
	CREATE INDEX IF NOT EXISTS idx_activity_time ON activity_cache(ts DESC);
	`
	_, err := m.db.Exec(schema)
	return err
}

// SaveSession records the active session identity
func (m *Manager) SaveSession(s domain.Session) error {
	if !s.Valid() {
		return fmt.Errorf("cannot save an empty session")
	}
	_, err := m.db.Exec(`
		INSERT INTO session (id, username, role, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET username = excluded.username, role = excluded.role, updated_at = excluded.updated_at
	`, s.Username, string(s.Role), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSession returns the stored session; a zero session when none exists
func (m *Manager) LoadSession() (domain.Session, error) {
	var s domain.Session
	var role string
	err := m.db.QueryRow(`SELECT username, role FROM session WHERE id = 1`).Scan(&s.Username, &role)
	if err == sql.ErrNoRows {
		return domain.Session{}, nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	s.Role = domain.Role(role)
	return s, nil
}

// ClearSession removes the stored session identity
func (m *Manager) ClearSession() error {
	if _, err := m.db.Exec(`DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// SavePrefs records the UI preferences
func (m *Manager) SavePrefs(p domain.Prefs) error {
	_, err := m.db.Exec(`
		INSERT INTO prefs (id, dark_mode, notifications) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET dark_mode = excluded.dark_mode, notifications = excluded.notifications
	`, boolToInt(p.DarkMode), boolToInt(p.Notifications))
	if err != nil {
		return fmt.Errorf("failed to save prefs: %w", err)
	}
	return nil
}

// LoadPrefs returns the stored preferences, or the defaults when unset
func (m *Manager) LoadPrefs() (domain.Prefs, error) {
	var dark, notif int
	err := m.db.QueryRow(`SELECT dark_mode, notifications FROM prefs WHERE id = 1`).Scan(&dark, &notif)
	if err == sql.ErrNoRows {
		return domain.Prefs{Notifications: true}, nil
	}
	if err != nil {
		return domain.Prefs{}, fmt.Errorf("failed to load prefs: %w", err)
	}
	return domain.Prefs{DarkMode: dark != 0, Notifications: notif != 0}, nil
}

// PushRecentSearch records a search term for a view. Re-searching an
// existing term moves it to the front; the list is capped at
// RecentSearchCap with the oldest terms dropped.
func (m *Manager) PushRecentSearch(view, term string) error {
	if term == "" {
		return nil
	}
	_, err := m.db.Exec(`
		INSERT INTO recent_searches (view, term, used_at) VALUES (?, ?, ?)
		ON CONFLICT(view, term) DO UPDATE SET used_at = excluded.used_at
	`, view, term, time.Now())
	if err != nil {
		return fmt.Errorf("failed to push recent search: %w", err)
	}

	_, err = m.db.Exec(`
		DELETE FROM recent_searches WHERE view = ? AND term NOT IN (
			SELECT term FROM recent_searches WHERE view = ? ORDER BY used_at DESC LIMIT ?
		)
	`, view, view, RecentSearchCap)
	if err != nil {
		return fmt.Errorf("failed to trim recent searches: %w", err)
	}
	return nil
}

// RecentSearches returns a view's recent terms, most recent first
func (m *Manager) RecentSearches(view string) ([]string, error) {
	rows, err := m.db.Query(`
		SELECT term FROM recent_searches WHERE view = ? ORDER BY used_at DESC, rowid DESC LIMIT ?
	`, view, RecentSearchCap)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent searches: %w", err)
	}
	defer rows.Close()

	var terms []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan recent search: %w", err)
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent searches: %w", err)
	}
	return terms, nil
}

// CacheActivities replaces the offline activity cache
func (m *Manager) CacheActivities(activities []domain.Activity) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM activity_cache`); err != nil {
		return fmt.Errorf("failed to clear activity cache: %w", err)
	}
	for _, a := range activities {
		_, err := tx.Exec(`
			INSERT INTO activity_cache (id, username, action, detail, ts) VALUES (?, ?, ?, ?, ?)
		`, a.ID, a.Username, a.Action, a.Detail, a.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to cache activity: %w", err)
		}
	}
	return tx.Commit()
}

// CachedActivities returns the cached feed, newest first
func (m *Manager) CachedActivities(limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := m.db.Query(`
		SELECT id, username, action, detail, ts FROM activity_cache ORDER BY ts DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity cache: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var a domain.Activity
		var detail sql.NullString
		if err := rows.Scan(&a.ID, &a.Username, &a.Action, &detail, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.Detail = detail.String
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}
	return activities, nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
