// Package store implements sqlite persistence for the conflict engine.
// The engine's correctness invariants live here as constraints rather than
// application checks: the one-active-conflict-per-task-set rule is a partial
// unique index, the one-notification-per-user rule a unique constraint, and
// pattern counter updates run inside immediate transactions.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"conflictengine/internal/logging"
)

// Store wraps the sqlite database holding conflicts, resolutions, learned
// patterns, notifications and the read-only task mirror.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open initializes the sqlite database at the given path, creating the
// schema when missing. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "store.Open")
	defer timer.Stop()

	logging.Store("Opening conflict store at %s", path)

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logging.StoreDebug("Failed to enable sqlite foreign_keys: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.StoreDebug("Conflict store schema initialized")
	return s, nil
}

// initialize creates the schema.
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		board_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		assignee_id TEXT NOT NULL DEFAULT '',
		start_date TIMESTAMP,
		due_date TIMESTAMP,
		priority TEXT NOT NULL DEFAULT 'medium',
		complexity INTEGER NOT NULL DEFAULT 0,
		progress INTEGER NOT NULL DEFAULT 0,
		depends_on TEXT NOT NULL DEFAULT '[]'
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_board ON tasks(board_id);

	CREATE TABLE IF NOT EXISTS board_members (
		board_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		PRIMARY KEY (board_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS conflicts (
		id TEXT PRIMARY KEY,
		board_id TEXT NOT NULL,
		type TEXT NOT NULL,
		severity TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		task_ids TEXT NOT NULL DEFAULT '[]',
		affected_user_ids TEXT NOT NULL DEFAULT '[]',
		pair_key TEXT NOT NULL,
		evidence TEXT NOT NULL DEFAULT '{}',
		detection_run_id TEXT NOT NULL,
		chosen_resolution_id TEXT,
		effectiveness INTEGER,
		feedback TEXT NOT NULL DEFAULT '',
		ignore_reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		resolved_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_conflicts_board_status ON conflicts(board_id, status);
	CREATE INDEX IF NOT EXISTS idx_conflicts_run ON conflicts(detection_run_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_conflicts_active_pair
		ON conflicts(board_id, type, pair_key) WHERE status = 'active';

	CREATE TABLE IF NOT EXISTS resolutions (
		id TEXT PRIMARY KEY,
		conflict_id TEXT NOT NULL REFERENCES conflicts(id),
		type TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		confidence REAL NOT NULL DEFAULT 0,
		auto_applicable INTEGER NOT NULL DEFAULT 0,
		action_steps TEXT NOT NULL DEFAULT '[]',
		implementation TEXT NOT NULL DEFAULT '{}',
		source TEXT NOT NULL DEFAULT 'rule',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_resolutions_conflict ON resolutions(conflict_id);

	CREATE TABLE IF NOT EXISTS resolution_patterns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conflict_type TEXT NOT NULL,
		resolution_type TEXT NOT NULL,
		board_id TEXT NOT NULL DEFAULT '',
		times_used INTEGER NOT NULL DEFAULT 0,
		times_successful INTEGER NOT NULL DEFAULT 0,
		success_rate REAL NOT NULL DEFAULT 0,
		avg_effectiveness REAL NOT NULL DEFAULT 0,
		confidence_boost REAL NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (conflict_type, resolution_type, board_id)
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conflict_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		sent_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		read_at TIMESTAMP,
		acknowledged INTEGER NOT NULL DEFAULT 0,
		UNIQUE (conflict_id, user_id)
	);
	CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// DB exposes the underlying handle for tests.
func (s *Store) DB() *sql.DB { return s.db }

// Stats returns row counts per table.
func (s *Store) Stats() (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int)
	for _, table := range []string{"tasks", "board_members", "conflicts", "resolutions", "resolution_patterns", "notifications"} {
		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		stats[table] = count
	}
	return stats, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
