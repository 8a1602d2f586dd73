package store

import (
	"database/sql"
	"fmt"
	"time"

	"conflictengine/internal/model"
)

// GetPattern returns the pattern for one (conflict type, resolution type,
// board) key, or model.ErrNotFound when no history exists yet.
func (s *Store) GetPattern(ct model.ConflictType, rt model.ResolutionType, boardID string) (*model.ResolutionPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, conflict_type, resolution_type, board_id, times_used, times_successful,
		       success_rate, avg_effectiveness, confidence_boost, updated_at
		FROM resolution_patterns
		WHERE conflict_type = ? AND resolution_type = ? AND board_id = ?`,
		string(ct), string(rt), boardID)
	p, err := scanPattern(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("pattern (%s, %s, %q): %w", ct, rt, boardID, model.ErrNotFound)
	}
	return p, err
}

// UpdatePattern runs a read-modify-write on one pattern key inside an
// immediate transaction, creating the row lazily on first use. Concurrent
// resolutions sharing a key serialize on the write lock, so counter updates
// are never lost.
func (s *Store) UpdatePattern(ct model.ConflictType, rt model.ResolutionType, boardID string, update func(*model.ResolutionPattern)) (*model.ResolutionPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// BEGIN IMMEDIATE semantics: take the write lock before reading so a
	// concurrent process cannot interleave its own read.
	if _, err := tx.Exec(`INSERT OR IGNORE INTO resolution_patterns (conflict_type, resolution_type, board_id) VALUES (?, ?, ?)`,
		string(ct), string(rt), boardID); err != nil {
		return nil, fmt.Errorf("failed to ensure pattern row: %w", err)
	}

	row := tx.QueryRow(`
		SELECT id, conflict_type, resolution_type, board_id, times_used, times_successful,
		       success_rate, avg_effectiveness, confidence_boost, updated_at
		FROM resolution_patterns
		WHERE conflict_type = ? AND resolution_type = ? AND board_id = ?`,
		string(ct), string(rt), boardID)
	p, err := scanPattern(row)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern: %w", err)
	}

	update(p)
	p.UpdatedAt = time.Now().UTC()

	if _, err := tx.Exec(`
		UPDATE resolution_patterns
		SET times_used = ?, times_successful = ?, success_rate = ?,
		    avg_effectiveness = ?, confidence_boost = ?, updated_at = ?
		WHERE id = ?`,
		p.TimesUsed, p.TimesSuccessful, p.SuccessRate,
		p.AvgEffectiveness, p.ConfidenceBoost, p.UpdatedAt, p.ID); err != nil {
		return nil, fmt.Errorf("failed to update pattern: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit pattern update: %w", err)
	}
	return p, nil
}

// ListPatterns returns all learned patterns, most used first.
func (s *Store) ListPatterns() ([]model.ResolutionPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, conflict_type, resolution_type, board_id, times_used, times_successful,
		       success_rate, avg_effectiveness, confidence_boost, updated_at
		FROM resolution_patterns ORDER BY times_used DESC, conflict_type, resolution_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	defer rows.Close()

	var patterns []model.ResolutionPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, *p)
	}
	return patterns, rows.Err()
}

func scanPattern(row rowScanner) (*model.ResolutionPattern, error) {
	var p model.ResolutionPattern
	var ct, rt string
	err := row.Scan(&p.ID, &ct, &rt, &p.BoardID, &p.TimesUsed, &p.TimesSuccessful,
		&p.SuccessRate, &p.AvgEffectiveness, &p.ConfidenceBoost, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ConflictType = model.ConflictType(ct)
	p.ResolutionType = model.ResolutionType(rt)
	return &p, nil
}
