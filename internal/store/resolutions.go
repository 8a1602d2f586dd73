package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"conflictengine/internal/model"
)

// SaveResolutions persists a conflict's suggestion list for audit and later
// selection. Existing rows for the conflict are replaced so re-running the
// suggester does not accumulate stale candidates.
func (s *Store) SaveResolutions(conflictID string, resolutions []model.Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM resolutions WHERE conflict_id = ?`, conflictID); err != nil {
		return fmt.Errorf("failed to clear old resolutions: %w", err)
	}

	for i := range resolutions {
		r := &resolutions[i]
		steps, err := json.Marshal(r.ActionSteps)
		if err != nil {
			return fmt.Errorf("failed to marshal action steps: %w", err)
		}
		impl := []byte(`{}`)
		if len(r.Implementation) > 0 {
			impl = r.Implementation
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
		if _, err := tx.Exec(`
			INSERT INTO resolutions (id, conflict_id, type, title, description, confidence, auto_applicable, action_steps, implementation, source, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, conflictID, string(r.Type), r.Title, r.Description, r.Confidence,
			boolToInt(r.AutoApplicable), string(steps), string(impl), string(r.Source), r.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert resolution %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit resolutions: %w", err)
	}
	return nil
}

// GetResolution returns one resolution by id.
func (s *Store) GetResolution(id string) (*model.Resolution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+resolutionColumns+` FROM resolutions WHERE id = ?`, id)
	r, err := scanResolution(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("resolution %s: %w", id, model.ErrNotFound)
	}
	return r, err
}

// ListResolutions returns a conflict's suggestions ordered by confidence
// descending, preserving insertion order on ties.
func (s *Store) ListResolutions(conflictID string) ([]model.Resolution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT `+resolutionColumns+` FROM resolutions
		WHERE conflict_id = ? ORDER BY confidence DESC, created_at, id`, conflictID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolutions: %w", err)
	}
	defer rows.Close()

	var resolutions []model.Resolution
	for rows.Next() {
		r, err := scanResolution(rows)
		if err != nil {
			return nil, err
		}
		resolutions = append(resolutions, *r)
	}
	return resolutions, rows.Err()
}

const resolutionColumns = `id, conflict_id, type, title, description, confidence, auto_applicable, action_steps, implementation, source, created_at`

func scanResolution(row rowScanner) (*model.Resolution, error) {
	var r model.Resolution
	var rtype, steps, impl, source string
	var auto int

	err := row.Scan(&r.ID, &r.ConflictID, &rtype, &r.Title, &r.Description,
		&r.Confidence, &auto, &steps, &impl, &source, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Type = model.ResolutionType(rtype)
	r.AutoApplicable = auto != 0
	r.Source = model.ResolutionSource(source)
	if err := json.Unmarshal([]byte(steps), &r.ActionSteps); err != nil {
		return nil, fmt.Errorf("failed to parse action steps for resolution %s: %w", r.ID, err)
	}
	r.Implementation = json.RawMessage(impl)
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
