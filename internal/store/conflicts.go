package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"conflictengine/internal/logging"
	"conflictengine/internal/model"
)

// CreateConflict inserts a new active conflict. When an active conflict
// already covers the same (board, type, task set), the partial unique index
// rejects the row and model.ErrDuplicateConflict is returned; detection
// treats that as a no-op.
func (s *Store) CreateConflict(c *model.Conflict) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	taskIDs, err := json.Marshal(c.TaskIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal task ids: %w", err)
	}
	userIDs, err := json.Marshal(c.AffectedUserIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal user ids: %w", err)
	}
	evidence, err := model.MarshalEvidence(c.Evidence)
	if err != nil {
		return err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.Exec(`
		INSERT OR IGNORE INTO conflicts
			(id, board_id, type, severity, status, title, description,
			 task_ids, affected_user_ids, pair_key, evidence, detection_run_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.BoardID, string(c.Type), string(c.Severity), string(model.StatusActive),
		c.Title, c.Description, string(taskIDs), string(userIDs), c.PairKey(),
		string(evidence), c.DetectionRunID, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create conflict: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert result: %w", err)
	}
	if affected == 0 {
		logging.StoreDebug("Duplicate active conflict skipped: board=%s type=%s key=%s", c.BoardID, c.Type, c.PairKey())
		return fmt.Errorf("board %s, key %s: %w", c.BoardID, c.PairKey(), model.ErrDuplicateConflict)
	}
	c.Status = model.StatusActive
	return nil
}

// GetConflict returns one conflict by id.
func (s *Store) GetConflict(id string) (*model.Conflict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+conflictColumns+` FROM conflicts WHERE id = ?`, id)
	c, err := scanConflict(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conflict %s: %w", id, model.ErrNotFound)
	}
	return c, err
}

// ListConflicts returns a board's conflicts, optionally filtered by status.
// An empty boardID means every board.
func (s *Store) ListConflicts(boardID string, status model.ConflictStatus) ([]model.Conflict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + conflictColumns + ` FROM conflicts WHERE 1=1`
	var args []any
	if boardID != "" {
		query += ` AND board_id = ?`
		args = append(args, boardID)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []model.Conflict
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, *c)
	}
	return conflicts, rows.Err()
}

// ListActiveConflicts returns a board's active conflicts.
func (s *Store) ListActiveConflicts(boardID string) ([]model.Conflict, error) {
	return s.ListConflicts(boardID, model.StatusActive)
}

// TransitionConflict moves an active conflict into a terminal state. The
// conditional WHERE keeps terminal states terminal even under concurrent
// callers: a second transition matches zero rows and the caller gets
// model.ErrTerminalState.
func (s *Store) TransitionConflict(id string, status model.ConflictStatus, chosenResolutionID *string, effectiveness *int, feedback, ignoreReason string) error {
	if !status.Terminal() {
		return &model.ValidationError{Field: "status", Reason: fmt.Sprintf("%s is not a terminal state", status)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.Exec(`
		UPDATE conflicts
		SET status = ?, resolved_at = ?, chosen_resolution_id = ?, effectiveness = ?, feedback = ?, ignore_reason = ?
		WHERE id = ? AND status = 'active'`,
		string(status), now, chosenResolutionID, effectiveness, feedback, ignoreReason, id)
	if err != nil {
		return fmt.Errorf("failed to transition conflict %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		// Missing row and already-terminal row look the same to the update;
		// distinguish them for the caller.
		var existing string
		err := s.db.QueryRow(`SELECT status FROM conflicts WHERE id = ?`, id).Scan(&existing)
		if err == sql.ErrNoRows {
			return fmt.Errorf("conflict %s: %w", id, model.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to look up conflict %s: %w", id, err)
		}
		return fmt.Errorf("conflict %s has status %s: %w", id, existing, model.ErrTerminalState)
	}
	logging.Lifecycle("Conflict %s -> %s", id, status)
	return nil
}

// DeleteConflictsForBoard removes a board's conflicts and their resolutions
// and notifications. Used by the CLI --clear flag; the engine itself never
// deletes conflicts.
func (s *Store) DeleteConflictsForBoard(boardID string) (int, error) {
	return s.deleteConflicts(`WHERE board_id = ?`, boardID)
}

// DeleteAllConflicts removes every conflict. Used by --all-boards --clear.
func (s *Store) DeleteAllConflicts() (int, error) {
	return s.deleteConflicts(``)
}

func (s *Store) deleteConflicts(where string, args ...any) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sub := `SELECT id FROM conflicts ` + where
	if _, err := tx.Exec(`DELETE FROM notifications WHERE conflict_id IN (`+sub+`)`, args...); err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM resolutions WHERE conflict_id IN (`+sub+`)`, args...); err != nil {
		return 0, fmt.Errorf("failed to delete resolutions: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM conflicts `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete conflicts: %w", err)
	}
	affected, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}
	return int(affected), nil
}

const conflictColumns = `id, board_id, type, severity, status, title, description,
	task_ids, affected_user_ids, evidence, detection_run_id,
	chosen_resolution_id, effectiveness, feedback, ignore_reason, created_at, resolved_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConflict(row rowScanner) (*model.Conflict, error) {
	var c model.Conflict
	var ctype, severity, status, taskIDs, userIDs, evidence string
	var chosen sql.NullString
	var effectiveness sql.NullInt64
	var resolvedAt sql.NullTime

	err := row.Scan(&c.ID, &c.BoardID, &ctype, &severity, &status, &c.Title, &c.Description,
		&taskIDs, &userIDs, &evidence, &c.DetectionRunID,
		&chosen, &effectiveness, &c.Feedback, &c.IgnoreReason, &c.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	c.Type = model.ConflictType(ctype)
	c.Severity = model.Severity(severity)
	c.Status = model.ConflictStatus(status)
	if err := json.Unmarshal([]byte(taskIDs), &c.TaskIDs); err != nil {
		return nil, fmt.Errorf("failed to parse task ids for conflict %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(userIDs), &c.AffectedUserIDs); err != nil {
		return nil, fmt.Errorf("failed to parse user ids for conflict %s: %w", c.ID, err)
	}
	ev, err := model.UnmarshalEvidence([]byte(evidence))
	if err != nil {
		return nil, fmt.Errorf("conflict %s: %w", c.ID, err)
	}
	c.Evidence = ev
	if chosen.Valid {
		c.ChosenResolutionID = &chosen.String
	}
	if effectiveness.Valid {
		v := int(effectiveness.Int64)
		c.Effectiveness = &v
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		c.ResolvedAt = &t
	}
	return &c, nil
}
