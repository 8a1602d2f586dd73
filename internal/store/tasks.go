package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"conflictengine/internal/model"
)

// The engine only reads tasks; the upsert side exists so the host tracker
// (or the CLI import command) can mirror its board state into the store.

// UpsertTask writes or replaces a task row.
func (s *Store) UpsertTask(t *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deps, err := json.Marshal(t.DependsOn)
	if err != nil {
		return fmt.Errorf("failed to marshal dependencies: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO tasks (id, board_id, title, description, assignee_id, start_date, due_date, priority, complexity, progress, depends_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			board_id = excluded.board_id,
			title = excluded.title,
			description = excluded.description,
			assignee_id = excluded.assignee_id,
			start_date = excluded.start_date,
			due_date = excluded.due_date,
			priority = excluded.priority,
			complexity = excluded.complexity,
			progress = excluded.progress,
			depends_on = excluded.depends_on
	`, t.ID, t.BoardID, t.Title, t.Description, t.AssigneeID,
		nullTime(t.StartDate), nullTime(t.DueDate), string(t.Priority),
		t.Complexity, t.Progress, string(deps))
	if err != nil {
		return fmt.Errorf("failed to upsert task %s: %w", t.ID, err)
	}
	return nil
}

// AddBoardMember records board membership used for reassignment suggestions
// and notification fan-out.
func (s *Store) AddBoardMember(boardID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT OR IGNORE INTO board_members (board_id, user_id) VALUES (?, ?)`, boardID, userID)
	if err != nil {
		return fmt.Errorf("failed to add board member: %w", err)
	}
	return nil
}

// BoardMembers returns the user ids belonging to a board.
func (s *Store) BoardMembers(boardID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT user_id FROM board_members WHERE board_id = ? ORDER BY user_id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list board members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

// ListBoards returns every board id known to the store.
func (s *Store) ListBoards() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT DISTINCT board_id FROM tasks
		UNION SELECT DISTINCT board_id FROM board_members
		ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	var boards []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		boards = append(boards, id)
	}
	return boards, rows.Err()
}

// BoardExists reports whether any task or membership references the board.
func (s *Store) BoardExists(boardID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRow(`
		SELECT 1 WHERE EXISTS (SELECT 1 FROM tasks WHERE board_id = ?)
			OR EXISTS (SELECT 1 FROM board_members WHERE board_id = ?)`,
		boardID, boardID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check board %s: %w", boardID, err)
	}
	return true, nil
}

// ListIncompleteTasks returns a board's tasks with progress below 100.
func (s *Store) ListIncompleteTasks(boardID string) ([]model.Task, error) {
	return s.queryTasks(`SELECT `+taskColumns+` FROM tasks WHERE board_id = ? AND progress < 100 ORDER BY id`, boardID)
}

// ListOverdueTasks returns a board's incomplete tasks whose due date is
// before now.
func (s *Store) ListOverdueTasks(boardID string, now time.Time) ([]model.Task, error) {
	return s.queryTasks(`SELECT `+taskColumns+` FROM tasks
		WHERE board_id = ? AND progress < 100 AND due_date IS NOT NULL AND due_date < ?
		ORDER BY due_date`, boardID, now)
}

// GetTask returns one task by id.
func (s *Store) GetTask(id string) (*model.Task, error) {
	tasks, err := s.queryTasks(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	return &tasks[0], nil
}

const taskColumns = `id, board_id, title, description, assignee_id, start_date, due_date, priority, complexity, progress, depends_on`

func (s *Store) queryTasks(query string, args ...any) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		var start, due sql.NullTime
		var priority, deps string
		if err := rows.Scan(&t.ID, &t.BoardID, &t.Title, &t.Description, &t.AssigneeID,
			&start, &due, &priority, &t.Complexity, &t.Progress, &deps); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if start.Valid {
			t.StartDate = start.Time
		}
		if due.Valid {
			t.DueDate = due.Time
		}
		t.Priority = model.TaskPriority(priority)
		if err := json.Unmarshal([]byte(deps), &t.DependsOn); err != nil {
			return nil, fmt.Errorf("failed to parse dependencies for task %s: %w", t.ID, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
