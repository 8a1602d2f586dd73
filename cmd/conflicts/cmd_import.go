package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"conflictengine/internal/model"
)

const importDateFormat = "2006-01-02"

// importFile is the YAML shape accepted by the import command. Dates use
// the YYYY-MM-DD form; omitted dates are stored as zero and skipped by
// the detectors that need them.
type importFile struct {
	Boards []struct {
		ID      string   `yaml:"id"`
		Members []string `yaml:"members"`
		Tasks   []struct {
			ID          string `yaml:"id"`
			Title       string `yaml:"title"`
			Description string `yaml:"description"`
			AssigneeID  string `yaml:"assignee_id"`
			StartDate   string `yaml:"start_date"`
			DueDate     string `yaml:"due_date"`
			Priority    string `yaml:"priority"`
			Complexity  int    `yaml:"complexity"`
			Progress    int    `yaml:"progress"`
		} `yaml:"tasks"`
	} `yaml:"boards"`
}

// importCmd loads board snapshots from a YAML file into the store.
var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import boards, members and tasks from a YAML snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		var file importFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}

		_, s, err := openEngine(false)
		if err != nil {
			return err
		}
		defer s.Close()

		var tasks, members int
		for _, board := range file.Boards {
			if board.ID == "" {
				return fmt.Errorf("board with empty id in %s", args[0])
			}
			for _, userID := range board.Members {
				if err := s.AddBoardMember(board.ID, userID); err != nil {
					return err
				}
				members++
			}
			for _, t := range board.Tasks {
				start, err := parseImportDate(t.StartDate)
				if err != nil {
					return fmt.Errorf("task %s: bad start_date: %w", t.ID, err)
				}
				due, err := parseImportDate(t.DueDate)
				if err != nil {
					return fmt.Errorf("task %s: bad due_date: %w", t.ID, err)
				}
				task := &model.Task{
					ID:          t.ID,
					BoardID:     board.ID,
					Title:       t.Title,
					Description: t.Description,
					AssigneeID:  t.AssigneeID,
					StartDate:   start,
					DueDate:     due,
					Priority:    model.TaskPriority(t.Priority),
					Complexity:  t.Complexity,
					Progress:    t.Progress,
				}
				if err := s.UpsertTask(task); err != nil {
					return fmt.Errorf("task %s: %w", t.ID, err)
				}
				tasks++
			}
		}
		fmt.Printf("Imported %d tasks and %d memberships across %d boards\n",
			tasks, members, len(file.Boards))
		return nil
	},
}

func parseImportDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(importDateFormat, s)
}
