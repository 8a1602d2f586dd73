package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"conflictengine/internal/detect"
	"conflictengine/internal/model"
)

var (
	detectBoardID string
	detectAll     bool
	detectClear   bool
	detectWithAI  bool
)

// detectCmd runs a detection pass over one board or all boards.
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Scan boards for resource, schedule and dependency conflicts",
	Long: `Runs the conflict detectors over the selected boards. Detection is
idempotent: conflicts already active for the same tasks are skipped, so
re-running over an unchanged board creates nothing new.

Examples:
  conflicts detect --board-id sprint-12
  conflicts detect --all-boards --clear --with-ai`,
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().StringVar(&detectBoardID, "board-id", "", "detect conflicts on one board")
	detectCmd.Flags().BoolVar(&detectAll, "all-boards", false, "detect conflicts on every board")
	detectCmd.Flags().BoolVar(&detectClear, "clear", false, "delete existing conflicts for the selected scope first")
	detectCmd.Flags().BoolVar(&detectWithAI, "with-ai", false, "ask the AI adapter to enhance suggestions (best effort)")
	detectCmd.MarkFlagsMutuallyExclusive("board-id", "all-boards")
	detectCmd.MarkFlagsOneRequired("board-id", "all-boards")
}

func runDetect(cmd *cobra.Command, args []string) error {
	eng, s, err := openEngine(detectWithAI)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()

	if detectClear {
		scope := detectBoardID // "" clears everything
		deleted, err := eng.Clear(scope)
		if err != nil {
			return err
		}
		logger.Info("cleared existing conflicts", zap.Int("deleted", deleted), zap.String("board", scope))
	}

	if detectAll {
		batch, err := eng.DetectAllBoards(ctx, detectWithAI)
		if err != nil {
			return err
		}
		for _, board := range batch.Boards {
			printResult(&board)
		}
		for _, be := range batch.Errors {
			fmt.Printf("board %s failed: %s\n", be.BoardID, be.Message)
		}
		fmt.Printf("Total: %d new conflict(s) across %d board(s), %d board error(s)\n",
			batch.Total, len(batch.Boards), len(batch.Errors))
		return nil
	}

	result, err := eng.DetectBoard(ctx, detectBoardID, detectWithAI)
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func printResult(r *detect.Result) {
	fmt.Printf("Board %s (run %s): %d new conflict(s), %d duplicate(s) skipped\n",
		r.BoardID, r.DetectionRunID, r.Total, r.Skipped)
	for _, t := range []model.ConflictType{model.ConflictResource, model.ConflictSchedule, model.ConflictDependency} {
		if n := r.ByType[t]; n > 0 {
			fmt.Printf("  %-11s %d\n", t, n)
		}
	}
	for _, sev := range []model.Severity{model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow} {
		if n := r.BySeverity[sev]; n > 0 {
			fmt.Printf("  %-11s %d\n", sev, n)
		}
	}
	for _, c := range r.Conflicts {
		fmt.Printf("  [%s/%s] %s  %s\n", c.Type, c.Severity, c.ID, c.Title)
	}
}
