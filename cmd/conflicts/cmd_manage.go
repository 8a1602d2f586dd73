package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"conflictengine/internal/model"
)

var (
	resolveFeedback      string
	resolveEffectiveness int
	ignoreReason         string
	listBoardID          string
	listStatus           string
)

// suggestCmd prints a conflict's ranked suggestions.
var suggestCmd = &cobra.Command{
	Use:   "suggest [conflict-id]",
	Short: "Generate and rank resolution suggestions for a conflict",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, s, err := openEngine(false)
		if err != nil {
			return err
		}
		defer s.Close()

		suggestions, err := eng.GenerateSuggestions(args[0])
		if err != nil {
			return err
		}
		for i, r := range suggestions {
			auto := ""
			if r.AutoApplicable {
				auto = " [auto]"
			}
			fmt.Printf("%d. (%.0f) [%s]%s %s  %s\n", i+1, r.Confidence, r.Type, auto, r.ID, r.Title)
			for _, step := range r.ActionSteps {
				fmt.Printf("     - %s\n", step)
			}
		}
		return nil
	},
}

// resolveCmd applies a chosen resolution to a conflict.
var resolveCmd = &cobra.Command{
	Use:   "resolve [conflict-id] [resolution-id]",
	Short: "Mark a conflict resolved with a chosen resolution",
	Long: `Transitions the conflict to resolved and records the outcome with the
pattern learner. An optional --effectiveness rating (1-5) marks how well the
resolution worked; ratings of 4 or 5 count as successes.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, s, err := openEngine(false)
		if err != nil {
			return err
		}
		defer s.Close()

		var effectiveness *int
		if cmd.Flags().Changed("effectiveness") {
			effectiveness = &resolveEffectiveness
		}
		if err := eng.Resolve(args[0], args[1], resolveFeedback, effectiveness); err != nil {
			return err
		}
		fmt.Printf("Conflict %s resolved\n", args[0])
		return nil
	},
}

// ignoreCmd dismisses a conflict.
var ignoreCmd = &cobra.Command{
	Use:   "ignore [conflict-id]",
	Short: "Dismiss a conflict without resolving it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, s, err := openEngine(false)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := eng.Ignore(args[0], ignoreReason); err != nil {
			return err
		}
		fmt.Printf("Conflict %s ignored\n", args[0])
		return nil
	},
}

// listCmd prints conflicts, optionally filtered.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conflicts",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := openEngine(false)
		if err != nil {
			return err
		}
		defer s.Close()

		conflicts, err := s.ListConflicts(listBoardID, model.ConflictStatus(listStatus))
		if err != nil {
			return err
		}
		if len(conflicts) == 0 {
			fmt.Println("No conflicts")
			return nil
		}
		for _, c := range conflicts {
			fmt.Printf("[%s/%s/%s] %s  board=%s  %s\n", c.Type, c.Severity, c.Status, c.ID, c.BoardID, c.Title)
		}
		return nil
	},
}

// statsCmd prints learned pattern statistics.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learned resolution pattern statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := openEngine(false)
		if err != nil {
			return err
		}
		defer s.Close()

		patterns, err := s.ListPatterns()
		if err != nil {
			return err
		}
		if len(patterns) == 0 {
			fmt.Println("No learned patterns yet")
			return nil
		}
		fmt.Printf("%-12s %-18s %-12s %5s %5s %6s %5s %6s\n",
			"CONFLICT", "RESOLUTION", "BOARD", "USED", "SUCC", "RATE", "AVG", "BOOST")
		for _, p := range patterns {
			board := p.BoardID
			if board == model.GlobalBoard {
				board = "(global)"
			}
			fmt.Printf("%-12s %-18s %-12s %5d %5d %6.2f %5.1f %+6.0f\n",
				p.ConflictType, p.ResolutionType, board,
				p.TimesUsed, p.TimesSuccessful, p.SuccessRate, p.AvgEffectiveness, p.ConfidenceBoost)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFeedback, "feedback", "", "free-text feedback on the resolution")
	resolveCmd.Flags().IntVar(&resolveEffectiveness, "effectiveness", 0, "effectiveness rating 1-5")
	ignoreCmd.Flags().StringVar(&ignoreReason, "reason", "", "why the conflict is being ignored")
	listCmd.Flags().StringVar(&listBoardID, "board-id", "", "filter by board")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (active, resolved, ignored, auto_resolved)")
}
