// Command conflicts runs the conflict detection and resolution engine
// against a project tracker's board data.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"conflictengine/internal/ai"
	"conflictengine/internal/config"
	"conflictengine/internal/engine"
	"conflictengine/internal/logging"
	"conflictengine/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string

	// Logger
	logger *zap.Logger

	cfg *config.Config
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Conflict detection & resolution learning engine",
	Long: `conflicts scans project boards for resource, schedule and dependency
conflicts, suggests ranked resolutions, and learns from which resolutions
worked to improve future suggestions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Store.DatabasePath = dbPath
		}
		if verbose {
			logging.SetDebug("debug")
		}

		ws, err := os.Getwd()
		if err == nil {
			if err := logging.Initialize(ws); err != nil {
				logger.Warn("file logging unavailable", zap.Error(err))
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// openEngine opens the store and assembles the engine, honoring --with-ai.
func openEngine(withAI bool) (*engine.Engine, *store.Store, error) {
	s, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return nil, nil, err
	}

	var enhancer ai.Enhancer
	if withAI {
		enh, err := ai.NewGenAIEnhancer(cfg.AI.APIKey, cfg.AI.Model, cfg.AITimeout())
		if err != nil {
			// Enhancement is best effort; a missing key must not stop detection.
			logger.Warn("AI enhancement disabled", zap.Error(err))
		} else {
			enhancer = enh
		}
	}
	return engine.New(s, cfg, enhancer), s, nil
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".conflicts/config.yaml", "path to the engine config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "override the sqlite database path")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(ignoreCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(importCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
