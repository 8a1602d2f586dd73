// Package config holds the conflict engine configuration. Detection
// thresholds that the host project tracker inherited from practice rather
// than analysis (the 3-overdue-task trigger, the complexity-8 timeline
// check) live here so installs can tune them instead of relying on the
// defaults being right.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all conflict engine configuration.
type Config struct {
	// Store configuration
	Store StoreConfig `yaml:"store"`

	// Detector thresholds
	Detection DetectionConfig `yaml:"detection"`

	// Suggestion generation
	Suggest SuggestConfig `yaml:"suggest"`

	// Pattern learner
	Learning LearningConfig `yaml:"learning"`

	// Optional AI enhancement
	AI AIConfig `yaml:"ai"`

	// Batch detection
	Engine EngineConfig `yaml:"engine"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig configures the sqlite store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// DetectionConfig configures the three detectors.
type DetectionConfig struct {
	// MinOverdueTasks is how many overdue tasks a board needs before
	// overdue-task conflicts are emitted at all.
	MinOverdueTasks int `yaml:"min_overdue_tasks"`

	// OverdueConflictCap limits overdue conflicts per run so a neglected
	// board does not produce a notification storm.
	OverdueConflictCap int `yaml:"overdue_conflict_cap"`

	// UnrealisticComplexity and UnrealisticWindowDays flag tasks whose
	// complexity estimate is at least the former while the scheduled window
	// is shorter than the latter.
	UnrealisticComplexity int `yaml:"unrealistic_complexity"`
	UnrealisticWindowDays int `yaml:"unrealistic_window_days"`
}

// SuggestConfig configures rule-based suggestion generation.
type SuggestConfig struct {
	// DefaultExtensionDays is the due-date extension window proposed for
	// schedule conflicts.
	DefaultExtensionDays int `yaml:"default_extension_days"`
}

// LearningConfig configures the pattern learner.
type LearningConfig struct {
	// SuccessRating is the minimum 1-5 effectiveness rating counted as a
	// success.
	SuccessRating int `yaml:"success_rating"`

	// MinUsesForBoost is how many uses a pattern needs before its
	// confidence boost is recomputed.
	MinUsesForBoost int `yaml:"min_uses_for_boost"`

	// MinBoardUses / MinGlobalUses gate the two-tier boost lookup.
	MinBoardUses  int `yaml:"min_board_uses"`
	MinGlobalUses int `yaml:"min_global_uses"`
}

// AIConfig configures the optional enhancement adapter.
type AIConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// EngineConfig configures batch detection.
type EngineConfig struct {
	// MaxParallelBoards bounds the worker pool for all-board runs.
	MaxParallelBoards int `yaml:"max_parallel_boards"`

	// RunTimeout bounds one whole detection batch.
	RunTimeout string `yaml:"run_timeout"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
	JSONFormat bool            `yaml:"json_format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			DatabasePath: "data/conflicts.db",
		},
		Detection: DetectionConfig{
			MinOverdueTasks:       3,
			OverdueConflictCap:    10,
			UnrealisticComplexity: 8,
			UnrealisticWindowDays: 3,
		},
		Suggest: SuggestConfig{
			DefaultExtensionDays: 7,
		},
		Learning: LearningConfig{
			SuccessRating:   4,
			MinUsesForBoost: 5,
			MinBoardUses:    3,
			MinGlobalUses:   5,
		},
		AI: AIConfig{
			Enabled: false,
			Model:   "gemini-2.5-flash",
			Timeout: "30s",
		},
		Engine: EngineConfig{
			MaxParallelBoards: 4,
			RunTimeout:        "5m",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist. Environment variables win over the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.AI.APIKey = key
	}
	if key := os.Getenv("CONFLICTS_AI_API_KEY"); key != "" {
		c.AI.APIKey = key
	}
	if model := os.Getenv("CONFLICTS_AI_MODEL"); model != "" {
		c.AI.Model = model
	}
	if path := os.Getenv("CONFLICTS_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if os.Getenv("CONFLICTS_DEBUG") == "1" {
		c.Logging.DebugMode = true
		c.Logging.Level = "debug"
	}
}

// AITimeout returns the enhancement adapter timeout as a duration.
func (c *Config) AITimeout() time.Duration {
	d, err := time.ParseDuration(c.AI.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// RunTimeout returns the batch detection timeout as a duration.
func (c *Config) RunTimeout() time.Duration {
	d, err := time.ParseDuration(c.Engine.RunTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}
