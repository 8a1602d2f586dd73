package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 3, cfg.Detection.MinOverdueTasks)
	assert.Equal(t, 10, cfg.Detection.OverdueConflictCap)
	assert.Equal(t, 8, cfg.Detection.UnrealisticComplexity)
	assert.Equal(t, 3, cfg.Detection.UnrealisticWindowDays)
	assert.Equal(t, 7, cfg.Suggest.DefaultExtensionDays)
	assert.Equal(t, 4, cfg.Learning.SuccessRating)
	assert.Equal(t, 5, cfg.Learning.MinUsesForBoost)
	assert.Equal(t, 4, cfg.Engine.MaxParallelBoards)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, 30*time.Second, cfg.AITimeout())
	assert.Equal(t, 5*time.Minute, cfg.RunTimeout())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Detection, cfg.Detection)
}

func TestLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	cfg := DefaultConfig()
	cfg.Detection.MinOverdueTasks = 5
	cfg.Store.DatabasePath = "elsewhere.db"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Detection.MinOverdueTasks)
	assert.Equal(t, "elsewhere.db", loaded.Store.DatabasePath)
	// Sections absent from the file keep their defaults.
	assert.Equal(t, 7, loaded.Suggest.DefaultExtensionDays)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("detection:\n  min_overdue_tasks: 1\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Detection.MinOverdueTasks)
	assert.Equal(t, 10, cfg.Detection.OverdueConflictCap)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("detection: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-gemini")
	t.Setenv("CONFLICTS_AI_MODEL", "gemini-2.5-pro")
	t.Setenv("CONFLICTS_DB", "/tmp/override.db")
	t.Setenv("CONFLICTS_DEBUG", "1")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-gemini", cfg.AI.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.AI.Model)
	assert.Equal(t, "/tmp/override.db", cfg.Store.DatabasePath)
	assert.True(t, cfg.Logging.DebugMode)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// The dedicated key wins over the generic one.
	t.Setenv("CONFLICTS_AI_API_KEY", "from-conflicts")
	cfg, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-conflicts", cfg.AI.APIKey)
}

func TestTimeoutFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AI.Timeout = "not-a-duration"
	cfg.Engine.RunTimeout = "-3s"
	assert.Equal(t, 30*time.Second, cfg.AITimeout())
	assert.Equal(t, 5*time.Minute, cfg.RunTimeout())
}
