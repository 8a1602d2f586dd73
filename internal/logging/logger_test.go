package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// resetState clears package state between tests; the logger is a process
// singleton in normal use.
func resetState() {
	CloseAll()
	loggersMu.Lock()
	loggers = make(map[Category]*Logger)
	loggersMu.Unlock()
	configMu.Lock()
	config = loggingConfig{}
	configMu.Unlock()
	logsDir = ""
	workspace = ""
}

func writeConfig(t *testing.T, ws, body string) {
	t.Helper()
	dir := filepath.Join(ws, ".conflicts")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestProductionModeIsSilent(t *testing.T) {
	resetState()
	defer resetState()

	ws := t.TempDir()
	if err := Initialize(ws); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if IsDebugMode() {
		t.Error("debug mode should be off without config")
	}

	Detect("this should go nowhere")

	if _, err := os.Stat(filepath.Join(ws, ".conflicts", "logs")); !os.IsNotExist(err) {
		t.Error("logs directory should not exist in production mode")
	}
}

func TestDebugModeWritesCategoryFiles(t *testing.T) {
	resetState()
	defer resetState()

	ws := t.TempDir()
	writeConfig(t, ws, "logging:\n  debug_mode: true\n  level: debug\n")
	if err := Initialize(ws); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !IsDebugMode() {
		t.Fatal("debug mode should be on")
	}

	Detect("found %d conflicts", 2)
	Learn("pattern updated")
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(ws, ".conflicts", "logs"))
	if err != nil {
		t.Fatalf("read logs dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	joined := strings.Join(names, " ")
	for _, want := range []string{"_detect.log", "_learn.log"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected a %s file, got %v", want, names)
		}
	}
}

func TestCategoryFiltering(t *testing.T) {
	resetState()
	defer resetState()

	ws := t.TempDir()
	writeConfig(t, ws, `logging:
  debug_mode: true
  level: debug
  categories:
    detect: true
    store: false
`)
	if err := Initialize(ws); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if !IsCategoryEnabled(CategoryDetect) {
		t.Error("detect should be enabled")
	}
	if IsCategoryEnabled(CategoryStore) {
		t.Error("store should be disabled")
	}
	// Unlisted categories default to enabled.
	if !IsCategoryEnabled(CategoryLearn) {
		t.Error("learn should default to enabled")
	}
}

func TestSetDebugOverridesConfig(t *testing.T) {
	resetState()
	defer resetState()

	SetDebug("debug")
	if !IsDebugMode() {
		t.Error("SetDebug should enable debug mode")
	}
	if !IsCategoryEnabled(CategoryEngine) {
		t.Error("all categories enabled after SetDebug")
	}
}

func TestTimerDoesNotPanicUninitialized(t *testing.T) {
	resetState()
	defer resetState()

	timer := StartTimer(CategoryDetect, "scan")
	if d := timer.Stop(); d < 0 {
		t.Errorf("negative duration %v", d)
	}
}
