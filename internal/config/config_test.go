package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/habitboard/internal/habit"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LISTEN_ADDR", "DATABASE_PATH", "TIMEZONE", "MAX_WINDOW_DAYS", "HISTORY_LOOKBACK_DAYS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr %q", cfg.ListenAddr)
	}
	if cfg.DatabasePath != "habitboard.db" {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath)
	}
	if cfg.MaxWindowDays != defaultMaxWindowDays {
		t.Fatalf("unexpected max window %d", cfg.MaxWindowDays)
	}
	if cfg.Location() != time.Local {
		t.Fatal("expected local timezone by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("TIMEZONE", "Asia/Shanghai")
	t.Setenv("MAX_WINDOW_DAYS", "400")
	t.Setenv("HISTORY_LOOKBACK_DAYS", "not-a-number")

	cfg := Load()
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("unexpected listen addr %q", cfg.ListenAddr)
	}
	if cfg.MaxWindowDays != 400 {
		t.Fatalf("unexpected max window %d", cfg.MaxWindowDays)
	}
	if cfg.HistoryLookbackDays != 0 {
		t.Fatalf("expected invalid lookback to fall back to 0, got %d", cfg.HistoryLookbackDays)
	}
	if cfg.Location().String() != "Asia/Shanghai" {
		t.Fatalf("unexpected location %s", cfg.Location())
	}
}

func TestLoadLocationRejectsUnknownTimezone(t *testing.T) {
	cfg := AppConfig{Timezone: "Mars/Olympus_Mons"}

	if _, err := cfg.LoadLocation(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
	if cfg.Location() != time.Local {
		t.Fatal("expected Location to fall back to local timezone")
	}

	loc, err := AppConfig{Timezone: "UTC"}.LoadLocation()
	if err != nil || loc.String() != "UTC" {
		t.Fatalf("expected UTC, got %v err=%v", loc, err)
	}
	loc, err = AppConfig{Timezone: "Local"}.LoadLocation()
	if err != nil || loc != time.Local {
		t.Fatalf("expected local timezone, got %v err=%v", loc, err)
	}
}

func TestLoadPoliciesMissingFile(t *testing.T) {
	policies, err := LoadPolicies(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadPolicies returned error: %v", err)
	}
	if len(policies) != 3 {
		t.Fatalf("expected 3 streak policies, got %d", len(policies))
	}
	if _, ok := policies[habit.Mood]; ok {
		t.Fatal("mood must not have a streak policy")
	}
	if policies[habit.GymAttendance] != habit.DefaultPolicy() {
		t.Fatalf("unexpected gym policy %+v", policies[habit.GymAttendance])
	}
}

func TestLoadPoliciesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.toml")
	content := `
[policies.gym]
miss_tolerance = 2

[policies.college]
enabled = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	policies, err := LoadPolicies(path)
	if err != nil {
		t.Fatalf("LoadPolicies returned error: %v", err)
	}

	if got := policies[habit.GymAttendance]; got.MissTolerance != 2 || !got.Enabled {
		t.Fatalf("unexpected gym policy %+v", got)
	}
	if got := policies[habit.CollegeAttendance]; got.MissTolerance != 0 || got.Enabled {
		t.Fatalf("unexpected college policy %+v", got)
	}
	if got := policies[habit.ProblemSolving]; got != habit.DefaultPolicy() {
		t.Fatalf("unexpected problem solving policy %+v", got)
	}
}

func TestParsePoliciesRejectsMood(t *testing.T) {
	_, err := ParsePolicies([]byte("[policies.mood]\nmiss_tolerance = 1\n"))
	if !errors.Is(err, habit.ErrUnsupportedOperation) {
		t.Fatalf("expected ErrUnsupportedOperation, got %v", err)
	}

	if _, err := ParsePolicies([]byte("[policies.gym]\nmiss_tolerance = -1\n")); err == nil {
		t.Fatal("expected error for negative tolerance")
	}
}
