package main

import (
	"fmt"
	"log"
	"os"

	"github.com/habitboard/internal/config"
	"github.com/habitboard/internal/db"
	"github.com/habitboard/internal/service"
	"github.com/spf13/cobra"
)

// Persistent flags.
var (
	dbPath     string
	policyPath string
)

var rootCmd = &cobra.Command{
	Use:   "habitctl",
	Short: "Operator tooling for the habitboard database",
	Long: `habitctl manages users, seeds sample data, and prints streaks and
calendar analytics straight from the habitboard database.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (defaults to DATABASE_PATH)")
	rootCmd.PersistentFlags().StringVar(&policyPath, "policies", "", "Streak policy file (defaults to POLICY_FILE)")

	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(streakCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// services 是各子命令共享的服务集合
type services struct {
	cfg       config.AppConfig
	records   *service.HabitRecordService
	policies  *service.StreakPolicyService
	analytics *service.HabitAnalyticsService
}

func openServices() (*services, error) {
	cfg := config.Load()
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if policyPath != "" {
		cfg.PolicyFile = policyPath
	}

	if _, err := cfg.LoadLocation(); err != nil {
		return nil, err
	}

	if err := db.Init(cfg.DatabasePath); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	defaults, err := config.LoadPolicies(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}

	cache := service.NewStreakCache()
	records := service.NewHabitRecordService(db.DB).WithInvalidator(cache)
	log.Printf("[habitctl] database=%s policies=%s", cfg.DatabasePath, cfg.PolicyFile)

	return &services{
		cfg:      cfg,
		records:  records,
		policies: service.NewStreakPolicyService(db.DB, defaults).WithInvalidator(cache),
		analytics: service.NewHabitAnalyticsService(records, cache).
			WithMaxWindowDays(cfg.MaxWindowDays).
			WithHistoryLookback(cfg.HistoryLookbackDays),
	}, nil
}

func lookupUserID(username string) (uint, error) {
	user, err := db.FindUser(db.DB, username)
	if err != nil {
		return 0, fmt.Errorf("find user %q: %w", username, err)
	}
	return user.ID, nil
}
