package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/habitboard/internal/habit"
	"github.com/habitboard/internal/service"
	"github.com/spf13/cobra"
)

// timeNow 便于测试替换
var timeNow = time.Now

var (
	analyticsUser  string
	analyticsTypes string
	analyticsStart string
	analyticsEnd   string

	streakUser string
	streakDate string
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Print streaks and the activity calendar as JSON",
	RunE:  runAnalytics,
}

var streakCmd = &cobra.Command{
	Use:   "streak <type>",
	Short: "Print the current and longest streak for one habit",
	Args:  cobra.ExactArgs(1),
	RunE:  runStreak,
}

func init() {
	analyticsCmd.Flags().StringVar(&analyticsUser, "user", "", "Username")
	analyticsCmd.Flags().StringVar(&analyticsTypes, "types", "", "Comma separated habit types (default: all)")
	analyticsCmd.Flags().StringVar(&analyticsStart, "start", "", "Window start (YYYY-MM-DD, default: 30 days before end)")
	analyticsCmd.Flags().StringVar(&analyticsEnd, "end", "", "Window end (YYYY-MM-DD, default: today)")
	_ = analyticsCmd.MarkFlagRequired("user")

	streakCmd.Flags().StringVar(&streakUser, "user", "", "Username")
	streakCmd.Flags().StringVar(&streakDate, "date", "", "Evaluate as of this date (YYYY-MM-DD, default: today)")
	_ = streakCmd.MarkFlagRequired("user")
}

type cliStreak struct {
	Type          habit.HabitType `json:"type"`
	CurrentStreak int             `json:"current_streak"`
	LongestStreak int             `json:"longest_streak"`
	MissTolerance int             `json:"miss_tolerance"`
	Enabled       bool            `json:"enabled"`
	Error         string          `json:"error,omitempty"`
}

type cliCell struct {
	Date  string `json:"date"`
	Level int    `json:"level"`
}

type cliAnalytics struct {
	Start    string            `json:"start"`
	End      string            `json:"end"`
	AsOf     string            `json:"as_of"`
	Streaks  []cliStreak       `json:"streaks"`
	Calendar []cliCell         `json:"calendar"`
	Failed   []habit.HabitType `json:"failed,omitempty"`
}

func runAnalytics(cmd *cobra.Command, _ []string) error {
	svc, err := openServices()
	if err != nil {
		return err
	}
	userID, err := lookupUserID(analyticsUser)
	if err != nil {
		return err
	}

	types, err := parseTypesFlag(analyticsTypes)
	if err != nil {
		return err
	}

	today := habit.DateIn(timeNow(), svc.cfg.Location())
	end, err := dateFlag(analyticsEnd, today)
	if err != nil {
		return err
	}
	start, err := dateFlag(analyticsStart, end.AddDate(0, 0, -29))
	if err != nil {
		return err
	}

	policies, err := svc.policies.Policies(userID)
	if err != nil {
		return err
	}

	result, err := svc.analytics.GetAnalytics(context.Background(), service.AnalyticsRequest{
		UserID:     userID,
		HabitTypes: types,
		Window:     habit.NewWindow(start, end),
		Policies:   policies,
		Today:      today,
	})
	if err != nil {
		return err
	}

	out := cliAnalytics{
		Start:  habit.FormatDate(result.Window.Start),
		End:    habit.FormatDate(result.Window.End),
		AsOf:   habit.FormatDate(result.AsOf),
		Failed: result.Failed,
	}
	for _, t := range result.Types {
		if streak, ok := result.Streaks[t]; ok {
			out.Streaks = append(out.Streaks, toCLIStreak(streak))
		}
	}
	for _, cell := range result.Calendar {
		out.Calendar = append(out.Calendar, cliCell{Date: habit.FormatDate(cell.Date), Level: cell.CompositeLevel})
	}

	return printJSON(cmd, out)
}

func runStreak(cmd *cobra.Command, args []string) error {
	habitType, err := habit.ParseType(args[0])
	if err != nil {
		return err
	}

	svc, err := openServices()
	if err != nil {
		return err
	}
	userID, err := lookupUserID(streakUser)
	if err != nil {
		return err
	}

	today, err := dateFlag(streakDate, habit.DateIn(timeNow(), svc.cfg.Location()))
	if err != nil {
		return err
	}

	policy, err := svc.policies.Policy(userID, habitType)
	if err != nil {
		return err
	}

	result, err := svc.analytics.Streak(context.Background(), userID, habitType, policy, today)
	if err != nil {
		return err
	}

	return printJSON(cmd, toCLIStreak(result))
}

func toCLIStreak(result service.StreakResult) cliStreak {
	streak := cliStreak{
		Type:          result.Type,
		CurrentStreak: result.State.CurrentStreak,
		LongestStreak: result.State.LongestStreak,
		MissTolerance: result.Policy.MissTolerance,
		Enabled:       result.Policy.Enabled,
	}
	if result.Err != nil {
		streak.Error = result.Err.Error()
	}
	return streak
}

func parseTypesFlag(raw string) ([]habit.HabitType, error) {
	if strings.TrimSpace(raw) == "" {
		return habit.AllTypes(), nil
	}

	var types []habit.HabitType
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := habit.ParseType(part)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func dateFlag(raw string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return habit.ParseDate(strings.TrimSpace(raw))
}

func printJSON(cmd *cobra.Command, value any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
