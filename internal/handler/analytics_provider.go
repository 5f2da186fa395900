package handler

import (
	"context"
	"time"

	"github.com/habitboard/internal/db"
	"github.com/habitboard/internal/habit"
	"github.com/habitboard/internal/service"
)

type analyticsProvider interface {
	GetAnalytics(ctx context.Context, req service.AnalyticsRequest) (*service.AnalyticsResult, error)
	Streak(ctx context.Context, userID uint, habitType habit.HabitType, policy habit.StreakPolicy, today time.Time) (service.StreakResult, error)
}

type recordStore interface {
	UpsertProblemLog(input service.ProblemLogInput) (*db.ProblemLog, error)
	UpsertAttendanceLog(input service.AttendanceLogInput) (*db.AttendanceLog, error)
	UpsertMoodLog(input service.MoodLogInput) (*db.MoodLog, error)
	DeleteRecord(userID uint, habitType habit.HabitType, date time.Time) error
	DayRecords(userID uint, date time.Time) (*service.DayRecords, error)
}

type policyStore interface {
	Policies(userID uint) (map[habit.HabitType]habit.StreakPolicy, error)
	Policy(userID uint, habitType habit.HabitType) (habit.StreakPolicy, error)
	UpdatePolicy(userID uint, habitType habit.HabitType, input service.StreakPolicyInput) (habit.StreakPolicy, error)
}
