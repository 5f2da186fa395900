package handler

import (
	"time"

	"github.com/habitboard/internal/config"
	"github.com/habitboard/internal/habit"
	"github.com/habitboard/internal/service"
	"gorm.io/gorm"
)

// defaultHeatmapDays 为首页热力图默认覆盖的天数
const defaultHeatmapDays = 365

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	records     recordStore
	policies    policyStore
	analytics   analyticsProvider
	location    *time.Location
	heatmapDays int
	now         func() time.Time
}

// NewAPI constructs a handler set with shared services.
// Record and policy writes share one streak cache with the analytics service.
func NewAPI(gdb *gorm.DB, cfg config.AppConfig, defaults map[habit.HabitType]habit.StreakPolicy) *API {
	cache := service.NewStreakCache()

	records := service.NewHabitRecordService(gdb).WithInvalidator(cache)
	policies := service.NewStreakPolicyService(gdb, defaults).WithInvalidator(cache)
	analytics := service.NewHabitAnalyticsService(records, cache).
		WithMaxWindowDays(cfg.MaxWindowDays).
		WithHistoryLookback(cfg.HistoryLookbackDays)

	return &API{
		db:          gdb,
		records:     records,
		policies:    policies,
		analytics:   analytics,
		location:    cfg.Location(),
		heatmapDays: defaultHeatmapDays,
		now:         time.Now,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// today 返回规范时区下的当前日期
func (a *API) today() time.Time {
	now := time.Now
	if a.now != nil {
		now = a.now
	}
	return habit.DateIn(now(), a.location)
}
