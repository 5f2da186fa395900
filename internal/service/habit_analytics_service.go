package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/habitboard/internal/habit"
)

// RecordSource 是持久层查询边界：返回某用户某习惯在区间内按日期排序的原始记录
type RecordSource interface {
	FetchRecords(ctx context.Context, userID uint, habitType habit.HabitType, start, end time.Time) ([]habit.RawRecord, error)
}

type requestIDKey struct{}

// WithRequestID 将请求 ID 写入 ctx，用于日志关联
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return "-"
}

// AnalyticsRequest 描述一次聚合请求
// Today 为注入的"今天"，零值时使用 Window.End
type AnalyticsRequest struct {
	UserID     uint
	HabitTypes []habit.HabitType
	Window     habit.Window
	Policies   map[habit.HabitType]habit.StreakPolicy
	Today      time.Time
}

// StreakResult 是单个习惯的连胜结果，Err 非空表示该习惯计算失败，State 不可用
type StreakResult struct {
	Type     habit.HabitType
	State    habit.StreakState
	Policy   habit.StreakPolicy
	Disabled bool
	Err      error
}

// AnalyticsResult 为聚合结果：各习惯的连胜与区间内的热力图
type AnalyticsResult struct {
	UserID   uint
	Window   habit.Window
	AsOf     time.Time
	Types    []habit.HabitType
	Streaks  map[habit.HabitType]StreakResult
	Calendar []habit.CalendarCell
	Failed   []habit.HabitType
}

// HabitAnalyticsService 是面向展示层的门面：拉取原始记录，驱动标准化、连胜计算与热力图聚合
type HabitAnalyticsService struct {
	source          RecordSource
	cache           *StreakCache
	maxWindowDays   int
	historyLookback int
}

type habitOutcome struct {
	habitType  habit.HabitType
	activities []habit.DailyActivity
	streak     *StreakResult
	err        error
}

// NewHabitAnalyticsService 创建 HabitAnalyticsService，cache 可为 nil
func NewHabitAnalyticsService(source RecordSource, cache *StreakCache) *HabitAnalyticsService {
	return &HabitAnalyticsService{source: source, cache: cache}
}

// WithMaxWindowDays 设置区间长度上限，<=0 表示不限制
func (s *HabitAnalyticsService) WithMaxWindowDays(days int) *HabitAnalyticsService {
	s.maxWindowDays = days
	return s
}

// WithHistoryLookback 限制连胜计算回看的天数，0 表示读取全部历史
func (s *HabitAnalyticsService) WithHistoryLookback(days int) *HabitAnalyticsService {
	if days < 0 {
		days = 0
	}
	s.historyLookback = days
	return s
}

// GetAnalytics 返回请求习惯的连胜与热力图。
// 区间不合法或没有习惯类型时直接失败；单个习惯读取失败只影响该习惯，结果中以 Err 标记。
func (s *HabitAnalyticsService) GetAnalytics(ctx context.Context, req AnalyticsRequest) (*AnalyticsResult, error) {
	types, err := validateHabitTypes(req.HabitTypes)
	if err != nil {
		return nil, err
	}

	window := habit.NewWindow(req.Window.Start, req.Window.End)
	if err := window.Validate(s.maxWindowDays); err != nil {
		return nil, err
	}

	today := habit.Day(req.Today)
	if req.Today.IsZero() {
		today = window.End
	}

	outcomes := make([]habitOutcome, len(types))
	var wg sync.WaitGroup
	for i, t := range types {
		wg.Add(1)
		go func(i int, t habit.HabitType) {
			defer wg.Done()
			outcomes[i] = s.collect(ctx, req.UserID, t, window, policyFor(req.Policies, t), today)
		}(i, t)
	}
	wg.Wait()

	result := &AnalyticsResult{
		UserID:  req.UserID,
		Window:  window,
		AsOf:    today,
		Types:   types,
		Streaks: make(map[habit.HabitType]StreakResult),
	}

	byHabit := make(map[habit.HabitType][]habit.DailyActivity, len(types))
	for _, outcome := range outcomes {
		if outcome.err != nil {
			log.Printf("[analytics] req=%s user=%d habit=%s fetch failed: %v", requestIDFrom(ctx), req.UserID, outcome.habitType, outcome.err)
			result.Failed = append(result.Failed, outcome.habitType)
			if outcome.habitType.SupportsStreak() {
				result.Streaks[outcome.habitType] = StreakResult{
					Type:   outcome.habitType,
					Policy: policyFor(req.Policies, outcome.habitType),
					Err:    outcome.err,
				}
			}
			continue
		}

		byHabit[outcome.habitType] = outcome.activities
		if outcome.streak != nil {
			result.Streaks[outcome.habitType] = *outcome.streak
		}
	}

	calendar, err := habit.BuildCalendar(byHabit, window)
	if err != nil {
		return nil, err
	}
	result.Calendar = calendar

	return result, nil
}

// Streak 计算单个习惯的连胜，Mood 返回 ErrUnsupportedOperation，读取失败返回 ErrUpstreamFetch
func (s *HabitAnalyticsService) Streak(ctx context.Context, userID uint, habitType habit.HabitType, policy habit.StreakPolicy, today time.Time) (StreakResult, error) {
	if !habitType.Valid() {
		return StreakResult{}, fmt.Errorf("%w: %s", habit.ErrUnknownHabitType, habitType)
	}
	if !habitType.SupportsStreak() {
		return StreakResult{}, fmt.Errorf("%w: habit %s has no streak policy", habit.ErrUnsupportedOperation, habitType)
	}

	today = habit.Day(today)
	result, err := s.streak(ctx, userID, habitType, policy, today)
	if err != nil {
		log.Printf("[analytics] req=%s user=%d habit=%s streak failed: %v", requestIDFrom(ctx), userID, habitType, err)
		return StreakResult{}, err
	}
	return result, nil
}

// collect 拉取单个习惯的数据：连胜需要完整历史，热力图只需要区间内的数据。
// 连胜命中缓存时只读取区间数据。
func (s *HabitAnalyticsService) collect(ctx context.Context, userID uint, habitType habit.HabitType, window habit.Window, policy habit.StreakPolicy, today time.Time) habitOutcome {
	outcome := habitOutcome{habitType: habitType}

	generation := s.cache.Generation(userID, habitType)
	var cached *StreakResult
	if habitType.SupportsStreak() {
		if state, ok := s.cache.Get(userID, habitType, today, policy); ok {
			cached = &StreakResult{Type: habitType, State: state, Policy: policy, Disabled: !policy.Enabled}
		}
	}

	start, end := window.Start, window.End
	if habitType.SupportsStreak() && cached == nil {
		start, end = s.historyRange(window, today)
	}

	records, err := s.source.FetchRecords(ctx, userID, habitType, start, end)
	if err != nil {
		outcome.err = fmt.Errorf("%w: %s: %v", habit.ErrUpstreamFetch, habitType, err)
		return outcome
	}

	activities := habit.NormalizeSeries(habitType, records)

	if habitType.SupportsStreak() {
		if cached != nil {
			outcome.streak = cached
		} else {
			state, err := habit.ComputeStreak(habitType, activities, policy, today)
			if err != nil {
				outcome.err = err
				return outcome
			}
			s.cache.Put(userID, habitType, today, policy, state, generation)
			outcome.streak = &StreakResult{Type: habitType, State: state, Policy: policy, Disabled: !policy.Enabled}
		}
	}

	inWindow := make([]habit.DailyActivity, 0, len(activities))
	for _, activity := range activities {
		if window.Contains(activity.Date) {
			inWindow = append(inWindow, activity)
		}
	}
	outcome.activities = inWindow

	return outcome
}

func (s *HabitAnalyticsService) streak(ctx context.Context, userID uint, habitType habit.HabitType, policy habit.StreakPolicy, today time.Time) (StreakResult, error) {
	generation := s.cache.Generation(userID, habitType)
	if state, ok := s.cache.Get(userID, habitType, today, policy); ok {
		return StreakResult{Type: habitType, State: state, Policy: policy, Disabled: !policy.Enabled}, nil
	}

	start, end := s.historyRange(habit.Window{Start: today, End: today}, today)
	records, err := s.source.FetchRecords(ctx, userID, habitType, start, end)
	if err != nil {
		return StreakResult{}, fmt.Errorf("%w: %s: %v", habit.ErrUpstreamFetch, habitType, err)
	}

	state, err := habit.ComputeStreak(habitType, habit.NormalizeSeries(habitType, records), policy, today)
	if err != nil {
		return StreakResult{}, err
	}
	s.cache.Put(userID, habitType, today, policy, state, generation)

	return StreakResult{Type: habitType, State: state, Policy: policy, Disabled: !policy.Enabled}, nil
}

// historyRange 返回连胜计算需要的读取区间：覆盖窗口与 today，并向前回看 historyLookback 天
func (s *HabitAnalyticsService) historyRange(window habit.Window, today time.Time) (time.Time, time.Time) {
	end := window.End
	if today.After(end) {
		end = today
	}

	if s.historyLookback <= 0 {
		return time.Time{}, end
	}

	start := window.Start
	if today.Before(start) {
		start = today
	}
	return start.AddDate(0, 0, -s.historyLookback), end
}

func validateHabitTypes(requested []habit.HabitType) ([]habit.HabitType, error) {
	if len(requested) == 0 {
		return nil, habit.ErrNoHabitTypes
	}
	for _, t := range requested {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %s", habit.ErrUnknownHabitType, t)
		}
	}
	return habit.SortTypes(requested), nil
}

func policyFor(policies map[habit.HabitType]habit.StreakPolicy, habitType habit.HabitType) habit.StreakPolicy {
	if policy, ok := policies[habitType]; ok {
		return policy
	}
	return habit.DefaultPolicy()
}
