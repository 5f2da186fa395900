package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitboard/internal/db"
	"github.com/habitboard/internal/habit"
	"github.com/habitboard/internal/service"
)

type streakPayload struct {
	Type          habit.HabitType `json:"type"`
	Label         string          `json:"label"`
	CurrentStreak int             `json:"current_streak"`
	LongestStreak int             `json:"longest_streak"`
	AsOf          string          `json:"as_of,omitempty"`
	MissTolerance int             `json:"miss_tolerance"`
	Enabled       bool            `json:"enabled"`
	Error         string          `json:"error,omitempty"`
}

type calendarCellPayload struct {
	Date           string                   `json:"date"`
	PerHabitActive map[habit.HabitType]bool `json:"per_habit_active"`
	Magnitudes     map[habit.HabitType]int  `json:"magnitudes"`
	Level          int                      `json:"level"`
}

type calendarRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type calendarSummary struct {
	TotalDays  int `json:"total_days"`
	ActiveDays int `json:"active_days"`
	MaxLevel   int `json:"max_level"`
}

type analyticsPayload struct {
	Range       calendarRange                     `json:"range"`
	AsOf        string                            `json:"as_of"`
	Types       []habit.HabitType                 `json:"types"`
	Streaks     map[habit.HabitType]streakPayload `json:"streaks"`
	Calendar    []calendarCellPayload             `json:"calendar"`
	Failed      []habit.HabitType                 `json:"failed"`
	Summary     calendarSummary                   `json:"summary"`
	GeneratedAt string                            `json:"generated_at"`
}

type problemLogPayload struct {
	Date  string `json:"date"`
	Count *int   `json:"count" binding:"required"`
	Note  string `json:"note"`
}

type attendanceLogPayload struct {
	Date    string  `json:"date"`
	Gym     *bool   `json:"gym"`
	College *bool   `json:"college"`
	Note    *string `json:"note"`
}

type moodLogPayload struct {
	Date  string `json:"date"`
	Score int    `json:"score" binding:"required"`
	Note  string `json:"note"`
}

// GetHabitAnalytics 返回指定区间内各习惯的连胜与热力图
func (a *API) GetHabitAnalytics(c *gin.Context) {
	types, err := parseHabitTypesQuery(c)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	today := a.today()
	end, err := parseOptionalDate(c.Query("end"), today)
	if err != nil {
		respondError(c, http.StatusBadRequest, "结束日期格式错误")
		return
	}
	start, err := parseOptionalDate(c.Query("start"), habit.TrailingWindow(end, a.heatmapDays).Start)
	if err != nil {
		respondError(c, http.StatusBadRequest, "开始日期格式错误")
		return
	}

	// 连胜以区间结束日为准，但不晚于今天，未来的日子不算缺勤
	asOf := habit.Day(end)
	if asOf.After(today) {
		asOf = today
	}
	a.respondAnalytics(c, types, habit.Window{Start: start, End: end}, asOf)
}

// GetHabitHeatmap 返回截至今天的年度热力图
func (a *API) GetHabitHeatmap(c *gin.Context) {
	types, err := parseHabitTypesQuery(c)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	today := a.today()
	a.respondAnalytics(c, types, habit.TrailingWindow(today, a.heatmapDays), today)
}

func (a *API) respondAnalytics(c *gin.Context, types []habit.HabitType, window habit.Window, asOf time.Time) {
	userID := currentUserID(c)

	policies, err := a.policies.Policies(userID)
	if err != nil {
		log.Printf("[analytics] user=%d load policies failed: %v", userID, err)
		respondError(c, http.StatusInternalServerError, "获取连胜策略失败")
		return
	}

	result, err := a.analytics.GetAnalytics(c.Request.Context(), service.AnalyticsRequest{
		UserID:     userID,
		HabitTypes: types,
		Window:     window,
		Policies:   policies,
		Today:      asOf,
	})
	if err != nil {
		handleHabitError(c, err)
		return
	}

	respondHabitSuccess(c, http.StatusOK, buildAnalyticsPayload(result, a.now))
}

// GetHabitStreak 返回单个习惯截至某天的连胜
func (a *API) GetHabitStreak(c *gin.Context) {
	habitType, err := habit.ParseType(c.Param("type"))
	if err != nil {
		handleHabitError(c, err)
		return
	}

	today, err := parseOptionalDate(c.Query("date"), a.today())
	if err != nil {
		respondError(c, http.StatusBadRequest, "日期格式错误")
		return
	}

	userID := currentUserID(c)
	policy, err := a.policies.Policy(userID, habitType)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	result, err := a.analytics.Streak(c.Request.Context(), userID, habitType, policy, today)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	respondHabitSuccess(c, http.StatusOK, gin.H{"streak": serializeStreak(result)})
}

// GetHabitDay 返回某一天的全部原始记录，备注渲染为安全 HTML
func (a *API) GetHabitDay(c *gin.Context) {
	date, err := parseDateParam(c, "date")
	if err != nil {
		respondError(c, http.StatusBadRequest, "日期格式错误")
		return
	}

	day, err := a.records.DayRecords(currentUserID(c), date)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	respondHabitSuccess(c, http.StatusOK, gin.H{"day": serializeDayRecords(day)})
}

// UpsertProblemLog 记录当天刷题数量
func (a *API) UpsertProblemLog(c *gin.Context) {
	var payload problemLogPayload
	if !bindJSON(c, &payload, "请填写刷题数量") {
		return
	}

	date, err := parseOptionalDate(payload.Date, a.today())
	if err != nil {
		respondError(c, http.StatusBadRequest, "日期格式错误")
		return
	}

	record, err := a.records.UpsertProblemLog(service.ProblemLogInput{
		UserID:  currentUserID(c),
		LogDate: date,
		Count:   *payload.Count,
		Note:    payload.Note,
	})
	if err != nil {
		handleHabitError(c, err)
		return
	}

	respondHabitSuccess(c, http.StatusOK, gin.H{"log": serializeProblemLog(*record)})
}

// UpsertAttendanceLog 记录健身或上课出勤，未提供的字段保持不变
func (a *API) UpsertAttendanceLog(c *gin.Context) {
	var payload attendanceLogPayload
	if !bindJSON(c, &payload, "请填写出勤信息") {
		return
	}

	date, err := parseOptionalDate(payload.Date, a.today())
	if err != nil {
		respondError(c, http.StatusBadRequest, "日期格式错误")
		return
	}

	record, err := a.records.UpsertAttendanceLog(service.AttendanceLogInput{
		UserID:  currentUserID(c),
		LogDate: date,
		Gym:     payload.Gym,
		College: payload.College,
		Note:    payload.Note,
	})
	if err != nil {
		handleHabitError(c, err)
		return
	}

	respondHabitSuccess(c, http.StatusOK, gin.H{"log": serializeAttendanceLog(*record)})
}

// UpsertMoodLog 记录当天心情评分
func (a *API) UpsertMoodLog(c *gin.Context) {
	var payload moodLogPayload
	if !bindJSON(c, &payload, "请填写心情评分") {
		return
	}

	date, err := parseOptionalDate(payload.Date, a.today())
	if err != nil {
		respondError(c, http.StatusBadRequest, "日期格式错误")
		return
	}

	record, err := a.records.UpsertMoodLog(service.MoodLogInput{
		UserID:  currentUserID(c),
		LogDate: date,
		Score:   payload.Score,
		Note:    payload.Note,
	})
	if err != nil {
		handleHabitError(c, err)
		return
	}

	respondHabitSuccess(c, http.StatusOK, gin.H{"log": serializeMoodLog(*record)})
}

// DeleteHabitLog 删除某一天某个习惯的记录
func (a *API) DeleteHabitLog(c *gin.Context) {
	habitType, err := habit.ParseType(c.Param("type"))
	if err != nil {
		handleHabitError(c, err)
		return
	}

	date, err := parseDateParam(c, "date")
	if err != nil {
		respondError(c, http.StatusBadRequest, "日期格式错误")
		return
	}

	if err := a.records.DeleteRecord(currentUserID(c), habitType, date); err != nil {
		handleHabitError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func buildAnalyticsPayload(result *service.AnalyticsResult, now func() time.Time) analyticsPayload {
	if now == nil {
		now = time.Now
	}

	payload := analyticsPayload{
		Range: calendarRange{
			Start: habit.FormatDate(result.Window.Start),
			End:   habit.FormatDate(result.Window.End),
		},
		AsOf:        habit.FormatDate(result.AsOf),
		Types:       result.Types,
		Streaks:     make(map[habit.HabitType]streakPayload, len(result.Streaks)),
		Calendar:    make([]calendarCellPayload, 0, len(result.Calendar)),
		Failed:      result.Failed,
		GeneratedAt: now().Format(time.RFC3339),
	}
	if payload.Failed == nil {
		payload.Failed = []habit.HabitType{}
	}

	for t, streak := range result.Streaks {
		payload.Streaks[t] = serializeStreak(streak)
	}

	for _, cell := range result.Calendar {
		payload.Calendar = append(payload.Calendar, calendarCellPayload{
			Date:           habit.FormatDate(cell.Date),
			PerHabitActive: cell.PerHabitActive,
			Magnitudes:     cell.Magnitudes,
			Level:          cell.CompositeLevel,
		})
		if cell.CompositeLevel > 0 {
			payload.Summary.ActiveDays++
		}
		payload.Summary.MaxLevel = max(payload.Summary.MaxLevel, cell.CompositeLevel)
	}
	payload.Summary.TotalDays = len(result.Calendar)

	return payload
}

func serializeStreak(result service.StreakResult) streakPayload {
	payload := streakPayload{
		Type:          result.Type,
		Label:         result.Type.Label(),
		MissTolerance: result.Policy.MissTolerance,
		Enabled:       result.Policy.Enabled,
	}
	if result.Err != nil {
		payload.Error = "数据读取失败"
		return payload
	}

	payload.CurrentStreak = result.State.CurrentStreak
	payload.LongestStreak = result.State.LongestStreak
	payload.AsOf = habit.FormatDate(result.State.AsOf)
	return payload
}

func serializeDayRecords(day *service.DayRecords) gin.H {
	payload := gin.H{
		"date":       habit.FormatDate(day.Date),
		"problem":    nil,
		"attendance": nil,
		"mood":       nil,
	}
	if day.Problem != nil {
		payload["problem"] = serializeProblemLog(*day.Problem)
	}
	if day.Attendance != nil {
		payload["attendance"] = serializeAttendanceLog(*day.Attendance)
	}
	if day.Mood != nil {
		payload["mood"] = serializeMoodLog(*day.Mood)
	}
	return payload
}

func serializeProblemLog(record db.ProblemLog) gin.H {
	return gin.H{
		"date":      habit.FormatDate(record.LogDate),
		"count":     record.Count,
		"note":      record.Note,
		"note_html": noteHTML(record.Note),
	}
}

func serializeAttendanceLog(record db.AttendanceLog) gin.H {
	return gin.H{
		"date":      habit.FormatDate(record.LogDate),
		"gym":       record.Gym,
		"college":   record.College,
		"note":      record.Note,
		"note_html": noteHTML(record.Note),
	}
}

func serializeMoodLog(record db.MoodLog) gin.H {
	return gin.H{
		"date":      habit.FormatDate(record.LogDate),
		"score":     record.Score,
		"note":      record.Note,
		"note_html": noteHTML(record.Note),
	}
}

func respondHabitSuccess(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func handleHabitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, habit.ErrUnknownHabitType):
		respondError(c, http.StatusBadRequest, "未知的习惯类型")
	case errors.Is(err, habit.ErrNoHabitTypes):
		respondError(c, http.StatusBadRequest, "请至少选择一个习惯")
	case errors.Is(err, habit.ErrInvalidWindow):
		respondError(c, http.StatusBadRequest, "日期区间无效")
	case errors.Is(err, habit.ErrUnsupportedOperation):
		respondError(c, http.StatusUnprocessableEntity, "该习惯不支持连胜统计")
	case errors.Is(err, service.ErrInvalidRecord):
		respondError(c, http.StatusBadRequest, strings.TrimPrefix(err.Error(), service.ErrInvalidRecord.Error()+": "))
	case errors.Is(err, service.ErrRecordNotFound):
		respondError(c, http.StatusNotFound, "记录不存在")
	case errors.Is(err, habit.ErrUpstreamFetch):
		respondError(c, http.StatusBadGateway, "数据读取失败")
	default:
		log.Printf("[habit] request failed: %v", err)
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
