package habit

import (
	"cmp"
	"slices"
	"time"
)

const (
	MinMood = 1
	MaxMood = 5
)

// RawRecord 是持久层中一条按日记录的习惯数据，每种 HabitType 对应一个具体类型
type RawRecord interface {
	Type() HabitType
	Date() time.Time
	rawRecord()
}

// ProblemSolvingRecord 记录当日刷题数量
type ProblemSolvingRecord struct {
	UserID  uint
	LogDate time.Time
	Count   int
}

func (r ProblemSolvingRecord) Type() HabitType { return ProblemSolving }
func (r ProblemSolvingRecord) Date() time.Time { return Day(r.LogDate) }
func (ProblemSolvingRecord) rawRecord()        {}

// AttendanceRecord 记录健身或上课出勤，Attended 为 nil 表示未知
type AttendanceRecord struct {
	UserID   uint
	LogDate  time.Time
	Kind     HabitType
	Attended *bool
}

func (r AttendanceRecord) Type() HabitType { return r.Kind }
func (r AttendanceRecord) Date() time.Time { return Day(r.LogDate) }
func (AttendanceRecord) rawRecord()        {}

// MoodRecord 记录 1-5 的心情评分
type MoodRecord struct {
	UserID  uint
	LogDate time.Time
	Score   int
}

func (r MoodRecord) Type() HabitType { return Mood }
func (r MoodRecord) Date() time.Time { return Day(r.LogDate) }
func (MoodRecord) rawRecord()        {}

// Normalize 将原始记录转换为统一的 DailyActivity。
// record 为 nil、出勤为未知或显式 false 时一律视为不活跃，连胜计算不区分"无数据"与"未完成"。
// 类型与 habitType 不匹配的记录同样按缺失处理。
func Normalize(date time.Time, habitType HabitType, record RawRecord) DailyActivity {
	activity := DailyActivity{Date: Day(date), Type: habitType}
	if record == nil || record.Type() != habitType {
		return activity
	}

	switch r := record.(type) {
	case ProblemSolvingRecord:
		if r.Count >= 1 {
			activity.Active = true
			activity.Magnitude = r.Count
		}
	case AttendanceRecord:
		if r.Attended != nil && *r.Attended {
			activity.Active = true
			activity.Magnitude = 1
		}
	case MoodRecord:
		if r.Score >= MinMood && r.Score <= MaxMood {
			activity.Active = true
			activity.Magnitude = r.Score
		}
	}

	return activity
}

// NormalizeSeries 逐条转换记录，结果按日期倒序（最近在前）
func NormalizeSeries(habitType HabitType, records []RawRecord) []DailyActivity {
	activities := make([]DailyActivity, 0, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		activities = append(activities, Normalize(record.Date(), habitType, record))
	}

	slices.SortStableFunc(activities, func(a, b DailyActivity) int {
		return cmp.Compare(b.Date.Unix(), a.Date.Unix())
	})
	return activities
}
