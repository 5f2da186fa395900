package habit

import (
	"fmt"
	"time"
)

// DateLayout 为日期键的统一格式
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// 记录日期允许的范围，超出范围视为录入错误
var (
	MinLogDate = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxLogDate = time.Date(2999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// Day 将时间截断为同一日历日的 UTC 零点，日期键与时区无关
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateIn 以给定时区解释 t 的日历日，用于把"现在"换算成规范日期
func DateIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return Day(t.In(loc))
}

// DaysBetween 返回 from 到 to 相差的日历天数，to 早于 from 时为负数。
// 按日序号相减，不经过 time.Duration，跨度超过数百年也不会饱和。
func DaysBetween(from, to time.Time) int {
	return int(dayNumber(to) - dayNumber(from))
}

func dayNumber(t time.Time) int64 {
	return Day(t).Unix() / secondsPerDay
}

// ValidLogDate 判断日期是否落在 [MinLogDate, MaxLogDate] 内
func ValidLogDate(t time.Time) bool {
	d := Day(t)
	return !d.Before(MinLogDate) && !d.After(MaxLogDate)
}

// ParseDate 解析 2006-01-02 格式的日期
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return t, nil
}

// FormatDate 输出日期键
func FormatDate(t time.Time) string {
	return Day(t).Format(DateLayout)
}

// Window 为闭区间 [Start, End]
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow 构造规范化后的区间
func NewWindow(start, end time.Time) Window {
	return Window{Start: Day(start), End: Day(end)}
}

// TrailingWindow 返回以 end 结尾、共 days 天的区间
func TrailingWindow(end time.Time, days int) Window {
	if days < 1 {
		days = 1
	}
	end = Day(end)
	return Window{Start: end.AddDate(0, 0, -(days - 1)), End: end}
}

// Days 返回区间包含的天数
func (w Window) Days() int {
	return DaysBetween(w.Start, w.End) + 1
}

// Contains 判断日期是否落在区间内
func (w Window) Contains(t time.Time) bool {
	offset := DaysBetween(w.Start, t)
	return offset >= 0 && offset < w.Days()
}

// Validate 校验区间，maxDays<=0 表示不限制长度
func (w Window) Validate(maxDays int) error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidWindow)
	}
	if Day(w.End).Before(Day(w.Start)) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidWindow, FormatDate(w.End), FormatDate(w.Start))
	}
	if maxDays > 0 && w.Days() > maxDays {
		return fmt.Errorf("%w: %d days exceeds limit of %d", ErrInvalidWindow, w.Days(), maxDays)
	}
	return nil
}
