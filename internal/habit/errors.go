package habit

import "errors"

var (
	// ErrUnsupportedOperation 请求了没有 StreakPolicy 的习惯（如 Mood）的连胜
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrInvalidWindow 日期区间不合法：结束早于开始或超出上限
	ErrInvalidWindow = errors.New("invalid window")
	// ErrUpstreamFetch 持久层读取某一习惯的数据失败
	ErrUpstreamFetch = errors.New("upstream fetch failure")
	// ErrNoHabitTypes 未指定任何习惯类型
	ErrNoHabitTypes = errors.New("no habit types requested")
	// ErrUnknownHabitType 习惯类型未登记
	ErrUnknownHabitType = errors.New("unknown habit type")
)
