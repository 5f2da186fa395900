package habit

import (
	"fmt"
	"time"
)

// ComputeStreak 计算当前连胜与历史最长连胜。
//
// activities 为该习惯的活跃序列（最近在前，可稀疏），缺失的日期按不活跃处理。
// 从 today 起逐日向前扫描：活跃则连胜+1并清零缺勤计数；不活跃则缺勤计数+1，
// 超过 policy.MissTolerance 即停止。被容忍的缺勤天不计入连胜长度。
// 最长连胜使用同样的规则扫描全部历史，且总是不小于当前连胜。
// policy.Enabled 不影响计算结果。
func ComputeStreak(habitType HabitType, activities []DailyActivity, policy StreakPolicy, today time.Time) (StreakState, error) {
	if !habitType.SupportsStreak() {
		return StreakState{}, fmt.Errorf("%w: habit %s has no streak policy", ErrUnsupportedOperation, habitType)
	}

	today = Day(today)
	state := StreakState{Type: habitType, AsOf: today}

	days := denseHistory(habitType, activities, today)
	if len(days) == 0 {
		return state, nil
	}

	tolerance := max(policy.MissTolerance, 0)
	state.CurrentStreak = trailingRun(days, tolerance)
	state.LongestStreak = max(longestRun(days, tolerance), state.CurrentStreak)

	return state, nil
}

// denseHistory 将稀疏序列展开为从最早记录到 today 的逐日布尔数组，today 之后的数据被忽略
func denseHistory(habitType HabitType, activities []DailyActivity, today time.Time) []bool {
	var earliest time.Time
	found := false
	for _, activity := range activities {
		if activity.Type != habitType || Day(activity.Date).After(today) {
			continue
		}
		if !found || Day(activity.Date).Before(earliest) {
			earliest = Day(activity.Date)
			found = true
		}
	}
	if !found {
		return nil
	}

	days := make([]bool, DaysBetween(earliest, today)+1)
	for _, activity := range activities {
		if activity.Type != habitType || !activity.Active {
			continue
		}
		offset := DaysBetween(earliest, activity.Date)
		if offset < 0 || offset >= len(days) {
			continue
		}
		days[offset] = true
	}
	return days
}

func trailingRun(days []bool, tolerance int) int {
	run, misses := 0, 0
	for i := len(days) - 1; i >= 0; i-- {
		if days[i] {
			run++
			misses = 0
			continue
		}
		misses++
		if misses > tolerance {
			break
		}
	}
	return run
}

func longestRun(days []bool, tolerance int) int {
	longest, run, misses := 0, 0, 0
	for _, active := range days {
		if active {
			run++
			misses = 0
			longest = max(longest, run)
			continue
		}
		misses++
		if misses > tolerance {
			run = 0
		}
	}
	return longest
}
