package habit

import (
	"fmt"
	"strings"
	"time"
)

// HabitType 表示一个被追踪的习惯维度
type HabitType string

const (
	ProblemSolving    HabitType = "problem_solving"
	GymAttendance     HabitType = "gym"
	CollegeAttendance HabitType = "college"
	Mood              HabitType = "mood"
)

// typeInfo 描述每种习惯的元数据，新增习惯类型只需在此登记并补充 Normalize 分支
// lowMagnitude: 单一习惯活跃且强度不超过该值时视为低强度
// highMagnitude: 强度达到该值即视为高强度，0 表示该习惯没有高强度档
type typeInfo struct {
	label         string
	streakable    bool
	lowMagnitude  int
	highMagnitude int
}

var typeTable = map[HabitType]typeInfo{
	ProblemSolving:    {label: "刷题", streakable: true, lowMagnitude: 1, highMagnitude: 3},
	GymAttendance:     {label: "健身", streakable: true, lowMagnitude: 1},
	CollegeAttendance: {label: "上课", streakable: true, lowMagnitude: 1},
	Mood:              {label: "心情", streakable: false, lowMagnitude: 3},
}

// orderedTypes 固定输出顺序，保证序列化结果稳定
var orderedTypes = []HabitType{ProblemSolving, GymAttendance, CollegeAttendance, Mood}

// AllTypes 返回全部已登记的习惯类型
func AllTypes() []HabitType {
	return append([]HabitType(nil), orderedTypes...)
}

// StreakTypes 返回支持连胜统计的习惯类型
func StreakTypes() []HabitType {
	types := make([]HabitType, 0, len(orderedTypes))
	for _, t := range orderedTypes {
		if t.SupportsStreak() {
			types = append(types, t)
		}
	}
	return types
}

// ParseType 解析习惯类型，忽略大小写与首尾空白
func ParseType(raw string) (HabitType, error) {
	t := HabitType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownHabitType, raw)
	}
	return t, nil
}

// Valid 判断是否为已登记的习惯类型
func (t HabitType) Valid() bool {
	_, ok := typeTable[t]
	return ok
}

// SupportsStreak 表示该类型是否存在 StreakPolicy
func (t HabitType) SupportsStreak() bool {
	return typeTable[t].streakable
}

// Label 返回展示用名称
func (t HabitType) Label() string {
	if info, ok := typeTable[t]; ok {
		return info.label
	}
	return string(t)
}

func (t HabitType) String() string {
	return string(t)
}

// SortTypes 按登记顺序排序并去重
func SortTypes(types []HabitType) []HabitType {
	seen := make(map[HabitType]struct{}, len(types))
	result := make([]HabitType, 0, len(types))
	for _, t := range orderedTypes {
		for _, candidate := range types {
			if candidate != t {
				continue
			}
			if _, exists := seen[t]; !exists {
				seen[t] = struct{}{}
				result = append(result, t)
			}
		}
	}
	return result
}

// DailyActivity 是单日单习惯的统一活跃模型，只在请求内派生，不落库
type DailyActivity struct {
	Date      time.Time
	Type      HabitType
	Active    bool
	Magnitude int
}

// StreakPolicy 描述某一习惯的连胜容忍策略
// MissTolerance 为允许连续缺勤的天数，Enabled=false 时仍然计算，只影响展示
type StreakPolicy struct {
	MissTolerance int  `toml:"miss_tolerance"`
	Enabled       bool `toml:"enabled"`
}

// DefaultPolicy 返回未配置时的默认策略：任何一次缺勤即中断
func DefaultPolicy() StreakPolicy {
	return StreakPolicy{MissTolerance: 0, Enabled: true}
}

// StreakState 为连胜计算结果
type StreakState struct {
	Type          HabitType
	CurrentStreak int
	LongestStreak int
	AsOf          time.Time
}
