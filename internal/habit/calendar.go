package habit

import "time"

// CalendarCell 表示热力图中的一天
type CalendarCell struct {
	Date           time.Time
	PerHabitActive map[HabitType]bool
	Magnitudes     map[HabitType]int
	CompositeLevel int
}

// activeHabit 是参与分档计算的单个活跃习惯
type activeHabit struct {
	habitType HabitType
	magnitude int
}

// levelRule 按顺序自上而下匹配，命中即返回对应档位
type levelRule struct {
	name  string
	level int
	match func(active []activeHabit) bool
}

// compositeRules 决定 0-3 四档颜色；新增习惯类型只需在 typeTable 中补充强度阈值
var compositeRules = []levelRule{
	{name: "idle", level: 0, match: func(active []activeHabit) bool {
		return len(active) == 0
	}},
	{name: "multi-habit", level: 3, match: func(active []activeHabit) bool {
		return len(active) >= 2
	}},
	{name: "high-magnitude", level: 3, match: func(active []activeHabit) bool {
		for _, h := range active {
			high := typeTable[h.habitType].highMagnitude
			if high > 0 && h.magnitude >= high {
				return true
			}
		}
		return false
	}},
	{name: "single-low", level: 1, match: func(active []activeHabit) bool {
		return len(active) == 1 && active[0].magnitude <= typeTable[active[0].habitType].lowMagnitude
	}},
}

const fallbackLevel = 2

// MaxCompositeLevel 为最高档位
const MaxCompositeLevel = 3

func compositeLevel(active []activeHabit) int {
	for _, rule := range compositeRules {
		if rule.match(active) {
			return rule.level
		}
	}
	return fallbackLevel
}

// BuildCalendar 生成区间内逐日连续的热力图格子（旧日期在前），没有记录的日期同样输出，档位为 0。
// 只依赖逐日活跃数据，耗时与区间长度和记录数成线性关系。
func BuildCalendar(activitiesByHabit map[HabitType][]DailyActivity, window Window) ([]CalendarCell, error) {
	if err := window.Validate(0); err != nil {
		return nil, err
	}

	start := Day(window.Start)
	types := make([]HabitType, 0, len(activitiesByHabit))
	for t := range activitiesByHabit {
		types = append(types, t)
	}
	types = SortTypes(types)

	cells := make([]CalendarCell, window.Days())
	for i := range cells {
		cell := CalendarCell{
			Date:           start.AddDate(0, 0, i),
			PerHabitActive: make(map[HabitType]bool, len(types)),
			Magnitudes:     make(map[HabitType]int, len(types)),
		}
		for _, t := range types {
			cell.PerHabitActive[t] = false
			cell.Magnitudes[t] = 0
		}
		cells[i] = cell
	}

	for t, activities := range activitiesByHabit {
		if !t.Valid() {
			continue
		}
		for _, activity := range activities {
			if !activity.Active {
				continue
			}
			offset := DaysBetween(start, activity.Date)
			if offset < 0 || offset >= len(cells) {
				continue
			}
			cells[offset].PerHabitActive[t] = true
			if activity.Magnitude > cells[offset].Magnitudes[t] {
				cells[offset].Magnitudes[t] = activity.Magnitude
			}
		}
	}

	active := make([]activeHabit, 0, len(types))
	for i := range cells {
		active = active[:0]
		for _, t := range types {
			if cells[i].PerHabitActive[t] {
				active = append(active, activeHabit{habitType: t, magnitude: cells[i].Magnitudes[t]})
			}
		}
		cells[i].CompositeLevel = compositeLevel(active)
	}

	return cells, nil
}
