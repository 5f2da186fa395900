package habit

import (
	"errors"
	"testing"
)

func TestBuildCalendarIsDense(t *testing.T) {
	window := NewWindow(mustDate(t, "2024-02-25"), mustDate(t, "2024-03-05"))
	activities := map[HabitType][]DailyActivity{
		ProblemSolving: {
			{Date: mustDate(t, "2024-02-28"), Type: ProblemSolving, Active: true, Magnitude: 1},
			{Date: mustDate(t, "2024-03-10"), Type: ProblemSolving, Active: true, Magnitude: 5},
		},
		GymAttendance: nil,
	}

	cells, err := BuildCalendar(activities, window)
	if err != nil {
		t.Fatalf("BuildCalendar returned error: %v", err)
	}

	// 2024 为闰年：2/25..3/5 共 10 天
	if len(cells) != 10 {
		t.Fatalf("expected 10 cells, got %d", len(cells))
	}

	seen := make(map[string]struct{}, len(cells))
	for i, cell := range cells {
		key := FormatDate(cell.Date)
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate cell for %s", key)
		}
		seen[key] = struct{}{}
		if !window.Contains(cell.Date) {
			t.Fatalf("cell %s outside window", key)
		}
		if i > 0 && DaysBetween(cells[i-1].Date, cell.Date) != 1 {
			t.Fatalf("cells not consecutive at %s", key)
		}
		if _, ok := cell.PerHabitActive[GymAttendance]; !ok {
			t.Fatalf("cell %s missing gym entry", key)
		}
	}

	for _, cell := range cells {
		key := FormatDate(cell.Date)
		if key == "2024-02-28" {
			if !cell.PerHabitActive[ProblemSolving] || cell.CompositeLevel != 1 {
				t.Fatalf("expected single low activity on %s, got %+v", key, cell)
			}
			continue
		}
		if cell.CompositeLevel != 0 || cell.PerHabitActive[ProblemSolving] || cell.PerHabitActive[GymAttendance] {
			t.Fatalf("expected empty cell on %s, got %+v", key, cell)
		}
	}
}

func TestCompositeLevelRules(t *testing.T) {
	date := mustDate(t, "2024-01-15")
	window := NewWindow(date, date)

	tests := []struct {
		name       string
		activities map[HabitType][]DailyActivity
		level      int
	}{
		{
			name:       "no records",
			activities: map[HabitType][]DailyActivity{ProblemSolving: nil, Mood: nil},
			level:      0,
		},
		{
			name:       "one problem solved",
			activities: map[HabitType][]DailyActivity{ProblemSolving: {{Date: date, Type: ProblemSolving, Active: true, Magnitude: 1}}},
			level:      1,
		},
		{
			name:       "two problems solved",
			activities: map[HabitType][]DailyActivity{ProblemSolving: {{Date: date, Type: ProblemSolving, Active: true, Magnitude: 2}}},
			level:      2,
		},
		{
			name: "high magnitude single habit",
			activities: map[HabitType][]DailyActivity{
				ProblemSolving: {{Date: date, Type: ProblemSolving, Active: true, Magnitude: 4}},
				GymAttendance:  {{Date: date, Type: GymAttendance}},
			},
			level: 3,
		},
		{
			name: "gym and college together",
			activities: map[HabitType][]DailyActivity{
				GymAttendance:     {{Date: date, Type: GymAttendance, Active: true, Magnitude: 1}},
				CollegeAttendance: {{Date: date, Type: CollegeAttendance, Active: true, Magnitude: 1}},
			},
			level: 3,
		},
		{
			name:       "gym only",
			activities: map[HabitType][]DailyActivity{GymAttendance: {{Date: date, Type: GymAttendance, Active: true, Magnitude: 1}}},
			level:      1,
		},
		{
			name:       "good mood only",
			activities: map[HabitType][]DailyActivity{Mood: {{Date: date, Type: Mood, Active: true, Magnitude: 5}}},
			level:      2,
		},
		{
			name:       "low mood only",
			activities: map[HabitType][]DailyActivity{Mood: {{Date: date, Type: Mood, Active: true, Magnitude: 2}}},
			level:      1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells, err := BuildCalendar(tt.activities, window)
			if err != nil {
				t.Fatalf("BuildCalendar returned error: %v", err)
			}
			if len(cells) != 1 {
				t.Fatalf("expected 1 cell, got %d", len(cells))
			}
			if cells[0].CompositeLevel != tt.level {
				t.Fatalf("expected level %d, got %d", tt.level, cells[0].CompositeLevel)
			}
		})
	}
}

func TestBuildCalendarRejectsInvalidWindow(t *testing.T) {
	window := Window{Start: mustDate(t, "2024-03-02"), End: mustDate(t, "2024-03-01")}
	if _, err := BuildCalendar(nil, window); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestWindowValidate(t *testing.T) {
	window := NewWindow(mustDate(t, "2021-01-01"), mustDate(t, "2024-12-31"))
	if err := window.Validate(0); err != nil {
		t.Fatalf("expected unbounded window to pass, got %v", err)
	}
	if err := window.Validate(366); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow for oversized window, got %v", err)
	}
	if err := (Window{}).Validate(0); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow for zero window, got %v", err)
	}

	trailing := TrailingWindow(mustDate(t, "2024-12-31"), 365)
	if trailing.Days() != 365 || FormatDate(trailing.Start) != "2024-01-02" {
		t.Fatalf("unexpected trailing window %s..%s", FormatDate(trailing.Start), FormatDate(trailing.End))
	}
}
