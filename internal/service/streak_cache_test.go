package service

import (
	"testing"
	"time"

	"github.com/habitboard/internal/habit"
)

func TestStreakCacheGetPutInvalidate(t *testing.T) {
	cache := NewStreakCache()
	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	policy := habit.DefaultPolicy()
	state := habit.StreakState{Type: habit.GymAttendance, CurrentStreak: 3, LongestStreak: 5, AsOf: asOf}

	if _, ok := cache.Get(1, habit.GymAttendance, asOf, policy); ok {
		t.Fatalf("expected empty cache miss")
	}

	cache.Put(1, habit.GymAttendance, asOf, policy, state, cache.Generation(1, habit.GymAttendance))
	got, ok := cache.Get(1, habit.GymAttendance, asOf, policy)
	if !ok || got != state {
		t.Fatalf("expected cached state %+v, got %+v ok=%v", state, got, ok)
	}

	// 不同策略、不同日期互不命中
	if _, ok := cache.Get(1, habit.GymAttendance, asOf, habit.StreakPolicy{MissTolerance: 1, Enabled: true}); ok {
		t.Fatalf("expected miss for different policy")
	}
	if _, ok := cache.Get(1, habit.GymAttendance, asOf.AddDate(0, 0, 1), policy); ok {
		t.Fatalf("expected miss for different date")
	}

	cache.Put(2, habit.GymAttendance, asOf, policy, state, cache.Generation(2, habit.GymAttendance))
	cache.Invalidate(1, habit.GymAttendance)

	if _, ok := cache.Get(1, habit.GymAttendance, asOf, policy); ok {
		t.Fatalf("expected miss after invalidation")
	}
	if _, ok := cache.Get(2, habit.GymAttendance, asOf, policy); !ok {
		t.Fatalf("expected other user entry to survive")
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", cache.Len())
	}
}

func TestStreakCacheDropsStalePut(t *testing.T) {
	cache := NewStreakCache()
	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	policy := habit.DefaultPolicy()

	generation := cache.Generation(1, habit.ProblemSolving)
	cache.Invalidate(1, habit.ProblemSolving)
	cache.Put(1, habit.ProblemSolving, asOf, policy, habit.StreakState{CurrentStreak: 9}, generation)

	if _, ok := cache.Get(1, habit.ProblemSolving, asOf, policy); ok {
		t.Fatalf("expected stale put to be dropped")
	}
}

func TestNilStreakCacheIsNoop(t *testing.T) {
	var cache *StreakCache
	asOf := time.Now()

	cache.Put(1, habit.GymAttendance, asOf, habit.DefaultPolicy(), habit.StreakState{}, 0)
	cache.Invalidate(1, habit.GymAttendance)
	if _, ok := cache.Get(1, habit.GymAttendance, asOf, habit.DefaultPolicy()); ok {
		t.Fatalf("nil cache should never hit")
	}
	if cache.Len() != 0 {
		t.Fatalf("nil cache should be empty")
	}
}

func TestStreakCacheBoundsEntriesPerScope(t *testing.T) {
	cache := NewStreakCache()
	policy := habit.DefaultPolicy()
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// 扫描大量日期不会让缓存无限增长
	for i := 0; i < maxEntriesPerScope*4; i++ {
		asOf := first.AddDate(0, 0, i)
		cache.Put(1, habit.GymAttendance, asOf, policy, habit.StreakState{CurrentStreak: i}, cache.Generation(1, habit.GymAttendance))
	}

	if cache.Len() != maxEntriesPerScope {
		t.Fatalf("expected %d entries, got %d", maxEntriesPerScope, cache.Len())
	}
	if _, ok := cache.Get(1, habit.GymAttendance, first, policy); ok {
		t.Fatalf("expected oldest entry to be evicted")
	}
	last := first.AddDate(0, 0, maxEntriesPerScope*4-1)
	got, ok := cache.Get(1, habit.GymAttendance, last, policy)
	if !ok || got.CurrentStreak != maxEntriesPerScope*4-1 {
		t.Fatalf("expected newest entry to be kept, got %+v ok=%v", got, ok)
	}

	// 重复写入同一键不会挤掉其他条目
	cache.Put(1, habit.GymAttendance, last, policy, habit.StreakState{CurrentStreak: 1}, cache.Generation(1, habit.GymAttendance))
	if cache.Len() != maxEntriesPerScope {
		t.Fatalf("expected overwrite to keep size, got %d", cache.Len())
	}
}
