package service

import (
	"sync"
	"time"

	"github.com/habitboard/internal/habit"
)

// StreakInvalidator 由写入路径调用，写入后同步失效对应用户+习惯的连胜缓存
type StreakInvalidator interface {
	Invalidate(userID uint, habitType habit.HabitType)
}

type streakScope struct {
	userID    uint
	habitType habit.HabitType
}

// 策略参与缓存键，策略变更后旧结果不会被命中
type streakEntryKey struct {
	asOf   string
	policy habit.StreakPolicy
}

// maxEntriesPerScope 限制单个用户+习惯缓存的日期数，超出后淘汰最早写入的条目
const maxEntriesPerScope = 16

type scopedEntries struct {
	states map[streakEntryKey]habit.StreakState
	order  []streakEntryKey
}

// StreakCache 是 (userID, habitType, asOfDate) 维度的连胜记忆化缓存。
// 不做过期淘汰，依赖写入路径的 Invalidate 保证一致性；每个范围最多保留 maxEntriesPerScope 条。
// 每次 Invalidate 递增该范围的 generation，读取前记录的 generation 过期后 Put 不再生效，
// 避免并发读在写入之后回填旧结果。
type StreakCache struct {
	mu          sync.RWMutex
	entries     map[streakScope]*scopedEntries
	generations map[streakScope]uint64
}

// NewStreakCache 构造空缓存
func NewStreakCache() *StreakCache {
	return &StreakCache{
		entries:     make(map[streakScope]*scopedEntries),
		generations: make(map[streakScope]uint64),
	}
}

// Generation 返回某用户某习惯当前的缓存代数
func (c *StreakCache) Generation(userID uint, habitType habit.HabitType) uint64 {
	if c == nil {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[streakScope{userID: userID, habitType: habitType}]
}

// Get 查询缓存
func (c *StreakCache) Get(userID uint, habitType habit.HabitType, asOf time.Time, policy habit.StreakPolicy) (habit.StreakState, bool) {
	if c == nil {
		return habit.StreakState{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	scoped, ok := c.entries[streakScope{userID: userID, habitType: habitType}]
	if !ok {
		return habit.StreakState{}, false
	}
	state, ok := scoped.states[streakEntryKey{asOf: habit.FormatDate(asOf), policy: policy}]
	return state, ok
}

// Put 写入缓存，generation 与当前代数不一致时丢弃
func (c *StreakCache) Put(userID uint, habitType habit.HabitType, asOf time.Time, policy habit.StreakPolicy, state habit.StreakState, generation uint64) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	scope := streakScope{userID: userID, habitType: habitType}
	if c.generations[scope] != generation {
		return
	}
	scoped, ok := c.entries[scope]
	if !ok {
		scoped = &scopedEntries{states: make(map[streakEntryKey]habit.StreakState)}
		c.entries[scope] = scoped
	}

	key := streakEntryKey{asOf: habit.FormatDate(asOf), policy: policy}
	if _, exists := scoped.states[key]; !exists {
		if len(scoped.order) >= maxEntriesPerScope {
			delete(scoped.states, scoped.order[0])
			scoped.order = scoped.order[1:]
		}
		scoped.order = append(scoped.order, key)
	}
	scoped.states[key] = state
}

// Invalidate 删除某用户某习惯的全部缓存结果
func (c *StreakCache) Invalidate(userID uint, habitType habit.HabitType) {
	if c == nil {
		return
	}

	scope := streakScope{userID: userID, habitType: habitType}

	c.mu.Lock()
	delete(c.entries, scope)
	c.generations[scope]++
	c.mu.Unlock()
}

// Len 返回缓存条目总数
func (c *StreakCache) Len() int {
	if c == nil {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, scoped := range c.entries {
		total += len(scoped.states)
	}
	return total
}
