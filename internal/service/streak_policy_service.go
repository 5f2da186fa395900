package service

import (
	"fmt"

	"github.com/habitboard/internal/db"
	"github.com/habitboard/internal/habit"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreakPolicyInput 用于更新单个习惯的连胜策略
type StreakPolicyInput struct {
	MissTolerance int
	Enabled       bool
}

// StreakPolicyService 提供用户级连胜策略的读取与更新能力，未覆盖时回退到默认策略
type StreakPolicyService struct {
	db          *gorm.DB
	defaults    map[habit.HabitType]habit.StreakPolicy
	invalidator StreakInvalidator
}

// NewStreakPolicyService 构造 StreakPolicyService，defaults 通常来自 policies.toml
func NewStreakPolicyService(gdb *gorm.DB, defaults map[habit.HabitType]habit.StreakPolicy) *StreakPolicyService {
	merged := make(map[habit.HabitType]habit.StreakPolicy)
	for _, t := range habit.StreakTypes() {
		merged[t] = habit.DefaultPolicy()
		if policy, ok := defaults[t]; ok {
			merged[t] = policy
		}
	}
	return &StreakPolicyService{db: gdb, defaults: merged}
}

// WithInvalidator 注入策略变更后的缓存失效回调
func (s *StreakPolicyService) WithInvalidator(invalidator StreakInvalidator) *StreakPolicyService {
	s.invalidator = invalidator
	return s
}

// Policies 返回用户在所有支持连胜的习惯上的生效策略
func (s *StreakPolicyService) Policies(userID uint) (map[habit.HabitType]habit.StreakPolicy, error) {
	result := make(map[habit.HabitType]habit.StreakPolicy, len(s.defaults))
	for t, policy := range s.defaults {
		result[t] = policy
	}

	var records []db.StreakSetting
	if err := s.db.Where("user_id = ?", userID).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load streak settings: %w", err)
	}

	for _, record := range records {
		t := habit.HabitType(record.HabitType)
		if !t.SupportsStreak() {
			continue
		}
		result[t] = habit.StreakPolicy{MissTolerance: record.MissTolerance, Enabled: record.Enabled}
	}

	return result, nil
}

// Policy 返回单个习惯的生效策略，Mood 等不支持连胜的习惯返回 ErrUnsupportedOperation
func (s *StreakPolicyService) Policy(userID uint, habitType habit.HabitType) (habit.StreakPolicy, error) {
	if !habitType.SupportsStreak() {
		return habit.StreakPolicy{}, fmt.Errorf("%w: habit %s has no streak policy", habit.ErrUnsupportedOperation, habitType)
	}

	policies, err := s.Policies(userID)
	if err != nil {
		return habit.StreakPolicy{}, err
	}
	return policies[habitType], nil
}

// UpdatePolicy 保存用户对某个习惯的策略覆盖
func (s *StreakPolicyService) UpdatePolicy(userID uint, habitType habit.HabitType, input StreakPolicyInput) (habit.StreakPolicy, error) {
	if !habitType.SupportsStreak() {
		return habit.StreakPolicy{}, fmt.Errorf("%w: habit %s has no streak policy", habit.ErrUnsupportedOperation, habitType)
	}
	if input.MissTolerance < 0 {
		return habit.StreakPolicy{}, fmt.Errorf("%w: miss tolerance must not be negative", ErrInvalidRecord)
	}

	setting := db.StreakSetting{
		UserID:        userID,
		HabitType:     string(habitType),
		MissTolerance: input.MissTolerance,
		Enabled:       input.Enabled,
	}

	var saved db.StreakSetting
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "habit_type"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"miss_tolerance": input.MissTolerance,
				"enabled":        input.Enabled,
				"updated_at":     gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).Create(&setting).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND habit_type = ?", userID, string(habitType)).First(&saved).Error
	})
	if err != nil {
		return habit.StreakPolicy{}, fmt.Errorf("update streak policy: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(userID, habitType)
	}

	// 返回落库后的值
	return habit.StreakPolicy{MissTolerance: saved.MissTolerance, Enabled: saved.Enabled}, nil
}
