package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/habitboard/internal/habit"
)

// policyFile 对应 policies.toml：
//
//	[policies.gym]
//	miss_tolerance = 1
//	enabled = true
type policyFile struct {
	Policies map[string]policyEntry `toml:"policies"`
}

type policyEntry struct {
	MissTolerance *int  `toml:"miss_tolerance"`
	Enabled       *bool `toml:"enabled"`
}

// DefaultPolicies 返回所有支持连胜的习惯的内置默认策略。
func DefaultPolicies() map[habit.HabitType]habit.StreakPolicy {
	policies := make(map[habit.HabitType]habit.StreakPolicy)
	for _, t := range habit.StreakTypes() {
		policies[t] = habit.DefaultPolicy()
	}
	return policies
}

// LoadPolicies 读取 TOML 格式的默认连胜策略，文件不存在时返回内置默认值。
// 未出现的字段沿用默认值；为不支持连胜的习惯配置策略会报错。
func LoadPolicies(path string) (map[habit.HabitType]habit.StreakPolicy, error) {
	policies := DefaultPolicies()
	if path == "" {
		return policies, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return policies, nil
		}
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	return ParsePolicies(data)
}

// ParsePolicies 解析 TOML 内容并与内置默认值合并。
func ParsePolicies(data []byte) (map[habit.HabitType]habit.StreakPolicy, error) {
	policies := DefaultPolicies()

	var file policyFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}

	for name, entry := range file.Policies {
		habitType, err := habit.ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("policy %q: %w", name, err)
		}
		if !habitType.SupportsStreak() {
			return nil, fmt.Errorf("policy %q: %w", name, habit.ErrUnsupportedOperation)
		}

		policy := policies[habitType]
		if entry.MissTolerance != nil {
			if *entry.MissTolerance < 0 {
				return nil, fmt.Errorf("policy %q: miss_tolerance must not be negative", name)
			}
			policy.MissTolerance = *entry.MissTolerance
		}
		if entry.Enabled != nil {
			policy.Enabled = *entry.Enabled
		}
		policies[habitType] = policy
	}

	return policies, nil
}
