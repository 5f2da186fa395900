package db

import "time"

// StreakSetting 存储用户级的连胜策略覆盖，未覆盖的习惯使用 policies.toml 中的默认值。
type StreakSetting struct {
	ID            uint   `gorm:"primaryKey"`
	UserID        uint   `gorm:"uniqueIndex:idx_streak_setting_unique;not null"`
	HabitType     string `gorm:"size:32;uniqueIndex:idx_streak_setting_unique;not null"`
	MissTolerance int    `gorm:"not null;default:0"`
	Enabled       bool   `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName 自定义表名以保持命名一致。
func (StreakSetting) TableName() string {
	return "streak_settings"
}
