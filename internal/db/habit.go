package db

import "time"

// ProblemLog 记录每日刷题数量
// UserID + LogDate 采用唯一索引，保证同一天只有一条记录，写入走 upsert
// 不使用 gorm.Model 的软删除，避免已删除记录占用唯一索引
type ProblemLog struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;uniqueIndex:idx_problem_log_unique"`
	LogDate   time.Time `gorm:"uniqueIndex:idx_problem_log_unique"`
	Count     int       `gorm:"not null;default:0"`
	Note      string    `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定自定义表名。
func (ProblemLog) TableName() string {
	return "problem_logs"
}

// AttendanceLog 记录每日健身/上课出勤
// Gym/College 为 NULL 表示当天没有记录（未知），与显式 false 区分
type AttendanceLog struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;uniqueIndex:idx_attendance_log_unique"`
	LogDate   time.Time `gorm:"uniqueIndex:idx_attendance_log_unique"`
	Gym       *bool
	College   *bool
	Note      string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定自定义表名。
func (AttendanceLog) TableName() string {
	return "attendance_logs"
}

// MoodLog 记录每日心情评分（1-5）
type MoodLog struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;uniqueIndex:idx_mood_log_unique"`
	LogDate   time.Time `gorm:"uniqueIndex:idx_mood_log_unique"`
	Score     int       `gorm:"not null"`
	Note      string    `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定自定义表名。
func (MoodLog) TableName() string {
	return "mood_logs"
}
