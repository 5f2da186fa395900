package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/habitboard/internal/db"
	"github.com/habitboard/internal/habit"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrRecordNotFound 在指定日期没有对应打卡记录时返回
	ErrRecordNotFound = errors.New("habit record not found")
	// ErrInvalidRecord 当打卡数据不合法时返回
	ErrInvalidRecord = errors.New("invalid habit record")
)

// HabitRecordService 负责各类习惯打卡记录的读写，是核心计算与持久层之间的唯一边界
// 每次写入成功后同步调用 invalidator 失效连胜缓存
type HabitRecordService struct {
	db          *gorm.DB
	invalidator StreakInvalidator
}

// ProblemLogInput 定义刷题打卡的输入
type ProblemLogInput struct {
	UserID  uint
	LogDate time.Time
	Count   int
	Note    string
}

// AttendanceLogInput 定义出勤打卡的输入，nil 字段保持原值不变
type AttendanceLogInput struct {
	UserID  uint
	LogDate time.Time
	Gym     *bool
	College *bool
	Note    *string
}

// MoodLogInput 定义心情打卡的输入
type MoodLogInput struct {
	UserID  uint
	LogDate time.Time
	Score   int
	Note    string
}

// DayRecords 汇总某一天的全部原始记录，未记录的习惯为 nil
type DayRecords struct {
	Date       time.Time
	Problem    *db.ProblemLog
	Attendance *db.AttendanceLog
	Mood       *db.MoodLog
}

// NewHabitRecordService 构造 HabitRecordService
func NewHabitRecordService(gdb *gorm.DB) *HabitRecordService {
	return &HabitRecordService{db: gdb}
}

// WithInvalidator 注入写入后的缓存失效回调
func (s *HabitRecordService) WithInvalidator(invalidator StreakInvalidator) *HabitRecordService {
	s.invalidator = invalidator
	return s
}

// UpsertProblemLog 幂等写入刷题记录：同一天已存在则覆盖数量与备注
func (s *HabitRecordService) UpsertProblemLog(input ProblemLogInput) (*db.ProblemLog, error) {
	if input.UserID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRecord)
	}
	if input.Count < 0 {
		return nil, fmt.Errorf("%w: count must not be negative", ErrInvalidRecord)
	}
	if err := checkLogDate(input.LogDate); err != nil {
		return nil, err
	}

	logDate := habit.Day(input.LogDate)
	record := db.ProblemLog{
		UserID:  input.UserID,
		LogDate: logDate,
		Count:   input.Count,
		Note:    strings.TrimSpace(input.Note),
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "log_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"count", "note", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("upsert problem log: %w", err)
	}

	if err := s.db.Where("user_id = ? AND log_date = ?", input.UserID, logDate).First(&record).Error; err != nil {
		return nil, fmt.Errorf("reload problem log: %w", err)
	}

	s.invalidate(input.UserID, habit.ProblemSolving)
	return &record, nil
}

// UpsertAttendanceLog 幂等写入出勤记录，只更新本次提供的字段
func (s *HabitRecordService) UpsertAttendanceLog(input AttendanceLogInput) (*db.AttendanceLog, error) {
	if input.UserID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRecord)
	}
	if input.Gym == nil && input.College == nil {
		return nil, fmt.Errorf("%w: gym or college is required", ErrInvalidRecord)
	}
	if err := checkLogDate(input.LogDate); err != nil {
		return nil, err
	}

	logDate := habit.Day(input.LogDate)
	record := db.AttendanceLog{
		UserID:  input.UserID,
		LogDate: logDate,
		Gym:     input.Gym,
		College: input.College,
	}

	columns := []string{"updated_at"}
	if input.Gym != nil {
		columns = append(columns, "gym")
	}
	if input.College != nil {
		columns = append(columns, "college")
	}
	if input.Note != nil {
		record.Note = strings.TrimSpace(*input.Note)
		columns = append(columns, "note")
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "log_date"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("upsert attendance log: %w", err)
	}

	if err := s.db.Where("user_id = ? AND log_date = ?", input.UserID, logDate).First(&record).Error; err != nil {
		return nil, fmt.Errorf("reload attendance log: %w", err)
	}

	if input.Gym != nil {
		s.invalidate(input.UserID, habit.GymAttendance)
	}
	if input.College != nil {
		s.invalidate(input.UserID, habit.CollegeAttendance)
	}
	return &record, nil
}

// UpsertMoodLog 幂等写入心情记录，评分必须在 1-5 之间
func (s *HabitRecordService) UpsertMoodLog(input MoodLogInput) (*db.MoodLog, error) {
	if input.UserID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRecord)
	}
	if input.Score < habit.MinMood || input.Score > habit.MaxMood {
		return nil, fmt.Errorf("%w: mood score must be between %d and %d", ErrInvalidRecord, habit.MinMood, habit.MaxMood)
	}
	if err := checkLogDate(input.LogDate); err != nil {
		return nil, err
	}

	logDate := habit.Day(input.LogDate)
	record := db.MoodLog{
		UserID:  input.UserID,
		LogDate: logDate,
		Score:   input.Score,
		Note:    strings.TrimSpace(input.Note),
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "log_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "note", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("upsert mood log: %w", err)
	}

	if err := s.db.Where("user_id = ? AND log_date = ?", input.UserID, logDate).First(&record).Error; err != nil {
		return nil, fmt.Errorf("reload mood log: %w", err)
	}

	s.invalidate(input.UserID, habit.Mood)
	return &record, nil
}

// DeleteRecord 删除某一天某个习惯的记录；出勤类只清空对应字段，两项都为空时整行删除
func (s *HabitRecordService) DeleteRecord(userID uint, habitType habit.HabitType, date time.Time) error {
	logDate := habit.Day(date)

	var result *gorm.DB
	switch habitType {
	case habit.ProblemSolving:
		result = s.db.Where("user_id = ? AND log_date = ?", userID, logDate).Delete(&db.ProblemLog{})
	case habit.Mood:
		result = s.db.Where("user_id = ? AND log_date = ?", userID, logDate).Delete(&db.MoodLog{})
	case habit.GymAttendance, habit.CollegeAttendance:
		column := attendanceColumn(habitType)
		err := s.db.Transaction(func(tx *gorm.DB) error {
			result = tx.Model(&db.AttendanceLog{}).
				Where("user_id = ? AND log_date = ? AND "+column+" IS NOT NULL", userID, logDate).
				Update(column, nil)
			if result.Error != nil {
				return result.Error
			}
			return tx.Where("user_id = ? AND log_date = ? AND gym IS NULL AND college IS NULL", userID, logDate).
				Delete(&db.AttendanceLog{}).Error
		})
		if err != nil {
			return fmt.Errorf("delete %s record: %w", habitType, err)
		}
	default:
		return fmt.Errorf("%w: %s", habit.ErrUnknownHabitType, habitType)
	}

	if result.Error != nil {
		return fmt.Errorf("delete %s record: %w", habitType, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	s.invalidate(userID, habitType)
	return nil
}

// FetchRecords 返回某用户某习惯在 [start, end] 内按日期升序的原始记录。
// start 为零值时不设下界，end 为零值时不设上界。
func (s *HabitRecordService) FetchRecords(ctx context.Context, userID uint, habitType habit.HabitType, start, end time.Time) ([]habit.RawRecord, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if !start.IsZero() {
		query = query.Where("log_date >= ?", habit.Day(start))
	}
	if !end.IsZero() {
		query = query.Where("log_date <= ?", habit.Day(end))
	}
	query = query.Order("log_date ASC")

	switch habitType {
	case habit.ProblemSolving:
		var logs []db.ProblemLog
		if err := query.Find(&logs).Error; err != nil {
			return nil, fmt.Errorf("list problem logs: %w", err)
		}
		records := make([]habit.RawRecord, 0, len(logs))
		for _, log := range logs {
			records = append(records, habit.ProblemSolvingRecord{UserID: log.UserID, LogDate: log.LogDate, Count: log.Count})
		}
		return records, nil
	case habit.GymAttendance, habit.CollegeAttendance:
		var logs []db.AttendanceLog
		if err := query.Where(attendanceColumn(habitType) + " IS NOT NULL").Find(&logs).Error; err != nil {
			return nil, fmt.Errorf("list attendance logs: %w", err)
		}
		records := make([]habit.RawRecord, 0, len(logs))
		for _, log := range logs {
			attended := log.Gym
			if habitType == habit.CollegeAttendance {
				attended = log.College
			}
			records = append(records, habit.AttendanceRecord{UserID: log.UserID, LogDate: log.LogDate, Kind: habitType, Attended: attended})
		}
		return records, nil
	case habit.Mood:
		var logs []db.MoodLog
		if err := query.Find(&logs).Error; err != nil {
			return nil, fmt.Errorf("list mood logs: %w", err)
		}
		records := make([]habit.RawRecord, 0, len(logs))
		for _, log := range logs {
			records = append(records, habit.MoodRecord{UserID: log.UserID, LogDate: log.LogDate, Score: log.Score})
		}
		return records, nil
	default:
		return nil, fmt.Errorf("%w: %s", habit.ErrUnknownHabitType, habitType)
	}
}

// DayRecords 返回某一天的全部记录
func (s *HabitRecordService) DayRecords(userID uint, date time.Time) (*DayRecords, error) {
	logDate := habit.Day(date)
	day := &DayRecords{Date: logDate}

	var problem db.ProblemLog
	if found, err := firstOrNone(s.db.Where("user_id = ? AND log_date = ?", userID, logDate), &problem); err != nil {
		return nil, fmt.Errorf("load problem log: %w", err)
	} else if found {
		day.Problem = &problem
	}

	var attendance db.AttendanceLog
	if found, err := firstOrNone(s.db.Where("user_id = ? AND log_date = ?", userID, logDate), &attendance); err != nil {
		return nil, fmt.Errorf("load attendance log: %w", err)
	} else if found {
		day.Attendance = &attendance
	}

	var mood db.MoodLog
	if found, err := firstOrNone(s.db.Where("user_id = ? AND log_date = ?", userID, logDate), &mood); err != nil {
		return nil, fmt.Errorf("load mood log: %w", err)
	} else if found {
		day.Mood = &mood
	}

	return day, nil
}

func firstOrNone(query *gorm.DB, dst any) (bool, error) {
	if err := query.First(dst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func attendanceColumn(habitType habit.HabitType) string {
	if habitType == habit.CollegeAttendance {
		return "college"
	}
	return "gym"
}

func checkLogDate(date time.Time) error {
	if !habit.ValidLogDate(date) {
		return fmt.Errorf("%w: log date %s out of range %s..%s", ErrInvalidRecord,
			habit.FormatDate(date), habit.FormatDate(habit.MinLogDate), habit.FormatDate(habit.MaxLogDate))
	}
	return nil
}

func (s *HabitRecordService) invalidate(userID uint, habitType habit.HabitType) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID, habitType)
	}
}
