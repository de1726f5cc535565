package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/focuslog/internal/apperr"
	"github.com/focuslog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HabitService 负责习惯及其每日打卡。
// CadenceUnit 支持 daily/weekly/monthly，CadenceCount>0。
type HabitService struct {
	db *gorm.DB
}

// HabitInput 定义创建/更新习惯时可配置字段
type HabitInput struct {
	Name         string
	Description  string
	CadenceUnit  string
	CadenceCount int
	Archived     bool
}

// HabitStats 汇总基础统计数据
type HabitStats struct {
	CompletedCount int     `json:"completed_count"`
	TargetCount    int     `json:"target_count"`
	CompletionRate float64 `json:"completion_rate"`
	CurrentStreak  int     `json:"current_streak"`
	LongestStreak  int     `json:"longest_streak"`
}

// NewHabitService 构造 HabitService
func NewHabitService(gdb *gorm.DB) *HabitService {
	return &HabitService{db: gdb}
}

// List 返回调用者的习惯集合
func (s *HabitService) List(userID uint, includeArchived bool) ([]db.Habit, error) {
	var habits []db.Habit

	query := s.db.Where("user_id = ?", userID)
	if !includeArchived {
		query = query.Where("archived = ?", false)
	}

	if err := query.Order("created_at DESC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

// Get 返回调用者名下的单个习惯
func (s *HabitService) Get(userID, id uint) (*db.Habit, error) {
	var habit db.Habit
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&habit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("habit not found")
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return &habit, nil
}

// Create 新建习惯
func (s *HabitService) Create(userID uint, input HabitInput) (*db.Habit, error) {
	if err := validateHabitInput(input); err != nil {
		return nil, err
	}

	habit := db.Habit{
		UserID:       userID,
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		CadenceUnit:  normalizeCadenceUnit(input.CadenceUnit),
		CadenceCount: maxInt(1, input.CadenceCount),
	}

	if err := s.db.Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &habit, nil
}

// Update 更新习惯
func (s *HabitService) Update(userID, id uint, input HabitInput) (*db.Habit, error) {
	if err := validateHabitInput(input); err != nil {
		return nil, err
	}

	existing, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Description = strings.TrimSpace(input.Description)
	existing.CadenceUnit = normalizeCadenceUnit(input.CadenceUnit)
	existing.CadenceCount = maxInt(1, input.CadenceCount)
	existing.Archived = input.Archived

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return existing, nil
}

// Delete 删除习惯并显式清除其打卡记录
func (s *HabitService) Delete(userID, id uint) error {
	if _, err := s.Get(userID, id); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("habit_id = ?", id).Delete(&db.HabitCompletion{}).Error; err != nil {
			return fmt.Errorf("delete habit completions: %w", err)
		}
		if err := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&db.Habit{}).Error; err != nil {
			return fmt.Errorf("delete habit: %w", err)
		}
		return nil
	})
}

// Toggle 切换指定日期的打卡状态，返回切换后是否完成。
// 插入走 OnConflict DoNothing，(habit_id, completion_date) 唯一索引
// 保证并发调用不会留下重复行；已存在时改为删除。
func (s *HabitService) Toggle(userID, habitID uint, day time.Time) (bool, error) {
	if _, err := s.Get(userID, habitID); err != nil {
		return false, err
	}

	date := normalizeToDate(day)
	completed := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		record := db.HabitCompletion{HabitID: habitID, CompletionDate: date}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "habit_id"}, {Name: "completion_date"}},
			DoNothing: true,
		}).Create(&record)
		if insert.Error != nil {
			return fmt.Errorf("insert habit completion: %w", insert.Error)
		}

		if insert.RowsAffected == 1 {
			completed = true
			return nil
		}

		if err := tx.Where("habit_id = ? AND completion_date = ?", habitID, date).
			Delete(&db.HabitCompletion{}).Error; err != nil {
			return fmt.Errorf("delete habit completion: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return completed, nil
}

// Stats 统计区间内完成情况与连胜。
// 当前连胜从 today 逐日回走，首个缺口即停；连胜不以缓存为真值，总是重算。
func (s *HabitService) Stats(userID, habitID uint, start, end, today time.Time) (*HabitStats, error) {
	habit, err := s.Get(userID, habitID)
	if err != nil {
		return nil, err
	}

	var completions []db.HabitCompletion
	if err := s.db.Where("habit_id = ?", habitID).
		Where("completion_date BETWEEN ? AND ?", normalizeToDate(start), normalizeToDate(end)).
		Order("completion_date ASC").
		Find(&completions).Error; err != nil {
		return nil, fmt.Errorf("list habit completions: %w", err)
	}

	dates := make([]time.Time, 0, len(completions))
	for _, c := range completions {
		dates = append(dates, c.CompletionDate)
	}

	stats := &HabitStats{CompletedCount: len(completions)}
	stats.TargetCount = expectedCount(habit.CadenceUnit, habit.CadenceCount, start, end)
	if stats.TargetCount <= 0 {
		stats.TargetCount = stats.CompletedCount
	}
	if stats.TargetCount > 0 {
		stats.CompletionRate = float64(stats.CompletedCount) / float64(stats.TargetCount)
	}

	stats.CurrentStreak = walkCurrentStreak(dates, today)
	stats.LongestStreak = longestStreak(dates)

	return stats, nil
}

func validateHabitInput(input HabitInput) error {
	var fields []string
	if strings.TrimSpace(input.Name) == "" {
		fields = append(fields, "name is required")
	}
	unit := strings.ToLower(strings.TrimSpace(input.CadenceUnit))
	if unit != "" && unit != "daily" && unit != "weekly" && unit != "monthly" {
		fields = append(fields, "cadence_unit must be one of daily/weekly/monthly")
	}
	if input.CadenceCount < 0 {
		fields = append(fields, "cadence_count must be positive")
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid habit payload", fields...)
	}
	return nil
}

func normalizeCadenceUnit(unit string) string {
	normalized := strings.ToLower(strings.TrimSpace(unit))
	if normalized == "" {
		return "daily"
	}
	return normalized
}

func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func expectedCount(unit string, count int, start, end time.Time) int {
	if end.Before(start) {
		return 0
	}

	days := int(normalizeToDate(end).Sub(normalizeToDate(start)).Hours()/24) + 1

	switch strings.ToLower(unit) {
	case "weekly":
		weeks := days / 7
		if weeks == 0 {
			weeks = 1
		}
		return weeks * maxInt(1, count)
	case "monthly":
		months := diffMonths(start, end)
		if months == 0 {
			months = 1
		}
		return months * maxInt(1, count)
	default:
		return days * maxInt(1, count)
	}
}

// walkCurrentStreak 从 today 起逐日回走，日期必须连续出现。
// 今天尚未打卡时允许从昨天起算。
func walkCurrentStreak(dates []time.Time, today time.Time) int {
	present := make(map[string]bool, len(dates))
	for _, d := range dates {
		present[normalizeToDate(d).Format("2006-01-02")] = true
	}

	cursor := normalizeToDate(today)
	if !present[cursor.Format("2006-01-02")] {
		cursor = cursor.AddDate(0, 0, -1)
	}

	streak := 0
	for present[cursor.Format("2006-01-02")] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

func longestStreak(dates []time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	longest := 1
	current := 1
	for i := 1; i < len(dates); i++ {
		delta := int(normalizeToDate(dates[i]).Sub(normalizeToDate(dates[i-1])).Hours() / 24)
		switch {
		case delta == 0:
			continue
		case delta == 1:
			current++
			if current > longest {
				longest = current
			}
		default:
			current = 1
		}
	}
	return longest
}

func diffMonths(start, end time.Time) int {
	y1, m1, _ := start.Date()
	y2, m2, _ := end.Date()

	return (y2-y1)*12 + int(m2-m1) + 1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
