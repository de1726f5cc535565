package service

import (
	"fmt"
	"time"

	"github.com/focuslog/internal/db"
	"gorm.io/gorm"
)

// AnalyticsService 负责汇总统计。
// 全部是对已加载记录的单趟计算，每次请求重算，不落任何派生真值。
type AnalyticsService struct {
	db *gorm.DB
}

// DayBucket 是按日聚合的完成数
type DayBucket struct {
	Date           string `json:"date"`
	CompletedTasks int    `json:"completed_tasks"`
}

// HabitStreakEntry 是单个习惯的连胜概览
type HabitStreakEntry struct {
	HabitID       uint   `json:"habit_id"`
	Name          string `json:"name"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

// GoalSummary 按状态汇总目标
type GoalSummary struct {
	Active          int     `json:"active"`
	Completed       int     `json:"completed"`
	Archived        int     `json:"archived"`
	AverageProgress float64 `json:"average_progress"`
}

// AnalyticsOverview 是 /api/analytics 的完整载荷
type AnalyticsOverview struct {
	RangeStart     string            `json:"range_start"`
	RangeEnd       string            `json:"range_end"`
	Days           []DayBucket       `json:"days"`
	OpenByPriority map[string]int    `json:"open_by_priority"`
	HabitStreaks   []HabitStreakEntry `json:"habit_streaks"`
	Goals          GoalSummary       `json:"goals"`
}

// NewAnalyticsService 构造 AnalyticsService
func NewAnalyticsService(gdb *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: gdb}
}

// Overview 汇总区间内任务完成、未完成分布、习惯连胜与目标进度。
func (s *AnalyticsService) Overview(userID uint, start, end, today time.Time) (*AnalyticsOverview, error) {
	rangeStart := normalizeToDate(start)
	rangeEnd := normalizeToDate(end)

	overview := &AnalyticsOverview{
		RangeStart:     rangeStart.Format(dateLayout),
		RangeEnd:       rangeEnd.Format(dateLayout),
		OpenByPriority: map[string]int{},
	}

	var completed []db.Task
	if err := s.db.Where("user_id = ? AND completed = ?", userID, true).
		Where("completed_at IS NOT NULL AND completed_at >= ? AND completed_at < ?",
			rangeStart, rangeEnd.AddDate(0, 0, 1)).
		Find(&completed).Error; err != nil {
		return nil, fmt.Errorf("load completed tasks: %w", err)
	}

	counts := make(map[string]int)
	for _, task := range completed {
		counts[normalizeToDate(*task.CompletedAt).Format(dateLayout)]++
	}
	for cursor := rangeStart; !cursor.After(rangeEnd); cursor = cursor.AddDate(0, 0, 1) {
		key := cursor.Format(dateLayout)
		overview.Days = append(overview.Days, DayBucket{Date: key, CompletedTasks: counts[key]})
	}

	var open []db.Task
	if err := s.db.Where("user_id = ? AND completed = ?", userID, false).
		Find(&open).Error; err != nil {
		return nil, fmt.Errorf("load open tasks: %w", err)
	}
	for _, task := range open {
		overview.OpenByPriority[task.Priority]++
	}

	var habits []db.Habit
	if err := s.db.Where("user_id = ? AND archived = ?", userID, false).
		Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("load habits: %w", err)
	}
	for _, habit := range habits {
		var completions []db.HabitCompletion
		if err := s.db.Where("habit_id = ?", habit.ID).
			Order("completion_date ASC").Find(&completions).Error; err != nil {
			return nil, fmt.Errorf("load habit completions: %w", err)
		}
		dates := make([]time.Time, 0, len(completions))
		for _, c := range completions {
			dates = append(dates, c.CompletionDate)
		}
		overview.HabitStreaks = append(overview.HabitStreaks, HabitStreakEntry{
			HabitID:       habit.ID,
			Name:          habit.Name,
			CurrentStreak: walkCurrentStreak(dates, today),
			LongestStreak: longestStreak(dates),
		})
	}

	var goals []db.Goal
	if err := s.db.Where("user_id = ?", userID).Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	progressSum := 0
	for _, goal := range goals {
		progressSum += goal.Progress
		switch goal.Status {
		case db.GoalStatusCompleted:
			overview.Goals.Completed++
		case db.GoalStatusArchived:
			overview.Goals.Archived++
		default:
			overview.Goals.Active++
		}
	}
	if len(goals) > 0 {
		overview.Goals.AverageProgress = float64(progressSum) / float64(len(goals))
	}

	return overview, nil
}

const dateLayout = "2006-01-02"
