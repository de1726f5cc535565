package service

import (
	"fmt"
	"time"

	"github.com/focuslog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// achievementFacts 是一次性加载的判定数据，谓词只读它，不再查库。
type achievementFacts struct {
	completedTasks     int64
	distinctTaskDays   int
	longestHabitStreak int
	completedGoals     int64
	teamMemberships    int64
	earlyRoutineDone   bool
}

// achievementDef 把成就编号绑定到一个谓词
type achievementDef struct {
	Code      string
	Title     string
	Predicate func(achievementFacts) bool
}

// 固定的成就清单。新增成就在这里追加即可。
var achievementDefs = []achievementDef{
	{"first_task", "首个任务完成", func(f achievementFacts) bool { return f.completedTasks >= 1 }},
	{"task_streak_7", "七日任务达人", func(f achievementFacts) bool { return f.distinctTaskDays >= 7 }},
	{"habit_master", "习惯大师", func(f achievementFacts) bool { return f.longestHabitStreak >= 10 }},
	{"goal_getter", "目标达成者", func(f achievementFacts) bool { return f.completedGoals >= 1 }},
	{"team_player", "团队协作者", func(f achievementFacts) bool { return f.teamMemberships >= 1 }},
	{"early_bird", "早起鸟", func(f achievementFacts) bool { return f.earlyRoutineDone }},
}

// AchievementService 评估成就谓词并授予新解锁项。
// 授予通过 (user_id, code) 唯一索引 + OnConflict DoNothing 原子执行，
// 并发评估不会产生重复行。
type AchievementService struct {
	db *gorm.DB
}

// NewAchievementService 构造 AchievementService
func NewAchievementService(gdb *gorm.DB) *AchievementService {
	return &AchievementService{db: gdb}
}

// Evaluate 对调用者跑一遍完整谓词清单，返回全部已解锁成就。
func (s *AchievementService) Evaluate(userID uint, now time.Time) ([]db.Achievement, error) {
	facts, err := s.loadFacts(userID)
	if err != nil {
		return nil, err
	}

	for _, def := range achievementDefs {
		if !def.Predicate(*facts) {
			continue
		}

		award := db.Achievement{UserID: userID, Code: def.Code, UnlockedAt: now}
		insert := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "code"}},
			DoNothing: true,
		}).Create(&award)
		if insert.Error != nil {
			return nil, fmt.Errorf("award achievement: %w", insert.Error)
		}

		if insert.RowsAffected == 1 {
			notice := db.Notification{
				UserID:  userID,
				Title:   "成就解锁",
				Message: fmt.Sprintf("恭喜解锁成就：%s", def.Title),
				Type:    db.NotificationTypeAchievement,
			}
			if err := s.db.Create(&notice).Error; err != nil {
				return nil, fmt.Errorf("create achievement notification: %w", err)
			}
		}
	}

	var unlocked []db.Achievement
	if err := s.db.Where("user_id = ?", userID).Order("unlocked_at ASC").
		Find(&unlocked).Error; err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return unlocked, nil
}

func (s *AchievementService) loadFacts(userID uint) (*achievementFacts, error) {
	facts := &achievementFacts{}

	if err := s.db.Model(&db.Task{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&facts.completedTasks).Error; err != nil {
		return nil, fmt.Errorf("count completed tasks: %w", err)
	}

	var completedAt []time.Time
	if err := s.db.Model(&db.Task{}).
		Where("user_id = ? AND completed = ? AND completed_at IS NOT NULL", userID, true).
		Pluck("completed_at", &completedAt).Error; err != nil {
		return nil, fmt.Errorf("load completion times: %w", err)
	}
	days := make(map[string]bool, len(completedAt))
	for _, t := range completedAt {
		days[normalizeToDate(t).Format(dateLayout)] = true
	}
	facts.distinctTaskDays = len(days)

	var habitIDs []uint
	if err := s.db.Model(&db.Habit{}).Where("user_id = ?", userID).
		Pluck("id", &habitIDs).Error; err != nil {
		return nil, fmt.Errorf("load habit ids: %w", err)
	}
	for _, habitID := range habitIDs {
		var completions []db.HabitCompletion
		if err := s.db.Where("habit_id = ?", habitID).
			Order("completion_date ASC").Find(&completions).Error; err != nil {
			return nil, fmt.Errorf("load habit completions: %w", err)
		}
		dates := make([]time.Time, 0, len(completions))
		for _, c := range completions {
			dates = append(dates, c.CompletionDate)
		}
		if streak := longestStreak(dates); streak > facts.longestHabitStreak {
			facts.longestHabitStreak = streak
		}
	}

	if err := s.db.Model(&db.Goal{}).
		Where("user_id = ? AND status = ?", userID, db.GoalStatusCompleted).
		Count(&facts.completedGoals).Error; err != nil {
		return nil, fmt.Errorf("count completed goals: %w", err)
	}

	if err := s.db.Model(&db.TeamMembership{}).Where("user_id = ?", userID).
		Count(&facts.teamMemberships).Error; err != nil {
		return nil, fmt.Errorf("count memberships: %w", err)
	}

	var earlyCount int64
	if err := s.db.Model(&db.RoutineCompletion{}).
		Joins("JOIN routine_steps ON routine_steps.id = routine_completions.routine_step_id").
		Where("routine_steps.user_id = ? AND routine_steps.time_of_day <> '' AND routine_steps.time_of_day < ?",
			userID, "09:00").
		Count(&earlyCount).Error; err != nil {
		return nil, fmt.Errorf("count early completions: %w", err)
	}
	facts.earlyRoutineDone = earlyCount > 0

	return facts, nil
}
