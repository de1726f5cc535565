package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/focuslog/internal/apperr"
	"github.com/focuslog/internal/db"
	"gorm.io/gorm"
)

// GoalService 负责目标与里程碑。
// 状态只校验枚举成员资格，active/completed/archived 之间允许任意切换，
// 保持源系统的宽松语义。
type GoalService struct {
	db *gorm.DB
}

// GoalInput 定义创建/更新目标时可配置字段
type GoalInput struct {
	Title       string
	Description string
	Status      string
	Progress    int
	TargetDate  *time.Time
}

// MilestoneInput 定义里程碑字段
type MilestoneInput struct {
	Title     string
	Completed bool
}

// NewGoalService 构造 GoalService
func NewGoalService(gdb *gorm.DB) *GoalService {
	return &GoalService{db: gdb}
}

// List 返回调用者的目标集合，可按状态过滤
func (s *GoalService) List(userID uint, status string) ([]db.Goal, error) {
	var goals []db.Goal

	query := s.db.Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Order("created_at DESC").Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// Get 返回调用者名下的单个目标
func (s *GoalService) Get(userID, id uint) (*db.Goal, error) {
	var goal db.Goal
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("goal not found")
		}
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return &goal, nil
}

// Create 新建目标
func (s *GoalService) Create(userID uint, input GoalInput) (*db.Goal, error) {
	if err := validateGoalInput(input); err != nil {
		return nil, err
	}

	goal := db.Goal{
		UserID:      userID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      normalizeGoalStatus(input.Status),
		Progress:    input.Progress,
		TargetDate:  input.TargetDate,
	}

	if err := s.db.Create(&goal).Error; err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return &goal, nil
}

// Update 更新目标
func (s *GoalService) Update(userID, id uint, input GoalInput) (*db.Goal, error) {
	if err := validateGoalInput(input); err != nil {
		return nil, err
	}

	existing, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	existing.Title = strings.TrimSpace(input.Title)
	existing.Description = strings.TrimSpace(input.Description)
	existing.Status = normalizeGoalStatus(input.Status)
	existing.Progress = input.Progress
	existing.TargetDate = input.TargetDate

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return existing, nil
}

// Delete 删除目标并显式清除其里程碑
func (s *GoalService) Delete(userID, id uint) error {
	if _, err := s.Get(userID, id); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("goal_id = ?", id).Delete(&db.GoalMilestone{}).Error; err != nil {
			return fmt.Errorf("delete goal milestones: %w", err)
		}
		if err := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&db.Goal{}).Error; err != nil {
			return fmt.Errorf("delete goal: %w", err)
		}
		return nil
	})
}

// ListMilestones 返回目标下的里程碑
func (s *GoalService) ListMilestones(userID, goalID uint) ([]db.GoalMilestone, error) {
	if _, err := s.Get(userID, goalID); err != nil {
		return nil, err
	}

	var milestones []db.GoalMilestone
	if err := s.db.Where("goal_id = ?", goalID).Order("created_at ASC").
		Find(&milestones).Error; err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	return milestones, nil
}

// AddMilestone 为目标追加里程碑
func (s *GoalService) AddMilestone(userID, goalID uint, input MilestoneInput) (*db.GoalMilestone, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperr.Validation("invalid milestone payload", "title is required")
	}

	if _, err := s.Get(userID, goalID); err != nil {
		return nil, err
	}

	milestone := db.GoalMilestone{
		GoalID:    goalID,
		Title:     strings.TrimSpace(input.Title),
		Completed: input.Completed,
	}
	if err := s.db.Create(&milestone).Error; err != nil {
		return nil, fmt.Errorf("create milestone: %w", err)
	}
	return &milestone, nil
}

// UpdateMilestone 更新里程碑，归属通过 goal 的属主校验
func (s *GoalService) UpdateMilestone(userID, milestoneID uint, input MilestoneInput) (*db.GoalMilestone, error) {
	milestone, err := s.getMilestone(userID, milestoneID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Title) != "" {
		milestone.Title = strings.TrimSpace(input.Title)
	}
	milestone.Completed = input.Completed

	if err := s.db.Save(milestone).Error; err != nil {
		return nil, fmt.Errorf("update milestone: %w", err)
	}
	return milestone, nil
}

// DeleteMilestone 删除里程碑
func (s *GoalService) DeleteMilestone(userID, milestoneID uint) error {
	milestone, err := s.getMilestone(userID, milestoneID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(&db.GoalMilestone{}, milestone.ID).Error; err != nil {
		return fmt.Errorf("delete milestone: %w", err)
	}
	return nil
}

func (s *GoalService) getMilestone(userID, milestoneID uint) (*db.GoalMilestone, error) {
	var milestone db.GoalMilestone
	if err := s.db.Model(&db.GoalMilestone{}).
		Joins("JOIN goals ON goals.id = goal_milestones.goal_id").
		Where("goal_milestones.id = ? AND goals.user_id = ?", milestoneID, userID).
		First(&milestone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("milestone not found")
		}
		return nil, fmt.Errorf("get milestone: %w", err)
	}
	return &milestone, nil
}

func validateGoalInput(input GoalInput) error {
	var fields []string
	if strings.TrimSpace(input.Title) == "" {
		fields = append(fields, "title is required")
	}
	if input.Status != "" && !validGoalStatus(input.Status) {
		fields = append(fields, "status must be one of active/completed/archived")
	}
	if input.Progress < 0 || input.Progress > 100 {
		fields = append(fields, "progress must be between 0 and 100")
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid goal payload", fields...)
	}
	return nil
}

func validGoalStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case db.GoalStatusActive, db.GoalStatusCompleted, db.GoalStatusArchived:
		return true
	}
	return false
}

func normalizeGoalStatus(status string) string {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if normalized == "" {
		return db.GoalStatusActive
	}
	return normalized
}
