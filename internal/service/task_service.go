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

// TaskService 负责任务的增删改查、完成切换与依赖边维护。
// 所有查询都带 user_id 等值过滤，跨租户访问在结构上不可能发生。
type TaskService struct {
	db *gorm.DB
}

// TaskFilter 描述任务列表过滤条件
type TaskFilter struct {
	Completed *bool
	Priority  string
	ProjectID uint
	DueBefore *time.Time
	Search    string
}

// TaskInput 定义创建/更新任务时可配置字段
type TaskInput struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
	ParentID    *uint
	ProjectID   *uint
}

// NewTaskService 构造 TaskService
func NewTaskService(gdb *gorm.DB) *TaskService {
	return &TaskService{db: gdb}
}

// List 返回调用者的任务集合，支持基本筛选
func (s *TaskService) List(userID uint, filter TaskFilter) ([]db.Task, error) {
	var tasks []db.Task

	query := s.db.Model(&db.Task{}).Where("user_id = ?", userID)

	if filter.Completed != nil {
		query = query.Where("completed = ?", *filter.Completed)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.ProjectID != 0 {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date IS NOT NULL AND due_date < ?", *filter.DueBefore)
	}
	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.TrimSpace(filter.Search))
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

// Get 返回调用者名下的单个任务
func (s *TaskService) Get(userID, id uint) (*db.Task, error) {
	var task db.Task
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("task not found")
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &task, nil
}

// Create 新建任务，父任务必须属于同一用户
func (s *TaskService) Create(userID uint, input TaskInput) (*db.Task, error) {
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		if _, err := s.Get(userID, *input.ParentID); err != nil {
			return nil, err
		}
	}

	task := db.Task{
		UserID:      userID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Priority:    normalizeTaskPriority(input.Priority),
		DueDate:     input.DueDate,
		ParentID:    input.ParentID,
		ProjectID:   input.ProjectID,
	}

	if err := s.db.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

// Update 更新任务
func (s *TaskService) Update(userID, id uint, input TaskInput) (*db.Task, error) {
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}

	existing, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		if *input.ParentID == id {
			return nil, apperr.Validation("invalid task payload", "task cannot be its own parent")
		}
		if _, err := s.Get(userID, *input.ParentID); err != nil {
			return nil, err
		}
	}

	existing.Title = strings.TrimSpace(input.Title)
	existing.Description = strings.TrimSpace(input.Description)
	existing.Priority = normalizeTaskPriority(input.Priority)
	existing.DueDate = input.DueDate
	existing.ParentID = input.ParentID
	existing.ProjectID = input.ProjectID

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return existing, nil
}

// Delete 删除任务及其依赖边，子任务提升为顶层任务
func (s *TaskService) Delete(userID, id uint) error {
	if _, err := s.Get(userID, id); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dependency_id = ? OR dependent_id = ?", id, id).
			Delete(&db.TaskDependency{}).Error; err != nil {
			return fmt.Errorf("delete task dependencies: %w", err)
		}

		if err := tx.Model(&db.Task{}).
			Where("parent_id = ? AND user_id = ?", id, userID).
			Update("parent_id", nil).Error; err != nil {
			return fmt.Errorf("detach subtasks: %w", err)
		}

		if err := tx.Where("id = ? AND user_id = ?", id, userID).
			Delete(&db.Task{}).Error; err != nil {
			return fmt.Errorf("delete task: %w", err)
		}

		return nil
	})
}

// Toggle 翻转任务完成状态
func (s *TaskService) Toggle(userID, id uint, now time.Time) (*db.Task, error) {
	task, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	task.Completed = !task.Completed
	if task.Completed {
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}

	if err := s.db.Save(task).Error; err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}
	return task, nil
}

// AddDependency 在两个任务间添加有向依赖边。
// 自依赖拒绝，重复边由组合唯一索引吸收后报 409。
func (s *TaskService) AddDependency(userID, dependentID, dependencyID uint) (*db.TaskDependency, error) {
	if dependentID == dependencyID {
		return nil, apperr.Validation("invalid dependency", "a task cannot depend on itself")
	}

	if _, err := s.Get(userID, dependentID); err != nil {
		return nil, err
	}
	if _, err := s.Get(userID, dependencyID); err != nil {
		return nil, err
	}

	edge := db.TaskDependency{DependencyID: dependencyID, DependentID: dependentID}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dependency_id"}, {Name: "dependent_id"}},
		DoNothing: true,
	}).Create(&edge)
	if result.Error != nil {
		return nil, fmt.Errorf("create dependency: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperr.Conflict("dependency already exists")
	}

	return &edge, nil
}

// ListDependencies 返回任务的前置依赖
func (s *TaskService) ListDependencies(userID, taskID uint) ([]db.Task, error) {
	if _, err := s.Get(userID, taskID); err != nil {
		return nil, err
	}

	var tasks []db.Task
	if err := s.db.Model(&db.Task{}).
		Joins("JOIN task_dependencies ON task_dependencies.dependency_id = tasks.id").
		Where("task_dependencies.dependent_id = ? AND tasks.user_id = ?", taskID, userID).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	return tasks, nil
}

// RemoveDependency 删除一条依赖边
func (s *TaskService) RemoveDependency(userID, dependentID, dependencyID uint) error {
	if _, err := s.Get(userID, dependentID); err != nil {
		return err
	}

	result := s.db.Where("dependent_id = ? AND dependency_id = ?", dependentID, dependencyID).
		Delete(&db.TaskDependency{})
	if result.Error != nil {
		return fmt.Errorf("delete dependency: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("dependency not found")
	}
	return nil
}

func validateTaskInput(input TaskInput) error {
	var fields []string
	if strings.TrimSpace(input.Title) == "" {
		fields = append(fields, "title is required")
	}
	if input.Priority != "" && !validTaskPriority(input.Priority) {
		fields = append(fields, "priority must be one of low/medium/high/urgent")
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid task payload", fields...)
	}
	return nil
}

func validTaskPriority(p string) bool {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case db.TaskPriorityLow, db.TaskPriorityMedium, db.TaskPriorityHigh, db.TaskPriorityUrgent:
		return true
	}
	return false
}

func normalizeTaskPriority(p string) string {
	normalized := strings.ToLower(strings.TrimSpace(p))
	if normalized == "" {
		return db.TaskPriorityMedium
	}
	return normalized
}
