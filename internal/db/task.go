package db

import (
	"time"

	"gorm.io/gorm"
)

// 任务优先级枚举
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// 智能优先级推荐动作
const (
	ActionDoNow     = "do_now"
	ActionSchedule  = "schedule"
	ActionDelegate  = "delegate"
	ActionEliminate = "eliminate"
)

// Task 定义了任务模型
// ParentID 支持子任务树；ProjectID 可选关联到团队项目
// PriorityScore/RecommendedAction 是智能优先级的结果缓存，
// 每次请求都会从源字段重算，缓存只用于列表展示
type Task struct {
	gorm.Model
	UserID            uint   `gorm:"index;not null"`
	Title             string `gorm:"not null"`
	Description       string
	Completed         bool `gorm:"index"`
	CompletedAt       *time.Time
	Priority          string `gorm:"default:medium"`
	DueDate           *time.Time
	ParentID          *uint `gorm:"index"`
	ProjectID         *uint `gorm:"index"`
	PriorityScore     float64
	RecommendedAction string
}

// TaskDependency 记录任务间的有向依赖边
// DependencyID 必须先完成，DependentID 才可开始
// 组合唯一索引去重，自依赖在服务层拒绝
// 不用软删除：残留的 deleted 行会占住唯一索引，导致边无法重建
type TaskDependency struct {
	ID           uint `gorm:"primarykey"`
	CreatedAt    time.Time
	DependencyID uint `gorm:"index:idx_task_dependency_unique,unique;not null"`
	DependentID  uint `gorm:"index:idx_task_dependency_unique,unique;not null"`
}

// TableName 保证唯一索引作用到 dependency_id + dependent_id
func (TaskDependency) TableName() string {
	return "task_dependencies"
}
