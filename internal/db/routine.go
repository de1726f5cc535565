package db

import (
	"time"

	"gorm.io/gorm"
)

// RoutineStep 定义了日常例程中的一个步骤
// TimeOfDay 为 "HH:MM" 格式的本地时间，SortOrder 控制展示顺序
type RoutineStep struct {
	gorm.Model
	UserID    uint   `gorm:"index;not null"`
	Title     string `gorm:"not null"`
	TimeOfDay string
	SortOrder int
}

// RoutineCompletion 记录例程步骤某日的完成，约束与习惯打卡一致
type RoutineCompletion struct {
	ID             uint `gorm:"primarykey"`
	CreatedAt      time.Time
	RoutineStepID  uint        `gorm:"index;index:idx_routine_completion_unique,unique"`
	RoutineStep    RoutineStep `gorm:"constraint:OnDelete:CASCADE"`
	CompletionDate time.Time   `gorm:"index:idx_routine_completion_unique,unique"`
}

// TableName 保证唯一索引作用到 routine_step_id + completion_date
func (RoutineCompletion) TableName() string {
	return "routine_completions"
}
