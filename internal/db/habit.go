package db

import (
	"time"

	"gorm.io/gorm"
)

// Habit 定义了习惯模型
// 频率通过 CadenceUnit/CadenceCount 描述，例如 unit=daily/count=1
// Archived 控制列表展示，归档后保留历史打卡
type Habit struct {
	gorm.Model
	UserID       uint   `gorm:"index;not null"`
	Name         string `gorm:"not null"`
	Description  string
	CadenceUnit  string `gorm:"default:daily"`
	CadenceCount int    `gorm:"default:1"`
	Archived     bool
}

// HabitCompletion 记录习惯某日的完成
// HabitID + CompletionDate 采用唯一索引，保证每天最多一条；
// 切换打卡通过 OnConflict 原子执行，避免并发下重复插入。
// 取消打卡是硬删除，软删除的残留行会占住唯一索引
type HabitCompletion struct {
	ID             uint `gorm:"primarykey"`
	CreatedAt      time.Time
	HabitID        uint      `gorm:"index;index:idx_habit_completion_unique,unique"`
	Habit          Habit     `gorm:"constraint:OnDelete:CASCADE"`
	CompletionDate time.Time `gorm:"index:idx_habit_completion_unique,unique"`
}

// TableName 保证唯一索引作用到 habit_id + completion_date
func (HabitCompletion) TableName() string {
	return "habit_completions"
}
