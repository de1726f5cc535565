package db

import (
	"time"

	"gorm.io/gorm"
)

// 目标状态枚举
const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusArchived  = "archived"
)

// Goal 定义了目标模型
// Progress 为 0..100 的百分比；状态间允许任意切换（见 DESIGN.md）
type Goal struct {
	gorm.Model
	UserID      uint   `gorm:"index;not null"`
	Title       string `gorm:"not null"`
	Description string
	Status      string `gorm:"default:active"`
	Progress    int
	TargetDate  *time.Time
}

// GoalMilestone 定义了目标下的里程碑
type GoalMilestone struct {
	gorm.Model
	GoalID    uint `gorm:"index;not null"`
	Goal      Goal `gorm:"constraint:OnDelete:CASCADE"`
	Title     string
	Completed bool
}
