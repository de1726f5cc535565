package db

import (
	"time"

	"gorm.io/gorm"
)

// 团队成员角色枚举
const (
	TeamRoleOwner  = "owner"
	TeamRoleAdmin  = "admin"
	TeamRoleMember = "member"
)

// 项目任务状态枚举
const (
	ProjectTaskStatusTodo       = "todo"
	ProjectTaskStatusInProgress = "in_progress"
	ProjectTaskStatusReview     = "review"
	ProjectTaskStatusCompleted  = "completed"
)

// Team 定义了团队模型，OwnerID 冗余存创建者便于快速鉴权
type Team struct {
	gorm.Model
	Name        string `gorm:"not null"`
	Description string
	OwnerID     uint `gorm:"index;not null"`
}

// TeamMembership 记录用户在团队中的角色
// TeamID + UserID 唯一，重复加入直接冲突。
// 移除成员是硬删除，离开后允许再次被邀请
type TeamMembership struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	TeamID    uint   `gorm:"index;index:idx_team_membership_unique,unique;not null"`
	UserID    uint   `gorm:"index;index:idx_team_membership_unique,unique;not null"`
	Role      string `gorm:"default:member"`
}

// TableName 保证唯一索引作用到 team_id + user_id
func (TeamMembership) TableName() string {
	return "team_memberships"
}

// Project 定义了团队下的项目
type Project struct {
	gorm.Model
	TeamID      uint   `gorm:"index;not null"`
	Name        string `gorm:"not null"`
	Description string
	CreatedBy   uint
}

// ProjectTask 定义了项目任务
// 状态只校验枚举成员资格，不校验转移顺序（见 DESIGN.md）
type ProjectTask struct {
	gorm.Model
	ProjectID  uint   `gorm:"index;not null"`
	Title      string `gorm:"not null"`
	Status     string `gorm:"default:todo"`
	AssigneeID *uint  `gorm:"index"`
	CreatedBy  uint
}
