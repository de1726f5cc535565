package db

import (
	"gorm.io/gorm"
)

// 互助请求状态枚举，pending 之后单向流转
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

// 互助伙伴关系状态枚举
const (
	PartnershipStatusActive = "active"
	PartnershipStatusPaused = "paused"
	PartnershipStatusEnded  = "ended"
)

// AccountabilityRequest 记录一条互助伙伴邀请
// 状态转移在服务层按转移表校验：pending 只能到 accepted/rejected，终态冻结
type AccountabilityRequest struct {
	gorm.Model
	FromUserID uint   `gorm:"index;not null"`
	ToUserID   uint   `gorm:"index;not null"`
	Message    string
	Status     string `gorm:"default:pending"`
}

// AccountabilityPartnership 记录已建立的互助关系
// 仅在请求被接受时创建；UserAID 固定为发起方
type AccountabilityPartnership struct {
	gorm.Model
	UserAID uint   `gorm:"index;not null"`
	UserBID uint   `gorm:"index;not null"`
	Status  string `gorm:"default:active"`
}
