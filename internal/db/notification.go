package db

import (
	"time"

	"gorm.io/gorm"
)

// 通知类型枚举
const (
	NotificationTypeReminder    = "reminder"
	NotificationTypeAchievement = "achievement"
	NotificationTypeTeam        = "team"
	NotificationTypePartner     = "partner"
	NotificationTypeSystem      = "system"
)

// Notification 定义了站内通知
type Notification struct {
	gorm.Model
	UserID  uint   `gorm:"index;not null"`
	Title   string `gorm:"not null"`
	Message string
	Type    string `gorm:"default:system"`
	Read    bool   `gorm:"index"`
}

// Achievement 记录用户解锁的成就
// UserID + Code 唯一，重复授予通过 OnConflict DoNothing 吸收，
// 并发请求不会产生重复行
type Achievement struct {
	gorm.Model
	UserID     uint   `gorm:"index;index:idx_achievement_unique,unique;not null"`
	Code       string `gorm:"index:idx_achievement_unique,unique;not null"`
	UnlockedAt time.Time
}
