package db

import (
	"time"

	"gorm.io/gorm"
)

// 日历提供方枚举
const (
	CalendarProviderGoogle  = "google"
	CalendarProviderOutlook = "outlook"
	CalendarProviderApple   = "apple"
)

// CalendarConnection 记录用户与外部日历的连接
// SyncToken 为提供方返回的增量同步游标，PATCH 时更新
type CalendarConnection struct {
	gorm.Model
	UserID          uint   `gorm:"index;not null"`
	Provider        string `gorm:"not null"`
	ExternalAccount string
	SyncToken       string
}

// CalendarEvent 记录同步下来的日历事件
type CalendarEvent struct {
	gorm.Model
	ConnectionID uint               `gorm:"index;not null"`
	Connection   CalendarConnection `gorm:"constraint:OnDelete:CASCADE"`
	ExternalID   string             `gorm:"index"`
	Title        string
	StartsAt     time.Time
	EndsAt       time.Time
}
