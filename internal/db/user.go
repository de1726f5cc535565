package db

import (
	"time"

	"gorm.io/gorm"
)

// User 定义了用户模型
// Prefs 以 JSON 字符串存放界面偏好（仪表盘组件配置等），不约束子结构
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string
	Timezone     string
	Prefs        string
}

// PasswordResetToken 记录找回密码令牌
// 只存 sha256 哈希，原始值从不落库；UsedAt 非空表示已消费
type PasswordResetToken struct {
	gorm.Model
	UserID    uint   `gorm:"index"`
	TokenHash string `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time
	UsedAt    *time.Time
}
