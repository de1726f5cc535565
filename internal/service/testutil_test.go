package service

import (
	"testing"

	"github.com/focuslog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 打开内存数据库并迁移全部模型，返回句柄与清理函数。
func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

// seedUser 插入一个测试用户，密码哈希不参与这些用例
func seedUser(t *testing.T, gdb *gorm.DB, email string) *db.User {
	t.Helper()

	user := db.User{Email: email, PasswordHash: "test-hash"}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return &user
}
