package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 打开数据库连接并执行自动迁移，返回可注入的句柄。
// databasePath 为空时回退到默认值 focuslog.db。
func Open(databasePath string) (*gorm.DB, error) {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "focuslog.db"
	}

	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}

	return gdb, nil
}

// Migrate 为核心模型创建/更新表结构。测试中直接对内存库调用。
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&User{},
		&PasswordResetToken{},
		&Task{},
		&TaskDependency{},
		&Habit{},
		&HabitCompletion{},
		&RoutineStep{},
		&RoutineCompletion{},
		&Goal{},
		&GoalMilestone{},
		&Team{},
		&TeamMembership{},
		&Project{},
		&ProjectTask{},
		&AccountabilityRequest{},
		&AccountabilityPartnership{},
		&CalendarConnection{},
		&CalendarEvent{},
		&Notification{},
		&Achievement{},
	)
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
