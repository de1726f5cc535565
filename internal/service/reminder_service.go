package service

import (
	"fmt"
	"time"

	"github.com/focuslog/internal/db"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 提醒扫描的前瞻窗口：未来 24 小时内到期的未完成任务会收到提醒。
const reminderLookahead = 24 * time.Hour

// ReminderService 周期性扫描到期任务并生成提醒通知。
// 每个 (任务, 日) 最多提醒一次，靠当天已有同任务提醒的查重实现。
type ReminderService struct {
	db     *gorm.DB
	logger *zap.Logger
	cron   *cron.Cron
}

// NewReminderService 构造 ReminderService
func NewReminderService(gdb *gorm.DB, logger *zap.Logger) *ReminderService {
	return &ReminderService{db: gdb, logger: logger}
}

// Start 按 cron 表达式注册扫描任务并启动调度器
func (s *ReminderService) Start(spec string) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, func() {
		if err := s.Sweep(time.Now()); err != nil {
			s.logger.Error("reminder sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule reminder sweep: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop 停止调度器并等待在途任务结束
func (s *ReminderService) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep 扫描窗口内到期的未完成任务，为属主生成提醒通知。
func (s *ReminderService) Sweep(now time.Time) error {
	var tasks []db.Task
	if err := s.db.Where("completed = ?", false).
		Where("due_date IS NOT NULL AND due_date <= ?", now.Add(reminderLookahead)).
		Find(&tasks).Error; err != nil {
		return fmt.Errorf("load due tasks: %w", err)
	}

	dayStart := normalizeToDate(now)
	created := 0

	for _, task := range tasks {
		message := fmt.Sprintf("任务「%s」即将到期", task.Title)
		if task.DueDate.Before(now) {
			message = fmt.Sprintf("任务「%s」已过期", task.Title)
		}

		var existing int64
		if err := s.db.Model(&db.Notification{}).
			Where("user_id = ? AND type = ? AND message = ? AND created_at >= ?",
				task.UserID, db.NotificationTypeReminder, message, dayStart).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("check existing reminder: %w", err)
		}
		if existing > 0 {
			continue
		}

		notice := db.Notification{
			UserID:  task.UserID,
			Title:   "任务提醒",
			Message: message,
			Type:    db.NotificationTypeReminder,
		}
		if err := s.db.Create(&notice).Error; err != nil {
			return fmt.Errorf("create reminder: %w", err)
		}
		created++
	}

	if created > 0 {
		s.logger.Info("reminder sweep finished", zap.Int("created", created))
	}
	return nil
}
