package service

import (
	"fmt"

	"github.com/focuslog/internal/apperr"
	"github.com/focuslog/internal/db"
	"gorm.io/gorm"
)

// NotificationService 负责站内通知的查询与已读标记。
// 通知的产生方是其他服务（团队邀请、伙伴请求、成就、提醒扫描）。
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService 构造 NotificationService
func NewNotificationService(gdb *gorm.DB) *NotificationService {
	return &NotificationService{db: gdb}
}

// List 返回调用者的通知，unreadOnly 时只看未读
func (s *NotificationService) List(userID uint, unreadOnly bool) ([]db.Notification, error) {
	var notifications []db.Notification

	query := s.db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead 将单条通知置为已读
func (s *NotificationService) MarkRead(userID, id uint) error {
	result := s.db.Model(&db.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf("mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

// MarkAllRead 将调用者的全部未读通知置为已读，返回影响条数
func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	result := s.db.Model(&db.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("mark all read: %w", result.Error)
	}
	return result.RowsAffected, nil
}
