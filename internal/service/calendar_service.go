package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/focuslog/internal/apperr"
	"github.com/focuslog/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CalendarService 负责日历连接与事件。
// 不与外部提供方通信，只维护连接与同步游标；事件由调用方推入。
type CalendarService struct {
	db *gorm.DB
}

// ConnectionInput 定义创建连接时可配置字段
type ConnectionInput struct {
	Provider        string
	ExternalAccount string
	SyncToken       string
}

// ConnectionPatch 定义 PATCH 可更新字段，nil 表示不变
type ConnectionPatch struct {
	ExternalAccount *string
	SyncToken       *string
}

// EventInput 定义写入事件时可配置字段
type EventInput struct {
	ExternalID string
	Title      string
	StartsAt   time.Time
	EndsAt     time.Time
}

// NewCalendarService 构造 CalendarService
func NewCalendarService(gdb *gorm.DB) *CalendarService {
	return &CalendarService{db: gdb}
}

// List 返回调用者的日历连接
func (s *CalendarService) List(userID uint) ([]db.CalendarConnection, error) {
	var connections []db.CalendarConnection
	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC").
		Find(&connections).Error; err != nil {
		return nil, fmt.Errorf("list calendar connections: %w", err)
	}
	return connections, nil
}

// Get 返回调用者名下的单个连接
func (s *CalendarService) Get(userID, id uint) (*db.CalendarConnection, error) {
	var connection db.CalendarConnection
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).
		First(&connection).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("calendar connection not found")
		}
		return nil, fmt.Errorf("get calendar connection: %w", err)
	}
	return &connection, nil
}

// Create 新建日历连接
func (s *CalendarService) Create(userID uint, input ConnectionInput) (*db.CalendarConnection, error) {
	provider := strings.ToLower(strings.TrimSpace(input.Provider))
	if provider != db.CalendarProviderGoogle &&
		provider != db.CalendarProviderOutlook &&
		provider != db.CalendarProviderApple {
		return nil, apperr.Validation("invalid calendar payload",
			"provider must be one of google/outlook/apple")
	}

	connection := db.CalendarConnection{
		UserID:          userID,
		Provider:        provider,
		ExternalAccount: strings.TrimSpace(input.ExternalAccount),
		SyncToken:       strings.TrimSpace(input.SyncToken),
	}
	if err := s.db.Create(&connection).Error; err != nil {
		return nil, fmt.Errorf("create calendar connection: %w", err)
	}
	return &connection, nil
}

// Patch 更新同步游标或账号标识
func (s *CalendarService) Patch(userID, id uint, patch ConnectionPatch) (*db.CalendarConnection, error) {
	connection, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	if patch.ExternalAccount != nil {
		connection.ExternalAccount = strings.TrimSpace(*patch.ExternalAccount)
	}
	if patch.SyncToken != nil {
		connection.SyncToken = strings.TrimSpace(*patch.SyncToken)
	}

	if err := s.db.Save(connection).Error; err != nil {
		return nil, fmt.Errorf("update calendar connection: %w", err)
	}
	return connection, nil
}

// Delete 删除连接并显式清除其事件
func (s *CalendarService) Delete(userID, id uint) error {
	if _, err := s.Get(userID, id); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("connection_id = ?", id).Delete(&db.CalendarEvent{}).Error; err != nil {
			return fmt.Errorf("delete calendar events: %w", err)
		}
		if err := tx.Where("id = ? AND user_id = ?", id, userID).
			Delete(&db.CalendarConnection{}).Error; err != nil {
			return fmt.Errorf("delete calendar connection: %w", err)
		}
		return nil
	})
}

// ListEvents 返回连接下的事件
func (s *CalendarService) ListEvents(userID, connectionID uint) ([]db.CalendarEvent, error) {
	if _, err := s.Get(userID, connectionID); err != nil {
		return nil, err
	}

	var events []db.CalendarEvent
	if err := s.db.Where("connection_id = ?", connectionID).
		Order("starts_at ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	return events, nil
}

// AddEvent 写入一个事件。ExternalID 缺省时生成 uuid。
func (s *CalendarService) AddEvent(userID, connectionID uint, input EventInput) (*db.CalendarEvent, error) {
	if _, err := s.Get(userID, connectionID); err != nil {
		return nil, err
	}

	var fields []string
	if strings.TrimSpace(input.Title) == "" {
		fields = append(fields, "title is required")
	}
	if !input.EndsAt.IsZero() && input.EndsAt.Before(input.StartsAt) {
		fields = append(fields, "ends_at must not be before starts_at")
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid event payload", fields...)
	}

	externalID := strings.TrimSpace(input.ExternalID)
	if externalID == "" {
		externalID = uuid.NewString()
	}

	event := db.CalendarEvent{
		ConnectionID: connectionID,
		ExternalID:   externalID,
		Title:        strings.TrimSpace(input.Title),
		StartsAt:     input.StartsAt,
		EndsAt:       input.EndsAt,
	}
	if err := s.db.Create(&event).Error; err != nil {
		return nil, fmt.Errorf("create calendar event: %w", err)
	}
	return &event, nil
}
