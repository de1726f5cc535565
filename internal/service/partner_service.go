package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/focuslog/internal/apperr"
	"github.com/focuslog/internal/db"
	"gorm.io/gorm"
)

// requestTransitions 是互助请求的转移表：pending 之后单向，终态冻结。
var requestTransitions = map[string][]string{
	db.RequestStatusPending: {db.RequestStatusAccepted, db.RequestStatusRejected},
}

// partnershipTransitions 是伙伴关系的转移表：active/paused 可互换，ended 为终态。
var partnershipTransitions = map[string][]string{
	db.PartnershipStatusActive: {db.PartnershipStatusPaused, db.PartnershipStatusEnded},
	db.PartnershipStatusPaused: {db.PartnershipStatusActive, db.PartnershipStatusEnded},
}

// PartnerService 负责互助伙伴请求与关系。
type PartnerService struct {
	db *gorm.DB
}

// PartnerOverview 汇总与调用者相关的请求与关系
type PartnerOverview struct {
	Incoming     []db.AccountabilityRequest     `json:"incoming_requests"`
	Outgoing     []db.AccountabilityRequest     `json:"outgoing_requests"`
	Partnerships []db.AccountabilityPartnership `json:"partnerships"`
}

// NewPartnerService 构造 PartnerService
func NewPartnerService(gdb *gorm.DB) *PartnerService {
	return &PartnerService{db: gdb}
}

// Overview 返回调用者的请求与伙伴关系
func (s *PartnerService) Overview(userID uint) (*PartnerOverview, error) {
	overview := &PartnerOverview{}

	if err := s.db.Where("to_user_id = ? AND status = ?", userID, db.RequestStatusPending).
		Order("created_at DESC").Find(&overview.Incoming).Error; err != nil {
		return nil, fmt.Errorf("list incoming requests: %w", err)
	}
	if err := s.db.Where("from_user_id = ?", userID).
		Order("created_at DESC").Find(&overview.Outgoing).Error; err != nil {
		return nil, fmt.Errorf("list outgoing requests: %w", err)
	}
	if err := s.db.Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("created_at DESC").Find(&overview.Partnerships).Error; err != nil {
		return nil, fmt.Errorf("list partnerships: %w", err)
	}

	return overview, nil
}

// SendRequest 按邮箱发出互助邀请。
// 已有未决请求或活跃关系时报 409。
func (s *PartnerService) SendRequest(userID uint, toEmail, message string) (*db.AccountabilityRequest, error) {
	var target db.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(toEmail))).
		First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if target.ID == userID {
		return nil, apperr.Validation("invalid request", "you cannot partner with yourself")
	}

	var pendingCount int64
	if err := s.db.Model(&db.AccountabilityRequest{}).
		Where("status = ?", db.RequestStatusPending).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userID, target.ID, target.ID, userID).
		Count(&pendingCount).Error; err != nil {
		return nil, fmt.Errorf("count pending requests: %w", err)
	}
	if pendingCount > 0 {
		return nil, apperr.Conflict("a pending request already exists")
	}

	var activeCount int64
	if err := s.db.Model(&db.AccountabilityPartnership{}).
		Where("status <> ?", db.PartnershipStatusEnded).
		Where("(user_a_id = ? AND user_b_id = ?) OR (user_a_id = ? AND user_b_id = ?)",
			userID, target.ID, target.ID, userID).
		Count(&activeCount).Error; err != nil {
		return nil, fmt.Errorf("count partnerships: %w", err)
	}
	if activeCount > 0 {
		return nil, apperr.Conflict("a partnership already exists")
	}

	request := db.AccountabilityRequest{
		FromUserID: userID,
		ToUserID:   target.ID,
		Message:    strings.TrimSpace(message),
		Status:     db.RequestStatusPending,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&request).Error; err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		notice := db.Notification{
			UserID:  target.ID,
			Title:   "互助伙伴邀请",
			Message: "你收到一条互助伙伴请求",
			Type:    db.NotificationTypePartner,
		}
		if err := tx.Create(&notice).Error; err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &request, nil
}

// Respond 处理收件人的接受/拒绝。转移表强制 pending 单向流转，
// 接受时在同一事务内建立伙伴关系。
func (s *PartnerService) Respond(userID, requestID uint, accept bool) (*db.AccountabilityRequest, error) {
	var request db.AccountabilityRequest
	if err := s.db.Where("id = ? AND to_user_id = ?", requestID, userID).
		First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("request not found")
		}
		return nil, fmt.Errorf("get request: %w", err)
	}

	next := db.RequestStatusRejected
	if accept {
		next = db.RequestStatusAccepted
	}
	if !transitionAllowed(requestTransitions, request.Status, next) {
		return nil, apperr.Conflict(fmt.Sprintf("request is already %s", request.Status))
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		request.Status = next
		if err := tx.Save(&request).Error; err != nil {
			return fmt.Errorf("update request: %w", err)
		}

		if !accept {
			return nil
		}

		partnership := db.AccountabilityPartnership{
			UserAID: request.FromUserID,
			UserBID: request.ToUserID,
			Status:  db.PartnershipStatusActive,
		}
		if err := tx.Create(&partnership).Error; err != nil {
			return fmt.Errorf("create partnership: %w", err)
		}

		notice := db.Notification{
			UserID:  request.FromUserID,
			Title:   "邀请已接受",
			Message: "你的互助伙伴请求已被接受",
			Type:    db.NotificationTypePartner,
		}
		if err := tx.Create(&notice).Error; err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &request, nil
}

// UpdatePartnership 调整伙伴关系状态，双方均可操作
func (s *PartnerService) UpdatePartnership(userID, partnershipID uint, status string) (*db.AccountabilityPartnership, error) {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if normalized != db.PartnershipStatusActive &&
		normalized != db.PartnershipStatusPaused &&
		normalized != db.PartnershipStatusEnded {
		return nil, apperr.Validation("invalid partnership payload",
			"status must be one of active/paused/ended")
	}

	var partnership db.AccountabilityPartnership
	if err := s.db.Where("id = ? AND (user_a_id = ? OR user_b_id = ?)",
		partnershipID, userID, userID).First(&partnership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("partnership not found")
		}
		return nil, fmt.Errorf("get partnership: %w", err)
	}

	if partnership.Status == normalized {
		return &partnership, nil
	}
	if !transitionAllowed(partnershipTransitions, partnership.Status, normalized) {
		return nil, apperr.Conflict(fmt.Sprintf("cannot move partnership from %s to %s",
			partnership.Status, normalized))
	}

	partnership.Status = normalized
	if err := s.db.Save(&partnership).Error; err != nil {
		return nil, fmt.Errorf("update partnership: %w", err)
	}
	return &partnership, nil
}

// CancelRequest 撤回自己发出的未决请求
func (s *PartnerService) CancelRequest(userID, requestID uint) error {
	result := s.db.Where("id = ? AND from_user_id = ? AND status = ?",
		requestID, userID, db.RequestStatusPending).
		Delete(&db.AccountabilityRequest{})
	if result.Error != nil {
		return fmt.Errorf("delete request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("request not found")
	}
	return nil
}

func transitionAllowed(table map[string][]string, from, to string) bool {
	for _, allowed := range table[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
