package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/focuslog/internal/apperr"
	"github.com/focuslog/internal/db"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const resetTokenTTL = time.Hour

// AuthService 负责注册、登录与找回密码。
// 登录失败统一返回同一条消息，不区分"邮箱不存在"与"密码错误"。
type AuthService struct {
	db *gorm.DB
}

// SignupInput 定义注册时可配置字段
type SignupInput struct {
	Email       string
	Password    string
	DisplayName string
	Timezone    string
}

// NewAuthService 构造 AuthService
func NewAuthService(gdb *gorm.DB) *AuthService {
	return &AuthService{db: gdb}
}

// Signup 创建新用户，邮箱冲突返回 409
func (s *AuthService) Signup(input SignupInput) (*db.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperr.Validation("invalid signup payload", "email is required")
	}
	if len(input.Password) < 8 {
		return nil, apperr.Validation("invalid signup payload", "password must be at least 8 characters")
	}

	var existing db.User
	err := s.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, apperr.Conflict("email already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{
		Email:        email,
		PasswordHash: string(hashed),
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Timezone:     strings.TrimSpace(input.Timezone),
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &user, nil
}

// Login 校验邮箱与密码
func (s *AuthService) Login(email, password string) (*db.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	var user db.User
	if err := s.db.Where("email = ?", normalized).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Authentication("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Authentication("invalid email or password")
	}

	return &user, nil
}

// RequestPasswordReset 为邮箱签发一次性重置令牌。
// 邮箱不存在时返回空令牌且不报错，调用方对两种情况给出相同响应，
// 防止邮箱枚举。
func (s *AuthService) RequestPasswordReset(email string, now time.Time) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	var user db.User
	if err := s.db.Where("email = ?", normalized).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	raw := uuid.NewString()
	token := db.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashResetToken(raw),
		ExpiresAt: now.Add(resetTokenTTL),
	}
	if err := s.db.Create(&token).Error; err != nil {
		return "", fmt.Errorf("create reset token: %w", err)
	}

	return raw, nil
}

// ResetPassword 消费重置令牌并更新密码。令牌只能使用一次。
func (s *AuthService) ResetPassword(rawToken, newPassword string, now time.Time) error {
	if len(newPassword) < 8 {
		return apperr.Validation("invalid reset payload", "password must be at least 8 characters")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var token db.PasswordResetToken
		if err := tx.Where("token_hash = ?", hashResetToken(rawToken)).First(&token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Validation("invalid or expired reset token")
			}
			return fmt.Errorf("lookup reset token: %w", err)
		}

		if token.UsedAt != nil || now.After(token.ExpiresAt) {
			return apperr.Validation("invalid or expired reset token")
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		if err := tx.Model(&db.User{}).Where("id = ?", token.UserID).
			Update("password_hash", string(hashed)).Error; err != nil {
			return fmt.Errorf("update password: %w", err)
		}

		token.UsedAt = &now
		if err := tx.Save(&token).Error; err != nil {
			return fmt.Errorf("mark token used: %w", err)
		}

		return nil
	})
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
