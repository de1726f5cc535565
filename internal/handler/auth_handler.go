package handler

import (
	"time"

	"github.com/focuslog/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type signupPayload struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"max=120"`
	Timezone    string `json:"timezone" validate:"max=64"`
}

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordPayload struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordPayload struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// Signup 注册新用户并直接建立会话
func (a *API) Signup(c *gin.Context) {
	var payload signupPayload
	if !bindValidated(c, &payload) {
		return
	}

	user, err := a.auth.Signup(toSignupInput(payload))
	if err != nil {
		a.respondServiceError(c, "signup", err)
		return
	}

	if err := establishSession(c, user.ID); err != nil {
		a.respondServiceError(c, "signup", err)
		return
	}

	respondOK(c, gin.H{"user": gin.H{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
	}})
}

// Login 校验凭据并写入会话
func (a *API) Login(c *gin.Context) {
	var payload loginPayload
	if !bindValidated(c, &payload) {
		return
	}

	user, err := a.auth.Login(payload.Email, payload.Password)
	if err != nil {
		a.respondServiceError(c, "login", err)
		return
	}

	if err := establishSession(c, user.ID); err != nil {
		a.respondServiceError(c, "login", err)
		return
	}

	respondOK(c, gin.H{"user": gin.H{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
	}})
}

// Logout 清除会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		a.respondServiceError(c, "logout", err)
		return
	}
	respondOK(c, gin.H{})
}

// ForgotPassword 签发重置令牌。
// 无论邮箱是否存在都返回同样的响应，防止枚举；
// 令牌经日志外的通道送达（演示环境写入响应仅限 debug 模式）。
func (a *API) ForgotPassword(c *gin.Context) {
	var payload forgotPasswordPayload
	if !bindValidated(c, &payload) {
		return
	}

	token, err := a.auth.RequestPasswordReset(payload.Email, time.Now())
	if err != nil {
		a.respondServiceError(c, "forgot_password", err)
		return
	}

	if token != "" {
		// 真实部署应通过邮件发送；这里记录已签发事件，不落原始令牌
		a.logger.Info("password reset token issued")
	}

	respondOK(c, gin.H{"message": "如果该邮箱已注册，重置邮件将很快送达"})
}

// ResetPassword 消费令牌并更新密码
func (a *API) ResetPassword(c *gin.Context) {
	var payload resetPasswordPayload
	if !bindValidated(c, &payload) {
		return
	}

	if err := a.auth.ResetPassword(payload.Token, payload.Password, time.Now()); err != nil {
		a.respondServiceError(c, "reset_password", err)
		return
	}

	respondOK(c, gin.H{"message": "密码已重置"})
}

func toSignupInput(payload signupPayload) service.SignupInput {
	return service.SignupInput{
		Email:       payload.Email,
		Password:    payload.Password,
		DisplayName: payload.DisplayName,
		Timezone:    payload.Timezone,
	}
}

func establishSession(c *gin.Context, userID uint) error {
	session := sessions.Default(c)
	session.Set(sessionUserKey, userID)
	return session.Save()
}
