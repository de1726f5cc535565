// Package apperr defines the closed set of error kinds the HTTP boundary
// understands. Services return these instead of free-form messages so the
// status code is carried as data rather than recovered by string matching.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Kind tags an error with the HTTP semantics it maps to.
type Kind uint8

const (
	// KindValidation 输入不合法（400）
	KindValidation Kind = iota + 1
	// KindAuthentication 未登录或会话无效（401）
	KindAuthentication
	// KindAuthorization 已登录但权限不足（403）
	KindAuthorization
	// KindNotFound 在调用者可见范围内不存在（404）
	KindNotFound
	// KindConflict 与现有状态冲突（409）
	KindConflict
)

// Error is a tagged error value. Fields carries per-field validation
// messages for KindValidation errors.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
	cause   error
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return e.Message + ": " + strings.Join(e.Fields, "; ")
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Validation 构造 400 错误，fields 为逐字段提示。
func Validation(message string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Authentication 构造 401 错误。
func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// Authorization 构造 403 错误。
func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// NotFound 构造 404 错误。
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict 构造 409 错误。
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// WithCause attaches an underlying error without changing the surface message.
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// From extracts a tagged error from an error chain.
func From(err error) (*Error, bool) {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged, true
	}
	return nil, false
}
