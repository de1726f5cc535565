package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/focuslog/internal/apperr"
	"github.com/focuslog/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const internalErrorMessage = "服务器内部错误"

var validate = validator.New()

// respondOK 输出统一成功信封
func respondOK(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for key, value := range payload {
		body[key] = value
	}
	c.JSON(http.StatusOK, body)
}

// respondFail 输出统一失败信封
func respondFail(c *gin.Context, status int, message string, fields ...string) {
	body := gin.H{"success": false, "error": message, "code": status}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	c.JSON(status, body)
}

// respondServiceError 按错误标签选状态码。未标记的错误一律 500，
// 细节只进日志，不回传客户端。
func (a *API) respondServiceError(c *gin.Context, handlerName string, err error) {
	if tagged, ok := apperr.From(err); ok {
		metrics.ErrorCount.WithLabelValues(handlerName, "client").Inc()
		respondFail(c, tagged.Status(), tagged.Message, tagged.Fields...)
		return
	}

	metrics.ErrorCount.WithLabelValues(handlerName, "internal").Inc()
	a.logger.Error("handler error",
		zap.String("handler", handlerName),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	respondFail(c, http.StatusInternalServerError, internalErrorMessage)
}

// bindValidated 解析 JSON 并执行结构体校验，失败时带逐字段提示返回 400。
func bindValidated(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondFail(c, http.StatusBadRequest, "请求体格式不正确")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var fields []string
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s: %s 校验未通过",
					strings.ToLower(fe.Field()), fe.Tag()))
			}
		}
		respondFail(c, http.StatusBadRequest, "请求参数不合法", fields...)
		return false
	}

	return true
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}
