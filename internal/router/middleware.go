package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/focuslog/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// requestLogger 记录每个请求的结构化日志并上报指标
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		status := c.Writer.Status()
		duration := time.Since(start).Seconds()

		metrics.ReqCount.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
		metrics.ReqDuration.WithLabelValues(c.Request.Method, path).Observe(duration)

		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Float64("duration", duration),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// recovery 捕获 panic，返回统一信封而不是断开连接
func recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r))
				c.JSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   "服务器内部错误",
					"code":    http.StatusInternalServerError,
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}
