package cache

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// cachedResponse 是落入 redis 的响应快照
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyCapture struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCapture) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// GETCache 缓存已认证 GET 请求的 200 响应。
// 键包含调用者 ID，不同用户互不可见；cache 为 nil 时直接放行。
func GETCache(c *Cache, userIDFromContext func(*gin.Context) (uint, bool), ttl time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if c == nil || ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}

		userID, ok := userIDFromContext(ctx)
		if !ok {
			ctx.Next()
			return
		}

		key := fmt.Sprintf("cache:%d:%s?%s", userID, ctx.Request.URL.Path, ctx.Request.URL.RawQuery)

		var cached cachedResponse
		if err := c.Get(ctx.Request.Context(), key, &cached); err == nil {
			ctx.Header("X-Cache", "HIT")
			ctx.Data(cached.Status, cached.ContentType, cached.Body)
			ctx.Abort()
			return
		}

		ctx.Header("X-Cache", "MISS")
		capture := &bodyCapture{body: &bytes.Buffer{}, ResponseWriter: ctx.Writer}
		ctx.Writer = capture

		ctx.Next()

		if ctx.Writer.Status() != http.StatusOK {
			return
		}

		snapshot := cachedResponse{
			Status:      ctx.Writer.Status(),
			ContentType: ctx.Writer.Header().Get("Content-Type"),
			Body:        capture.body.Bytes(),
		}
		if err := c.Set(ctx.Request.Context(), key, snapshot, ttl); err != nil {
			c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
}
