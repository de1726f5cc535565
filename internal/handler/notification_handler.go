package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ListNotifications 返回通知，unread=true 时只看未读
func (a *API) ListNotifications(c *gin.Context) {
	notifications, err := a.notifications.List(currentUserID(c), c.Query("unread") == "true")
	if err != nil {
		a.respondServiceError(c, "list_notifications", err)
		return
	}

	respondOK(c, gin.H{"notifications": notifications})
}

// MarkNotificationRead 将单条通知置为已读
func (a *API) MarkNotificationRead(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的通知ID")
		return
	}

	if err := a.notifications.MarkRead(currentUserID(c), id); err != nil {
		a.respondServiceError(c, "mark_notification_read", err)
		return
	}

	respondOK(c, gin.H{})
}

// MarkAllNotificationsRead 将全部未读通知置为已读
func (a *API) MarkAllNotificationsRead(c *gin.Context) {
	updated, err := a.notifications.MarkAllRead(currentUserID(c))
	if err != nil {
		a.respondServiceError(c, "mark_all_read", err)
		return
	}

	respondOK(c, gin.H{"updated": updated})
}

// Analytics 返回汇总统计，区间缺省为过去 30 天
func (a *API) Analytics(c *gin.Context) {
	now := time.Now()
	start := now.AddDate(0, 0, -29)
	if raw := c.Query("start"); raw != "" {
		if parsed, err := time.ParseInLocation(dateFormat, raw, time.Local); err == nil {
			start = parsed
		}
	}
	end := now
	if raw := c.Query("end"); raw != "" {
		if parsed, err := time.ParseInLocation(dateFormat, raw, time.Local); err == nil {
			end = parsed
		}
	}

	overview, err := a.analytics.Overview(currentUserID(c), start, end, now)
	if err != nil {
		a.respondServiceError(c, "analytics", err)
		return
	}

	respondOK(c, gin.H{"analytics": overview})
}

// ListAchievements 评估成就谓词并返回全部已解锁成就
func (a *API) ListAchievements(c *gin.Context) {
	achievements, err := a.achievements.Evaluate(currentUserID(c), time.Now())
	if err != nil {
		a.respondServiceError(c, "list_achievements", err)
		return
	}

	respondOK(c, gin.H{"achievements": achievements})
}
