package handler

import (
	"net/http"
	"time"

	"github.com/focuslog/internal/service"
	"github.com/gin-gonic/gin"
)

type connectionPayload struct {
	Provider        string `json:"provider" validate:"required,oneof=google outlook apple"`
	ExternalAccount string `json:"external_account" validate:"max=200"`
	SyncToken       string `json:"sync_token" validate:"max=500"`
}

type connectionPatchPayload struct {
	ExternalAccount *string `json:"external_account"`
	SyncToken       *string `json:"sync_token"`
}

type eventPayload struct {
	ExternalID string    `json:"external_id" validate:"max=200"`
	Title      string    `json:"title" validate:"required,max=200"`
	StartsAt   time.Time `json:"starts_at" validate:"required"`
	EndsAt     time.Time `json:"ends_at"`
}

// ListCalendarConnections 返回日历连接
func (a *API) ListCalendarConnections(c *gin.Context) {
	connections, err := a.calendar.List(currentUserID(c))
	if err != nil {
		a.respondServiceError(c, "list_calendar", err)
		return
	}

	respondOK(c, gin.H{"connections": connections})
}

// CreateCalendarConnection 新建日历连接
func (a *API) CreateCalendarConnection(c *gin.Context) {
	var payload connectionPayload
	if !bindValidated(c, &payload) {
		return
	}

	connection, err := a.calendar.Create(currentUserID(c), service.ConnectionInput{
		Provider:        payload.Provider,
		ExternalAccount: payload.ExternalAccount,
		SyncToken:       payload.SyncToken,
	})
	if err != nil {
		a.respondServiceError(c, "create_calendar", err)
		return
	}

	respondOK(c, gin.H{"connection": connection})
}

// PatchCalendarConnection 更新同步游标或账号标识
func (a *API) PatchCalendarConnection(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的连接ID")
		return
	}

	var payload connectionPatchPayload
	if !bindValidated(c, &payload) {
		return
	}

	connection, err := a.calendar.Patch(currentUserID(c), id, service.ConnectionPatch{
		ExternalAccount: payload.ExternalAccount,
		SyncToken:       payload.SyncToken,
	})
	if err != nil {
		a.respondServiceError(c, "patch_calendar", err)
		return
	}

	respondOK(c, gin.H{"connection": connection})
}

// DeleteCalendarConnection 删除连接及其事件
func (a *API) DeleteCalendarConnection(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的连接ID")
		return
	}

	if err := a.calendar.Delete(currentUserID(c), id); err != nil {
		a.respondServiceError(c, "delete_calendar", err)
		return
	}

	respondOK(c, gin.H{})
}

// ListCalendarEvents 返回连接下的事件
func (a *API) ListCalendarEvents(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的连接ID")
		return
	}

	events, err := a.calendar.ListEvents(currentUserID(c), id)
	if err != nil {
		a.respondServiceError(c, "list_calendar_events", err)
		return
	}

	respondOK(c, gin.H{"events": events})
}

// AddCalendarEvent 写入一个事件
func (a *API) AddCalendarEvent(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的连接ID")
		return
	}

	var payload eventPayload
	if !bindValidated(c, &payload) {
		return
	}

	event, err := a.calendar.AddEvent(currentUserID(c), id, service.EventInput{
		ExternalID: payload.ExternalID,
		Title:      payload.Title,
		StartsAt:   payload.StartsAt,
		EndsAt:     payload.EndsAt,
	})
	if err != nil {
		a.respondServiceError(c, "add_calendar_event", err)
		return
	}

	respondOK(c, gin.H{"event": event})
}
