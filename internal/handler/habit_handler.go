package handler

import (
	"net/http"
	"time"

	"github.com/focuslog/internal/service"
	"github.com/gin-gonic/gin"
)

const dateFormat = "2006-01-02"

type habitPayload struct {
	Name         string `json:"name" validate:"required,max=120"`
	Description  string `json:"description" validate:"max=2000"`
	CadenceUnit  string `json:"cadence_unit" validate:"omitempty,oneof=daily weekly monthly"`
	CadenceCount int    `json:"cadence_count" validate:"omitempty,min=1"`
	Archived     bool   `json:"archived"`
}

// ListHabits 返回习惯列表 JSON
func (a *API) ListHabits(c *gin.Context) {
	includeArchived := c.Query("archived") == "true"

	habits, err := a.habits.List(currentUserID(c), includeArchived)
	if err != nil {
		a.respondServiceError(c, "list_habits", err)
		return
	}

	respondOK(c, gin.H{"habits": habits})
}

// CreateHabit 新建习惯
func (a *API) CreateHabit(c *gin.Context) {
	var payload habitPayload
	if !bindValidated(c, &payload) {
		return
	}

	habit, err := a.habits.Create(currentUserID(c), toHabitInput(payload))
	if err != nil {
		a.respondServiceError(c, "create_habit", err)
		return
	}

	respondOK(c, gin.H{"habit": habit})
}

// UpdateHabit 更新习惯
func (a *API) UpdateHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	var payload habitPayload
	if !bindValidated(c, &payload) {
		return
	}

	habit, err := a.habits.Update(currentUserID(c), id, toHabitInput(payload))
	if err != nil {
		a.respondServiceError(c, "update_habit", err)
		return
	}

	respondOK(c, gin.H{"habit": habit})
}

// DeleteHabit 删除习惯及其打卡记录
func (a *API) DeleteHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	if err := a.habits.Delete(currentUserID(c), id); err != nil {
		a.respondServiceError(c, "delete_habit", err)
		return
	}

	respondOK(c, gin.H{})
}

// ToggleHabit 切换指定日期的打卡状态，date 缺省为今天
func (a *API) ToggleHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation(dateFormat, raw, time.Local)
		if err != nil {
			respondFail(c, http.StatusBadRequest, "日期格式应为 YYYY-MM-DD")
			return
		}
		day = parsed
	}

	completed, err := a.habits.Toggle(currentUserID(c), id, day)
	if err != nil {
		a.respondServiceError(c, "toggle_habit", err)
		return
	}

	respondOK(c, gin.H{
		"habit_id":  id,
		"date":      day.Format(dateFormat),
		"completed": completed,
	})
}

// HabitStats 返回习惯统计，区间缺省为过去 30 天
func (a *API) HabitStats(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

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

	stats, err := a.habits.Stats(currentUserID(c), id, start, end, now)
	if err != nil {
		a.respondServiceError(c, "habit_stats", err)
		return
	}

	respondOK(c, gin.H{"stats": stats})
}

func toHabitInput(payload habitPayload) service.HabitInput {
	return service.HabitInput{
		Name:         payload.Name,
		Description:  payload.Description,
		CadenceUnit:  payload.CadenceUnit,
		CadenceCount: payload.CadenceCount,
		Archived:     payload.Archived,
	}
}
