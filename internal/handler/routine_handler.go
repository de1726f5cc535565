package handler

import (
	"net/http"
	"time"

	"github.com/focuslog/internal/service"
	"github.com/gin-gonic/gin"
)

type routineStepPayload struct {
	Title     string `json:"title" validate:"required,max=200"`
	TimeOfDay string `json:"time_of_day" validate:"max=5"`
	SortOrder int    `json:"sort_order"`
}

// ListRoutine 返回例程步骤，并附带今日已完成的步骤 ID
func (a *API) ListRoutine(c *gin.Context) {
	userID := currentUserID(c)

	steps, err := a.routine.List(userID)
	if err != nil {
		a.respondServiceError(c, "list_routine", err)
		return
	}

	completedToday, err := a.routine.CompletionsOn(userID, time.Now())
	if err != nil {
		a.respondServiceError(c, "list_routine", err)
		return
	}

	respondOK(c, gin.H{"steps": steps, "completed_today": completedToday})
}

// CreateRoutineStep 新建例程步骤
func (a *API) CreateRoutineStep(c *gin.Context) {
	var payload routineStepPayload
	if !bindValidated(c, &payload) {
		return
	}

	step, err := a.routine.Create(currentUserID(c), toRoutineInput(payload))
	if err != nil {
		a.respondServiceError(c, "create_routine_step", err)
		return
	}

	respondOK(c, gin.H{"step": step})
}

// UpdateRoutineStep 更新例程步骤
func (a *API) UpdateRoutineStep(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的步骤ID")
		return
	}

	var payload routineStepPayload
	if !bindValidated(c, &payload) {
		return
	}

	step, err := a.routine.Update(currentUserID(c), id, toRoutineInput(payload))
	if err != nil {
		a.respondServiceError(c, "update_routine_step", err)
		return
	}

	respondOK(c, gin.H{"step": step})
}

// DeleteRoutineStep 删除例程步骤及其完成记录
func (a *API) DeleteRoutineStep(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的步骤ID")
		return
	}

	if err := a.routine.Delete(currentUserID(c), id); err != nil {
		a.respondServiceError(c, "delete_routine_step", err)
		return
	}

	respondOK(c, gin.H{})
}

// ToggleRoutineStep 切换指定日期的完成状态，date 缺省为今天
func (a *API) ToggleRoutineStep(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的步骤ID")
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

	completed, err := a.routine.Toggle(currentUserID(c), id, day)
	if err != nil {
		a.respondServiceError(c, "toggle_routine_step", err)
		return
	}

	respondOK(c, gin.H{
		"step_id":   id,
		"date":      day.Format(dateFormat),
		"completed": completed,
	})
}

func toRoutineInput(payload routineStepPayload) service.RoutineStepInput {
	return service.RoutineStepInput{
		Title:     payload.Title,
		TimeOfDay: payload.TimeOfDay,
		SortOrder: payload.SortOrder,
	}
}
