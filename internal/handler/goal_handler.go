package handler

import (
	"net/http"
	"time"

	"github.com/focuslog/internal/service"
	"github.com/gin-gonic/gin"
)

type goalPayload struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=4000"`
	Status      string     `json:"status" validate:"omitempty,oneof=active completed archived"`
	Progress    int        `json:"progress" validate:"min=0,max=100"`
	TargetDate  *time.Time `json:"target_date"`
}

type milestonePayload struct {
	Title     string `json:"title" validate:"required,max=200"`
	Completed bool   `json:"completed"`
}

type milestoneUpdatePayload struct {
	Title     string `json:"title" validate:"max=200"`
	Completed bool   `json:"completed"`
}

// ListGoals 返回目标列表，可按 status 过滤
func (a *API) ListGoals(c *gin.Context) {
	goals, err := a.goals.List(currentUserID(c), c.Query("status"))
	if err != nil {
		a.respondServiceError(c, "list_goals", err)
		return
	}

	respondOK(c, gin.H{"goals": goals})
}

// GetGoal 返回单个目标及其里程碑
func (a *API) GetGoal(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的目标ID")
		return
	}

	userID := currentUserID(c)
	goal, err := a.goals.Get(userID, id)
	if err != nil {
		a.respondServiceError(c, "get_goal", err)
		return
	}

	milestones, err := a.goals.ListMilestones(userID, id)
	if err != nil {
		a.respondServiceError(c, "get_goal", err)
		return
	}

	respondOK(c, gin.H{"goal": goal, "milestones": milestones})
}

// CreateGoal 新建目标
func (a *API) CreateGoal(c *gin.Context) {
	var payload goalPayload
	if !bindValidated(c, &payload) {
		return
	}

	goal, err := a.goals.Create(currentUserID(c), toGoalInput(payload))
	if err != nil {
		a.respondServiceError(c, "create_goal", err)
		return
	}

	respondOK(c, gin.H{"goal": goal})
}

// UpdateGoal 更新目标
func (a *API) UpdateGoal(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的目标ID")
		return
	}

	var payload goalPayload
	if !bindValidated(c, &payload) {
		return
	}

	goal, err := a.goals.Update(currentUserID(c), id, toGoalInput(payload))
	if err != nil {
		a.respondServiceError(c, "update_goal", err)
		return
	}

	respondOK(c, gin.H{"goal": goal})
}

// DeleteGoal 删除目标及其里程碑
func (a *API) DeleteGoal(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的目标ID")
		return
	}

	if err := a.goals.Delete(currentUserID(c), id); err != nil {
		a.respondServiceError(c, "delete_goal", err)
		return
	}

	respondOK(c, gin.H{})
}

// AddGoalMilestone 为目标追加里程碑
func (a *API) AddGoalMilestone(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的目标ID")
		return
	}

	var payload milestonePayload
	if !bindValidated(c, &payload) {
		return
	}

	milestone, err := a.goals.AddMilestone(currentUserID(c), id, service.MilestoneInput{
		Title:     payload.Title,
		Completed: payload.Completed,
	})
	if err != nil {
		a.respondServiceError(c, "add_milestone", err)
		return
	}

	respondOK(c, gin.H{"milestone": milestone})
}

// UpdateGoalMilestone 更新里程碑
func (a *API) UpdateGoalMilestone(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的里程碑ID")
		return
	}

	var payload milestoneUpdatePayload
	if !bindValidated(c, &payload) {
		return
	}

	milestone, err := a.goals.UpdateMilestone(currentUserID(c), id, service.MilestoneInput{
		Title:     payload.Title,
		Completed: payload.Completed,
	})
	if err != nil {
		a.respondServiceError(c, "update_milestone", err)
		return
	}

	respondOK(c, gin.H{"milestone": milestone})
}

// DeleteGoalMilestone 删除里程碑
func (a *API) DeleteGoalMilestone(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的里程碑ID")
		return
	}

	if err := a.goals.DeleteMilestone(currentUserID(c), id); err != nil {
		a.respondServiceError(c, "delete_milestone", err)
		return
	}

	respondOK(c, gin.H{})
}

func toGoalInput(payload goalPayload) service.GoalInput {
	return service.GoalInput{
		Title:       payload.Title,
		Description: payload.Description,
		Status:      payload.Status,
		Progress:    payload.Progress,
		TargetDate:  payload.TargetDate,
	}
}
