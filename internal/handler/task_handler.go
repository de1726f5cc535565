package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/focuslog/internal/service"
	"github.com/gin-gonic/gin"
)

type taskPayload struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=4000"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time `json:"due_date"`
	ParentID    *uint      `json:"parent_id"`
	ProjectID   *uint      `json:"project_id"`
}

type dependencyPayload struct {
	DependencyID uint `json:"dependency_id" validate:"required"`
}

type batchPriorityPayload struct {
	Items []service.BatchPriorityItem `json:"items" validate:"required,min=1,dive"`
}

// ListTasks 返回任务列表 JSON，支持 completed/priority/project/due_before 过滤
func (a *API) ListTasks(c *gin.Context) {
	filter := service.TaskFilter{
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
	}

	if raw := c.Query("completed"); raw != "" {
		completed := raw == "true" || raw == "1"
		filter.Completed = &completed
	}
	if raw := c.Query("project"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			filter.ProjectID = uint(id)
		}
	}
	if raw := c.Query("due_before"); raw != "" {
		if due, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.DueBefore = &due
		}
	}

	tasks, err := a.tasks.List(currentUserID(c), filter)
	if err != nil {
		a.respondServiceError(c, "list_tasks", err)
		return
	}

	respondOK(c, gin.H{"tasks": tasks})
}

// GetTask 返回单个任务
func (a *API) GetTask(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的任务ID")
		return
	}

	task, err := a.tasks.Get(currentUserID(c), id)
	if err != nil {
		a.respondServiceError(c, "get_task", err)
		return
	}

	respondOK(c, gin.H{"task": task})
}

// CreateTask 新建任务
func (a *API) CreateTask(c *gin.Context) {
	var payload taskPayload
	if !bindValidated(c, &payload) {
		return
	}

	task, err := a.tasks.Create(currentUserID(c), toTaskInput(payload))
	if err != nil {
		a.respondServiceError(c, "create_task", err)
		return
	}

	respondOK(c, gin.H{"task": task})
}

// UpdateTask 更新任务
func (a *API) UpdateTask(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的任务ID")
		return
	}

	var payload taskPayload
	if !bindValidated(c, &payload) {
		return
	}

	task, err := a.tasks.Update(currentUserID(c), id, toTaskInput(payload))
	if err != nil {
		a.respondServiceError(c, "update_task", err)
		return
	}

	respondOK(c, gin.H{"task": task})
}

// DeleteTask 删除任务
func (a *API) DeleteTask(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的任务ID")
		return
	}

	if err := a.tasks.Delete(currentUserID(c), id); err != nil {
		a.respondServiceError(c, "delete_task", err)
		return
	}

	respondOK(c, gin.H{})
}

// ToggleTask 翻转任务完成状态
func (a *API) ToggleTask(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的任务ID")
		return
	}

	task, err := a.tasks.Toggle(currentUserID(c), id, time.Now())
	if err != nil {
		a.respondServiceError(c, "toggle_task", err)
		return
	}

	respondOK(c, gin.H{"task": task})
}

// ListTaskDependencies 返回任务的前置依赖
func (a *API) ListTaskDependencies(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的任务ID")
		return
	}

	dependencies, err := a.tasks.ListDependencies(currentUserID(c), id)
	if err != nil {
		a.respondServiceError(c, "list_dependencies", err)
		return
	}

	respondOK(c, gin.H{"dependencies": dependencies})
}

// AddTaskDependency 添加依赖边
func (a *API) AddTaskDependency(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的任务ID")
		return
	}

	var payload dependencyPayload
	if !bindValidated(c, &payload) {
		return
	}

	edge, err := a.tasks.AddDependency(currentUserID(c), id, payload.DependencyID)
	if err != nil {
		a.respondServiceError(c, "add_dependency", err)
		return
	}

	respondOK(c, gin.H{"dependency": edge})
}

// RemoveTaskDependency 删除依赖边
func (a *API) RemoveTaskDependency(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的任务ID")
		return
	}
	depID, err := parseUintParam(c, "depID")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的依赖ID")
		return
	}

	if err := a.tasks.RemoveDependency(currentUserID(c), id, depID); err != nil {
		a.respondServiceError(c, "remove_dependency", err)
		return
	}

	respondOK(c, gin.H{})
}

// PrioritizeTasks 对全部未完成任务评分并按分数降序返回
func (a *API) PrioritizeTasks(c *gin.Context) {
	scored, err := a.priority.PrioritizeAll(currentUserID(c), time.Now())
	if err != nil {
		a.respondServiceError(c, "prioritize_tasks", err)
		return
	}

	respondOK(c, gin.H{"tasks": scored})
}

// BatchUpdatePriority 逐项更新声明优先级，坏项不影响好项
func (a *API) BatchUpdatePriority(c *gin.Context) {
	var payload batchPriorityPayload
	if !bindValidated(c, &payload) {
		return
	}

	result, err := a.priority.BatchUpdatePriority(currentUserID(c), payload.Items)
	if err != nil {
		a.respondServiceError(c, "batch_update_priority", err)
		return
	}

	respondOK(c, gin.H{
		"successfulUpdates": result.SuccessfulUpdates,
		"results":           result.Results,
	})
}

// EisenhowerMatrix 按四象限返回未完成任务
func (a *API) EisenhowerMatrix(c *gin.Context) {
	matrix, err := a.priority.Eisenhower(currentUserID(c), time.Now())
	if err != nil {
		a.respondServiceError(c, "eisenhower", err)
		return
	}

	respondOK(c, gin.H{"matrix": matrix})
}

func toTaskInput(payload taskPayload) service.TaskInput {
	return service.TaskInput{
		Title:       payload.Title,
		Description: payload.Description,
		Priority:    payload.Priority,
		DueDate:     payload.DueDate,
		ParentID:    payload.ParentID,
		ProjectID:   payload.ProjectID,
	}
}
