package handler

import (
	"net/http"

	"github.com/focuslog/internal/service"
	"github.com/gin-gonic/gin"
)

type teamPayload struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

type memberPayload struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=member admin"`
}

type removeMemberPayload struct {
	UserID uint `json:"user_id" validate:"required"`
}

type projectPayload struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

type projectTaskPayload struct {
	Title      string `json:"title" validate:"required,max=200"`
	Status     string `json:"status" validate:"omitempty,oneof=todo in_progress review completed"`
	AssigneeID *uint  `json:"assignee_id"`
}

type projectTaskUpdatePayload struct {
	Title      string `json:"title" validate:"max=200"`
	Status     string `json:"status" validate:"omitempty,oneof=todo in_progress review completed"`
	AssigneeID *uint  `json:"assignee_id"`
}

// ListTeams 返回调用者参与的团队
func (a *API) ListTeams(c *gin.Context) {
	teams, err := a.teams.List(currentUserID(c))
	if err != nil {
		a.respondServiceError(c, "list_teams", err)
		return
	}

	respondOK(c, gin.H{"teams": teams})
}

// GetTeam 返回团队详情与成员
func (a *API) GetTeam(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的团队ID")
		return
	}

	team, members, err := a.teams.Get(currentUserID(c), id)
	if err != nil {
		a.respondServiceError(c, "get_team", err)
		return
	}

	respondOK(c, gin.H{"team": team, "members": members})
}

// CreateTeam 新建团队
func (a *API) CreateTeam(c *gin.Context) {
	var payload teamPayload
	if !bindValidated(c, &payload) {
		return
	}

	team, err := a.teams.Create(currentUserID(c), service.TeamInput{
		Name:        payload.Name,
		Description: payload.Description,
	})
	if err != nil {
		a.respondServiceError(c, "create_team", err)
		return
	}

	respondOK(c, gin.H{"team": team})
}

// DeleteTeam 解散团队
func (a *API) DeleteTeam(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的团队ID")
		return
	}

	if err := a.teams.Delete(currentUserID(c), id); err != nil {
		a.respondServiceError(c, "delete_team", err)
		return
	}

	respondOK(c, gin.H{})
}

// AddTeamMember 按邮箱邀请成员
func (a *API) AddTeamMember(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的团队ID")
		return
	}

	var payload memberPayload
	if !bindValidated(c, &payload) {
		return
	}

	membership, err := a.teams.AddMember(currentUserID(c), id, payload.Email, payload.Role)
	if err != nil {
		a.respondServiceError(c, "add_team_member", err)
		return
	}

	respondOK(c, gin.H{"membership": membership})
}

// RemoveTeamMember 移除成员
func (a *API) RemoveTeamMember(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的团队ID")
		return
	}

	var payload removeMemberPayload
	if !bindValidated(c, &payload) {
		return
	}

	if err := a.teams.RemoveMember(currentUserID(c), id, payload.UserID); err != nil {
		a.respondServiceError(c, "remove_team_member", err)
		return
	}

	respondOK(c, gin.H{})
}

// ListTeamProjects 返回团队项目
func (a *API) ListTeamProjects(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的团队ID")
		return
	}

	projects, err := a.teams.ListProjects(currentUserID(c), id)
	if err != nil {
		a.respondServiceError(c, "list_projects", err)
		return
	}

	respondOK(c, gin.H{"projects": projects})
}

// CreateTeamProject 新建项目
func (a *API) CreateTeamProject(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的团队ID")
		return
	}

	var payload projectPayload
	if !bindValidated(c, &payload) {
		return
	}

	project, err := a.teams.CreateProject(currentUserID(c), id, service.ProjectInput{
		Name:        payload.Name,
		Description: payload.Description,
	})
	if err != nil {
		a.respondServiceError(c, "create_project", err)
		return
	}

	respondOK(c, gin.H{"project": project})
}

// ListProjectTasks 返回项目任务
func (a *API) ListProjectTasks(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	tasks, err := a.teams.ListProjectTasks(currentUserID(c), id)
	if err != nil {
		a.respondServiceError(c, "list_project_tasks", err)
		return
	}

	respondOK(c, gin.H{"tasks": tasks})
}

// CreateProjectTask 新建项目任务
func (a *API) CreateProjectTask(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	var payload projectTaskPayload
	if !bindValidated(c, &payload) {
		return
	}

	task, err := a.teams.CreateProjectTask(currentUserID(c), id, service.ProjectTaskInput{
		Title:      payload.Title,
		Status:     payload.Status,
		AssigneeID: payload.AssigneeID,
	})
	if err != nil {
		a.respondServiceError(c, "create_project_task", err)
		return
	}

	respondOK(c, gin.H{"task": task})
}

// UpdateProjectTask 更新项目任务
func (a *API) UpdateProjectTask(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的任务ID")
		return
	}

	var payload projectTaskUpdatePayload
	if !bindValidated(c, &payload) {
		return
	}

	task, err := a.teams.UpdateProjectTask(currentUserID(c), id, service.ProjectTaskInput{
		Title:      payload.Title,
		Status:     payload.Status,
		AssigneeID: payload.AssigneeID,
	})
	if err != nil {
		a.respondServiceError(c, "update_project_task", err)
		return
	}

	respondOK(c, gin.H{"task": task})
}
