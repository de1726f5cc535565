package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/focuslog/internal/apperr"
	"github.com/focuslog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TeamService 负责团队、成员、项目与项目任务。
// 个人实体用属主过滤鉴权，团队实体改为显式查成员角色：
// 非成员一律 404，成员角色不足时 403。
type TeamService struct {
	db *gorm.DB
}

// TeamInput 定义创建团队时可配置字段
type TeamInput struct {
	Name        string
	Description string
}

// ProjectInput 定义创建项目时可配置字段
type ProjectInput struct {
	Name        string
	Description string
}

// ProjectTaskInput 定义项目任务字段
type ProjectTaskInput struct {
	Title      string
	Status     string
	AssigneeID *uint
}

// TeamView 是团队列表条目，附带调用者角色
type TeamView struct {
	Team db.Team `json:"team"`
	Role string  `json:"role"`
}

// NewTeamService 构造 TeamService
func NewTeamService(gdb *gorm.DB) *TeamService {
	return &TeamService{db: gdb}
}

// List 返回调用者参与的团队
func (s *TeamService) List(userID uint) ([]TeamView, error) {
	var memberships []db.TeamMembership
	if err := s.db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}

	views := make([]TeamView, 0, len(memberships))
	for _, m := range memberships {
		var team db.Team
		if err := s.db.First(&team, m.TeamID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, fmt.Errorf("load team: %w", err)
		}
		views = append(views, TeamView{Team: team, Role: m.Role})
	}
	return views, nil
}

// Get 返回单个团队及成员列表，仅成员可见
func (s *TeamService) Get(userID, teamID uint) (*db.Team, []db.TeamMembership, error) {
	if _, err := s.memberRole(userID, teamID); err != nil {
		return nil, nil, err
	}

	var team db.Team
	if err := s.db.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("team not found")
		}
		return nil, nil, fmt.Errorf("get team: %w", err)
	}

	var members []db.TeamMembership
	if err := s.db.Where("team_id = ?", teamID).Find(&members).Error; err != nil {
		return nil, nil, fmt.Errorf("list members: %w", err)
	}

	return &team, members, nil
}

// Create 新建团队，创建者自动成为 owner
func (s *TeamService) Create(userID uint, input TeamInput) (*db.Team, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperr.Validation("invalid team payload", "name is required")
	}

	team := db.Team{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		OwnerID:     userID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return fmt.Errorf("create team: %w", err)
		}
		membership := db.TeamMembership{TeamID: team.ID, UserID: userID, Role: db.TeamRoleOwner}
		if err := tx.Create(&membership).Error; err != nil {
			return fmt.Errorf("create owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &team, nil
}

// Delete 解散团队，仅 owner 可操作，成员/项目/任务一并清除
func (s *TeamService) Delete(userID, teamID uint) error {
	role, err := s.memberRole(userID, teamID)
	if err != nil {
		return err
	}
	if role != db.TeamRoleOwner {
		return apperr.Authorization("only the team owner can delete the team")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var projectIDs []uint
		if err := tx.Model(&db.Project{}).Where("team_id = ?", teamID).
			Pluck("id", &projectIDs).Error; err != nil {
			return fmt.Errorf("list projects: %w", err)
		}

		if len(projectIDs) > 0 {
			if err := tx.Where("project_id IN ?", projectIDs).Delete(&db.ProjectTask{}).Error; err != nil {
				return fmt.Errorf("delete project tasks: %w", err)
			}
			if err := tx.Where("id IN ?", projectIDs).Delete(&db.Project{}).Error; err != nil {
				return fmt.Errorf("delete projects: %w", err)
			}
		}

		if err := tx.Where("team_id = ?", teamID).Delete(&db.TeamMembership{}).Error; err != nil {
			return fmt.Errorf("delete memberships: %w", err)
		}
		if err := tx.Delete(&db.Team{}, teamID).Error; err != nil {
			return fmt.Errorf("delete team: %w", err)
		}
		return nil
	})
}

// AddMember 按邮箱邀请成员，仅 owner/admin 可操作，角色不允许授予 owner
func (s *TeamService) AddMember(userID, teamID uint, email, role string) (*db.TeamMembership, error) {
	if err := s.requireManager(userID, teamID); err != nil {
		return nil, err
	}

	normalizedRole := strings.ToLower(strings.TrimSpace(role))
	if normalizedRole == "" {
		normalizedRole = db.TeamRoleMember
	}
	if normalizedRole != db.TeamRoleMember && normalizedRole != db.TeamRoleAdmin {
		return nil, apperr.Validation("invalid member payload", "role must be member or admin")
	}

	var target db.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	membership := db.TeamMembership{TeamID: teamID, UserID: target.ID, Role: normalizedRole}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "team_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&membership)
	if result.Error != nil {
		return nil, fmt.Errorf("create membership: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperr.Conflict("user is already a member")
	}

	notice := db.Notification{
		UserID:  target.ID,
		Title:   "团队邀请",
		Message: "你已被加入一个团队",
		Type:    db.NotificationTypeTeam,
	}
	if err := s.db.Create(&notice).Error; err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	return &membership, nil
}

// RemoveMember 移除成员，仅 owner/admin 可操作，owner 不可被移除
func (s *TeamService) RemoveMember(userID, teamID, memberUserID uint) error {
	if err := s.requireManager(userID, teamID); err != nil {
		return err
	}

	targetRole, err := s.memberRole(memberUserID, teamID)
	if err != nil {
		return err
	}
	if targetRole == db.TeamRoleOwner {
		return apperr.Authorization("the team owner cannot be removed")
	}

	if err := s.db.Where("team_id = ? AND user_id = ?", teamID, memberUserID).
		Delete(&db.TeamMembership{}).Error; err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

// ListProjects 返回团队项目，仅成员可见
func (s *TeamService) ListProjects(userID, teamID uint) ([]db.Project, error) {
	if _, err := s.memberRole(userID, teamID); err != nil {
		return nil, err
	}

	var projects []db.Project
	if err := s.db.Where("team_id = ?", teamID).Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// CreateProject 新建项目，仅 owner/admin 可操作
func (s *TeamService) CreateProject(userID, teamID uint, input ProjectInput) (*db.Project, error) {
	if err := s.requireManager(userID, teamID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperr.Validation("invalid project payload", "name is required")
	}

	project := db.Project{
		TeamID:      teamID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		CreatedBy:   userID,
	}
	if err := s.db.Create(&project).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &project, nil
}

// ListProjectTasks 返回项目任务，仅团队成员可见
func (s *TeamService) ListProjectTasks(userID, projectID uint) ([]db.ProjectTask, error) {
	if _, err := s.projectTeamRole(userID, projectID); err != nil {
		return nil, err
	}

	var tasks []db.ProjectTask
	if err := s.db.Where("project_id = ?", projectID).Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list project tasks: %w", err)
	}
	return tasks, nil
}

// CreateProjectTask 新建项目任务，任何成员可建
func (s *TeamService) CreateProjectTask(userID, projectID uint, input ProjectTaskInput) (*db.ProjectTask, error) {
	if _, err := s.projectTeamRole(userID, projectID); err != nil {
		return nil, err
	}
	if err := validateProjectTaskInput(input); err != nil {
		return nil, err
	}

	task := db.ProjectTask{
		ProjectID:  projectID,
		Title:      strings.TrimSpace(input.Title),
		Status:     normalizeProjectTaskStatus(input.Status),
		AssigneeID: input.AssigneeID,
		CreatedBy:  userID,
	}
	if err := s.db.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("create project task: %w", err)
	}
	return &task, nil
}

// UpdateProjectTask 更新项目任务。状态校验枚举成员资格，
// todo/in_progress/review/completed 之间不限制转移顺序。
func (s *TeamService) UpdateProjectTask(userID, taskID uint, input ProjectTaskInput) (*db.ProjectTask, error) {
	var task db.ProjectTask
	if err := s.db.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project task not found")
		}
		return nil, fmt.Errorf("get project task: %w", err)
	}

	if _, err := s.projectTeamRole(userID, task.ProjectID); err != nil {
		return nil, err
	}
	if err := validateProjectTaskInput(input); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Title) != "" {
		task.Title = strings.TrimSpace(input.Title)
	}
	if input.Status != "" {
		task.Status = normalizeProjectTaskStatus(input.Status)
	}
	task.AssigneeID = input.AssigneeID

	if err := s.db.Save(&task).Error; err != nil {
		return nil, fmt.Errorf("update project task: %w", err)
	}
	return &task, nil
}

// memberRole 返回用户在团队中的角色。非成员一律 404，不泄露团队是否存在。
func (s *TeamService) memberRole(userID, teamID uint) (string, error) {
	var membership db.TeamMembership
	if err := s.db.Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("team not found")
		}
		return "", fmt.Errorf("lookup membership: %w", err)
	}
	return membership.Role, nil
}

func (s *TeamService) requireManager(userID, teamID uint) error {
	role, err := s.memberRole(userID, teamID)
	if err != nil {
		return err
	}
	if role != db.TeamRoleOwner && role != db.TeamRoleAdmin {
		return apperr.Authorization("only owners and admins can manage the team")
	}
	return nil
}

func (s *TeamService) projectTeamRole(userID, projectID uint) (string, error) {
	var project db.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("project not found")
		}
		return "", fmt.Errorf("get project: %w", err)
	}

	role, err := s.memberRole(userID, project.TeamID)
	if err != nil {
		if tagged, ok := apperr.From(err); ok && tagged.Kind == apperr.KindNotFound {
			return "", apperr.NotFound("project not found")
		}
		return "", err
	}
	return role, nil
}

func validateProjectTaskInput(input ProjectTaskInput) error {
	if input.Status != "" && !validProjectTaskStatus(input.Status) {
		return apperr.Validation("invalid project task payload",
			"status must be one of todo/in_progress/review/completed")
	}
	return nil
}

func validProjectTaskStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case db.ProjectTaskStatusTodo, db.ProjectTaskStatusInProgress,
		db.ProjectTaskStatusReview, db.ProjectTaskStatusCompleted:
		return true
	}
	return false
}

func normalizeProjectTaskStatus(status string) string {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if normalized == "" {
		return db.ProjectTaskStatusTodo
	}
	return normalized
}
