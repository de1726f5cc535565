package handler

import (
	"net/http"

	"github.com/focuslog/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionUserKey = "user_id"
const contextUserKey = "__current_user_id"

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db            *gorm.DB
	logger        *zap.Logger
	auth          *service.AuthService
	tasks         *service.TaskService
	priority      *service.PriorityService
	habits        *service.HabitService
	routine       *service.RoutineService
	goals         *service.GoalService
	teams         *service.TeamService
	partners      *service.PartnerService
	calendar      *service.CalendarService
	notifications *service.NotificationService
	analytics     *service.AnalyticsService
	achievements  *service.AchievementService
	uploadDir     string
	uploadURL     string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, logger *zap.Logger, uploadDir, uploadURL string) *API {
	return &API{
		db:            gdb,
		logger:        logger,
		auth:          service.NewAuthService(gdb),
		tasks:         service.NewTaskService(gdb),
		priority:      service.NewPriorityService(gdb),
		habits:        service.NewHabitService(gdb),
		routine:       service.NewRoutineService(gdb),
		goals:         service.NewGoalService(gdb),
		teams:         service.NewTeamService(gdb),
		partners:      service.NewPartnerService(gdb),
		calendar:      service.NewCalendarService(gdb),
		notifications: service.NewNotificationService(gdb),
		analytics:     service.NewAnalyticsService(gdb),
		achievements:  service.NewAchievementService(gdb),
		uploadDir:     uploadDir,
		uploadURL:     uploadURL,
	}
}

// AuthRequired 从会话解析调用者并放入请求上下文。
// 无会话时以统一信封返回 401，后续 handler 不再各自检查。
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		raw := session.Get(sessionUserKey)
		if raw == nil {
			respondFail(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}

		userID, ok := raw.(uint)
		if !ok || userID == 0 {
			respondFail(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}

		c.Set(contextUserKey, userID)
		c.Next()
	}
}

// UserIDFromContext 暴露当前调用者 ID，供缓存中间件等外部组件使用。
func UserIDFromContext(c *gin.Context) (uint, bool) {
	raw, exists := c.Get(contextUserKey)
	if !exists {
		return 0, false
	}
	userID, ok := raw.(uint)
	return userID, ok
}

func currentUserID(c *gin.Context) uint {
	userID, _ := UserIDFromContext(c)
	return userID
}
