package router

import (
	"time"

	"github.com/focuslog/internal/cache"
	"github.com/focuslog/internal/config"
	"github.com/focuslog/internal/handler"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const readCacheTTL = 60 * time.Second

// SetupRouter 配置 Gin 引擎和路由。responseCache 允许为 nil。
func SetupRouter(api *handler.API, logger *zap.Logger, cfg config.AppConfig, responseCache *cache.Cache) *gin.Engine {
	r := gin.New()

	r.Use(recovery(logger))
	r.Use(requestLogger(logger))

	// 会话中间件：HTTP-only cookie，存放不透明的 user_id
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   30 * 24 * 60 * 60,
	})
	r.Use(sessions.Sessions("focuslog_session", store))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AllowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 上传文件静态服务
	r.Static(cfg.UploadURLPath, cfg.UploadDir)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 认证入口，无会话要求
	auth := r.Group("/api/auth")
	{
		auth.POST("/signup", api.Signup)
		auth.POST("/login", api.Login)
		auth.POST("/logout", api.Logout)
		auth.POST("/forgot-password", api.ForgotPassword)
		auth.POST("/reset-password", api.ResetPassword)
	}

	// 其余 API 一律要求会话
	authorized := r.Group("/api")
	authorized.Use(handler.AuthRequired())
	{
		tasks := authorized.Group("/tasks")
		{
			tasks.GET("", api.ListTasks)
			tasks.POST("", api.CreateTask)
			tasks.GET("/prioritize", api.PrioritizeTasks)
			tasks.POST("/prioritize", api.BatchUpdatePriority)
			tasks.GET("/eisenhower", cache.GETCache(responseCache, handler.UserIDFromContext, readCacheTTL), api.EisenhowerMatrix)
			tasks.POST("/toggle/:id", api.ToggleTask)
			tasks.GET("/:id", api.GetTask)
			tasks.PUT("/:id", api.UpdateTask)
			tasks.DELETE("/:id", api.DeleteTask)
			tasks.GET("/:id/dependencies", api.ListTaskDependencies)
			tasks.POST("/:id/dependencies", api.AddTaskDependency)
			tasks.DELETE("/:id/dependencies/:depID", api.RemoveTaskDependency)
		}

		habits := authorized.Group("/habits")
		{
			habits.GET("", api.ListHabits)
			habits.POST("", api.CreateHabit)
			habits.POST("/toggle/:id", api.ToggleHabit)
			habits.GET("/:id/stats", api.HabitStats)
			habits.PUT("/:id", api.UpdateHabit)
			habits.DELETE("/:id", api.DeleteHabit)
		}

		routine := authorized.Group("/routine")
		{
			routine.GET("", api.ListRoutine)
			routine.POST("", api.CreateRoutineStep)
			routine.POST("/toggle/:id", api.ToggleRoutineStep)
			routine.PUT("/:id", api.UpdateRoutineStep)
			routine.DELETE("/:id", api.DeleteRoutineStep)
		}

		goals := authorized.Group("/goals")
		{
			goals.GET("", api.ListGoals)
			goals.POST("", api.CreateGoal)
			goals.PUT("/milestones/:id", api.UpdateGoalMilestone)
			goals.DELETE("/milestones/:id", api.DeleteGoalMilestone)
			goals.GET("/:id", api.GetGoal)
			goals.PUT("/:id", api.UpdateGoal)
			goals.DELETE("/:id", api.DeleteGoal)
			goals.POST("/:id/milestones", api.AddGoalMilestone)
		}

		teams := authorized.Group("/teams")
		{
			teams.GET("", api.ListTeams)
			teams.POST("", api.CreateTeam)
			teams.GET("/:id", api.GetTeam)
			teams.DELETE("/:id", api.DeleteTeam)
			teams.POST("/:id/members", api.AddTeamMember)
			teams.DELETE("/:id/members", api.RemoveTeamMember)
			teams.GET("/:id/projects", api.ListTeamProjects)
			teams.POST("/:id/projects", api.CreateTeamProject)
		}

		projects := authorized.Group("/projects")
		{
			projects.GET("/:id/tasks", api.ListProjectTasks)
			projects.POST("/:id/tasks", api.CreateProjectTask)
			projects.PUT("/tasks/:id", api.UpdateProjectTask)
		}

		accountability := authorized.Group("/accountability")
		{
			accountability.GET("", api.PartnerOverview)
			accountability.POST("", api.SendPartnerRequest)
			accountability.POST("/:id/respond", api.RespondPartnerRequest)
			accountability.PUT("/partnerships/:id", api.UpdatePartnership)
			accountability.DELETE("/:id", api.CancelPartnerRequest)
		}

		calendar := authorized.Group("/calendar")
		{
			calendar.GET("", api.ListCalendarConnections)
			calendar.POST("", api.CreateCalendarConnection)
			calendar.PATCH("/:id", api.PatchCalendarConnection)
			calendar.DELETE("/:id", api.DeleteCalendarConnection)
			calendar.GET("/:id/events", api.ListCalendarEvents)
			calendar.POST("/:id/events", api.AddCalendarEvent)
		}

		notifications := authorized.Group("/notifications")
		{
			notifications.GET("", api.ListNotifications)
			notifications.POST("/read/:id", api.MarkNotificationRead)
			notifications.POST("/read-all", api.MarkAllNotificationsRead)
		}

		authorized.GET("/analytics", cache.GETCache(responseCache, handler.UserIDFromContext, readCacheTTL), api.Analytics)
		authorized.GET("/achievements", api.ListAchievements)
		authorized.POST("/upload/screenshot", api.UploadScreenshot)
		authorized.POST("/markdown/preview", api.PreviewMarkdown)
	}

	return r
}
