package router

import (
	"github.com/gin-gonic/gin"

	"taskhub/internal/api/handler"
	"taskhub/internal/api/middleware"
	"taskhub/internal/metrics"
	"taskhub/internal/pkg/config"
	"taskhub/internal/service"
)

// Setup 设置路由
func Setup(cfg *config.Config, services *service.Services, m *metrics.Metrics) *gin.Engine {
	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggerMiddleware())
	if m != nil {
		r.Use(middleware.MetricsMiddleware(m))
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if m != nil && cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	// 初始化Handler
	authHandler := handler.NewAuthHandler(services.Auth)
	userHandler := handler.NewUserHandler(services.Users)
	teamHandler := handler.NewTeamHandler(services.Teams)
	teamMemberHandler := handler.NewTeamMemberHandler(services.Members)
	projectHandler := handler.NewProjectHandler(services.Projects)
	taskListHandler := handler.NewTaskListHandler(services.TaskLists)
	taskHandler := handler.NewTaskHandler(services.Tasks)

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 身份网关换取会话(无需token)
		v1.POST("/auth/session", authHandler.CreateSession)

		// 需要认证的路由
		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(services.Auth))
		{
			authed.POST("/auth/signout", authHandler.SignOut)
			authed.GET("/users/:id", userHandler.Get)

			// 团队
			teams := authed.Group("/teams")
			{
				teams.POST("", teamHandler.Create)
				teams.GET("", teamHandler.List)
				teams.GET("/:id", teamHandler.Get)
				teams.PATCH("/:id", teamHandler.Update)
				teams.DELETE("/:id", teamHandler.Delete)
			}

			// 团队成员
			members := authed.Group("/team-members")
			{
				members.POST("", teamMemberHandler.Invite)
				members.GET("", teamMemberHandler.List) // ?team_id= 或 ?pending=true
				members.PATCH("/:id", teamMemberHandler.Update)
				members.DELETE("/:id", teamMemberHandler.Delete)
			}

			// 项目
			projects := authed.Group("/projects")
			{
				projects.POST("", projectHandler.Create)
				projects.GET("", projectHandler.List) // ?team_id=
				projects.GET("/:id", projectHandler.Get)
				projects.PATCH("/:id", projectHandler.Update)
				projects.DELETE("/:id", projectHandler.Delete)
			}

			// 任务列表
			taskLists := authed.Group("/task-lists")
			{
				taskLists.POST("", taskListHandler.Create)
				taskLists.GET("", taskListHandler.List) // ?project_id=
				taskLists.GET("/:id", taskListHandler.Get)
				taskLists.PATCH("/:id", taskListHandler.Update)
				taskLists.DELETE("/:id", taskListHandler.Delete)
			}

			// 任务
			tasks := authed.Group("/tasks")
			{
				tasks.POST("", taskHandler.Create)
				tasks.GET("", taskHandler.List) // ?list_id=
				tasks.GET("/:id", taskHandler.Get)
				tasks.PATCH("/:id", taskHandler.Update)
				tasks.DELETE("/:id", taskHandler.Delete)
			}
		}
	}

	return r
}
