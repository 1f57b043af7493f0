package app

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"lms_testing_backend/docs"
	"lms_testing_backend/internal/config"
	"lms_testing_backend/internal/middleware"
	"lms_testing_backend/internal/model"
	"lms_testing_backend/pkg/monitoring"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/server-time", c.passing.ServerTime)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/auth/me", c.auth.Me)

		authGroup.GET("/tasks", c.task.List)
		authGroup.GET("/tasks/:id", c.task.Get)

		authGroup.POST("/passings", c.passing.Create)
		authGroup.GET("/passings", c.passing.List)
		authGroup.GET("/passings/:id", c.passing.Get)
		authGroup.POST("/passings/:id/finish", c.passing.Finish)
		authGroup.GET("/passings/:id/answers", c.answer.ListForPassing)

		authGroup.POST("/answers", c.answer.Submit)

		teacher := authGroup.Group("/teacher")
		teacher.Use(middleware.RoleMiddleware(model.Teacher))
		{
			teacher.POST("/tasks", c.task.Create)
			teacher.PUT("/tasks/:id", c.task.Update)
			teacher.DELETE("/tasks/:id", c.task.Delete)
			teacher.POST("/tasks/:id/questions/:questionId", c.task.AttachQuestion)
			teacher.DELETE("/tasks/:id/questions/:questionId", c.task.DetachQuestion)

			teacher.POST("/questions", c.task.CreateQuestion)
			teacher.PUT("/questions/:id", c.task.UpdateQuestion)
			teacher.DELETE("/questions/:id", c.task.DeleteQuestion)
			teacher.POST("/questions/:id/options", c.task.CreateOption)
			teacher.POST("/questions/:id/media", c.task.UploadQuestionMedia)
			teacher.PUT("/options/:id", c.task.UpdateOption)
			teacher.DELETE("/options/:id", c.task.DeleteOption)
		}

		moderation := authGroup.Group("/moderation")
		moderation.Use(middleware.RoleMiddleware(model.Teacher))
		{
			moderation.GET("/answers", c.answer.ListUngraded)
			moderation.POST("/answers/:id/grade", c.answer.Grade)
			moderation.POST("/passings/:id/out-of-time", c.passing.SetOutOfTime)
		}
	}
}
