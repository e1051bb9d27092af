package app

import (
	"classhub_backend/docs"
	"classhub_backend/internal/config"
	"classhub_backend/internal/middleware"
	"classhub_backend/internal/model"
	"classhub_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
	}

	// 需要授权的路由
	auth := router.Group("/api")
	auth.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		auth.GET("/auth/profile", c.auth.Profile)
		auth.POST("/users/avatar", c.user.UploadAvatar)

		// 加入入口：令牌在请求体里，不做路径权限检查
		auth.POST("/subjects/join", c.subject.Join)
		auth.POST("/courses/join", c.course.Join)

		auth.GET("/courses", c.course.List)

		// 科目及其下属资源：创建科目只要求教师角色，
		// 其余操作要求是该科目的教师
		auth.POST("/subjects", middleware.RoleMiddleware(model.Teacher), c.subject.Create)
		auth.GET("/subjects", c.subject.List)

		subject := auth.Group("/subjects/:subjectId")
		subject.Use(middleware.SubjectTeacherMiddleware(s.membership))
		{
			subject.GET("", c.subject.Get)
			subject.PUT("", c.subject.Update)
			subject.DELETE("", c.subject.Delete)
			subject.POST("/invitation", c.subject.RotateToken)

			subject.POST("/courses", c.course.Create)

			subject.POST("/quizzes", c.quiz.Create)
			subject.GET("/quizzes", c.quiz.List)
			subject.GET("/quizzes/:quizId", c.quiz.Get)
			subject.PUT("/quizzes/:quizId", c.quiz.Update)
			subject.DELETE("/quizzes/:quizId", c.quiz.Delete)

			subject.POST("/quizzes/:quizId/questions", c.quiz.AddQuestion)
			subject.GET("/quizzes/:quizId/questions", c.quiz.ListQuestions)
			subject.PUT("/quizzes/:quizId/questions/:questionId", c.quiz.UpdateQuestion)
			subject.DELETE("/quizzes/:quizId/questions/:questionId", c.quiz.DeleteQuestion)
		}

		// 课程内资源按课程权限分级
		courseStudent := auth.Group("/courses/:courseId")
		courseStudent.Use(middleware.CoursePermissionMiddleware(s.membership, model.PermissionStudent))
		{
			courseStudent.GET("", c.course.Get)
			courseStudent.GET("/tasks", c.task.List)
			courseStudent.GET("/tasks/:taskId", c.task.Get)

			courseStudent.POST("/tasks/:taskId/start", c.task.Start)
			courseStudent.POST("/tasks/:taskId/finish", c.task.Finish)
			courseStudent.GET("/tasks/:taskId/sessions", c.taskSession.List)
			courseStudent.GET("/tasks/:taskId/sessions/:sessionId", c.taskSession.Get)
		}

		courseTeacher := auth.Group("/courses/:courseId")
		courseTeacher.Use(middleware.CoursePermissionMiddleware(s.membership, model.PermissionTeacher))
		{
			courseTeacher.POST("/tasks", c.task.Create)
			courseTeacher.PUT("/tasks/:taskId", c.task.Update)
			courseTeacher.DELETE("/tasks/:taskId", c.task.Delete)
			courseTeacher.DELETE("/tasks/:taskId/sessions/:sessionId", c.taskSession.Delete)
		}

		courseOwner := auth.Group("/courses/:courseId")
		courseOwner.Use(middleware.CoursePermissionMiddleware(s.membership, model.PermissionOwner))
		{
			courseOwner.PUT("", c.course.Update)
			courseOwner.DELETE("", c.course.Delete)
			courseOwner.POST("/invitation", c.course.RotateToken)
			courseOwner.PUT("/permissions", c.course.ChangePermission)
		}
	}
}
