package app

import (
	"classhub_backend/internal/config"
	"classhub_backend/internal/controller"
	"classhub_backend/internal/repository"
	"classhub_backend/internal/service"
	"classhub_backend/pkg/database"
	"classhub_backend/pkg/logger"
	"classhub_backend/pkg/monitoring"
	"classhub_backend/pkg/security"
	"classhub_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	configCallbacks []func(*config.Config)
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置文件变更时由 watcher 调用
func (a *App) ApplyConfig(cfg *config.Config) {
	logger.Log.Info("Config reloaded")
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

type repositories struct {
	user        *repository.UserRepository
	subject     *repository.SubjectRepository
	course      *repository.CourseRepository
	quiz        *repository.QuizRepository
	question    *repository.QuestionRepository
	task        *repository.TaskRepository
	taskSession *repository.TaskSessionRepository
}

type services struct {
	auth        *service.AuthService
	membership  *service.MembershipService
	subject     *service.SubjectService
	course      *service.CourseService
	quiz        *service.QuizService
	task        *service.TaskService
	taskSession *service.TaskSessionService
	grading     *service.GradingService
	storage     *service.StorageService
}

type controllers struct {
	auth        *controller.AuthController
	subject     *controller.SubjectController
	course      *controller.CourseController
	quiz        *controller.QuizController
	task        *controller.TaskController
	taskSession *controller.TaskSessionController
	user        *controller.UserController
	health      *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		subject:     repository.NewSubjectRepository(db),
		course:      repository.NewCourseRepository(db),
		quiz:        repository.NewQuizRepository(db),
		question:    repository.NewQuestionRepository(db),
		task:        repository.NewTaskRepository(db),
		taskSession: repository.NewTaskSessionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) (*services, error) {
	s := &services{}

	provider, err := service.NewStorageProvider(&cfg.Storage)
	if err != nil {
		return nil, err
	}
	s.storage = service.NewStorageService(provider, repos.user)

	s.auth = service.NewAuthService(repos.user, cfg.JWT)
	s.membership = service.NewMembershipService(repos.subject, repos.course, repos.user)
	s.subject = service.NewSubjectService(repos.subject, repos.user)
	s.course = service.NewCourseService(repos.course, repos.subject)
	s.quiz = service.NewQuizService(repos.quiz, repos.question)
	s.task = service.NewTaskService(repos.task, repos.course, repos.quiz)

	s.grading = service.NewGradingService(cfg.Grading, rdb, logger.Log)
	s.taskSession = service.NewTaskSessionService(repos.task, repos.taskSession, s.grading)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		subject:     controller.NewSubjectController(s.subject, s.membership),
		course:      controller.NewCourseController(s.course, s.membership),
		quiz:        controller.NewQuizController(s.quiz),
		task:        controller.NewTaskController(s.task, s.taskSession),
		taskSession: controller.NewTaskSessionController(s.taskSession),
		user:        controller.NewUserController(s.storage),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	migrate := cfg.Server.Mode != "release" || cfg.ForceMigrate
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	if cfg.MigrateOnly {
		return app
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	controllers := app.initControllers(services, db, rdb)

	app.RegisterConfigCallback(func(updated *config.Config) {
		services.grading.UpdateConfig(updated.Grading)
	})

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("classhub", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, services, repos, cfg)

	if cfg.Storage.Type == "local" || cfg.Storage.Type == "" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
