package app

import (
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

	"lms_testing_backend/internal/config"
	"lms_testing_backend/internal/controller"
	"lms_testing_backend/internal/repository"
	"lms_testing_backend/internal/service"
	"lms_testing_backend/pkg/database"
	"lms_testing_backend/pkg/logger"
	"lms_testing_backend/pkg/monitoring"
	"lms_testing_backend/pkg/security"
	"lms_testing_backend/pkg/tracing"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	services   *services
	stopCloser context.CancelFunc
}

type repositories struct {
	user       *repository.UserRepository
	task       *repository.TaskRepository
	question   *repository.QuestionRepository
	passing    *repository.PassingRepository
	userAnswer *repository.UserAnswerRepository
}

type services struct {
	auth    *service.AuthService
	storage *service.StorageService
	task    *service.TaskService
	passing *service.PassingService
	answer  *service.AnswerService
	closer  *service.AttemptCloser
}

type controllers struct {
	auth    *controller.AuthController
	task    *controller.TaskController
	passing *controller.PassingController
	answer  *controller.AnswerController
	health  *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		task:       repository.NewTaskRepository(db),
		question:   repository.NewQuestionRepository(db),
		passing:    repository.NewPassingRepository(db),
		userAnswer: repository.NewUserAnswerRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.task = service.NewTaskService(repos.task, repos.question, s.storage)

	pollInterval := time.Duration(cfg.Engine.ClosePollSeconds) * time.Second
	s.closer = service.NewAttemptCloser(rdb, pollInterval, logger.Log)
	s.passing = service.NewPassingService(repos.passing, repos.task, repos.userAnswer, s.closer)
	s.closer.BindEngine(s.passing)

	s.answer = service.NewAnswerService(repos.userAnswer, repos.passing, repos.task, repos.question, s.passing, s.storage)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.auth),
		task:    controller.NewTaskController(s.task),
		passing: controller.NewPassingController(s.passing),
		answer:  controller.NewAnswerController(s.answer),
		health:  controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
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

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("testing-engine", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	closerCtx, cancel := context.WithCancel(context.Background())
	app.stopCloser = cancel
	go services.closer.Run(closerCtx)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.stopCloser != nil {
		a.stopCloser()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
