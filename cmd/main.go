package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhall/config"
	"github.com/lshigami/examhall/database"
	_ "github.com/lshigami/examhall/docs" // Swagger docs - generated by swag init
	"github.com/lshigami/examhall/internal/clock"
	adminctrl "github.com/lshigami/examhall/internal/controller/admin"
	userctrl "github.com/lshigami/examhall/internal/controller/user"
	"github.com/lshigami/examhall/internal/logger"
	"github.com/lshigami/examhall/internal/middleware"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/repository"
	"github.com/lshigami/examhall/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Exam Hall API
// @version 1.0
// @description Test lifecycle, attempts and scoring for class-based exams.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			clock.New,
			middleware.NewAuth,
			NewGinEngine,
		),

		// Repositories Layer
		fx.Provide(
			repository.NewTestRepository,
			repository.NewQuestionRepository,
			repository.NewTestAttemptRepository,
			repository.NewAnswerRepository,
			repository.NewEnrollmentRepository,
			repository.NewClassRepository,
			repository.NewProfileRepository,
		),

		// Services Layer
		fx.Provide(
			service.NewSettings,
			service.NewTestService,
			service.NewAdminTestService,
			service.NewQuestionService,
			service.NewUserTestService,
			service.NewAttemptService,
			service.NewTestSubmissionService,
			service.NewLifecycleSweeper,
		),

		// API Controllers Layer
		fx.Provide(
			adminctrl.NewAdminTestController,
			userctrl.NewUserTestController,
		),

		fx.Invoke(AutoMigrateDB),
		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(service.RegisterLifecycleSweeper),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	auth *middleware.Auth,
	adminTestCtrl *adminctrl.AdminTestController,
	userTestCtrl *userctrl.UserTestController,
) {
	adminAPIGroup := router.Group("/api/v1/admin", auth.Authenticate(), middleware.RequireRole(model.RoleAdmin))
	adminTestCtrl.RegisterRoutes(adminAPIGroup)

	userAPIGroup := router.Group("/api/v1", auth.Authenticate(), middleware.RequireRole(model.RoleStudent))
	userTestCtrl.RegisterRoutes(userAPIGroup)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Exam Hall API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	if err := database.Migrate(db); err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
