package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/placement-go-api/internal/config"
	"github.com/noah-isme/placement-go-api/internal/database"
	"github.com/noah-isme/placement-go-api/internal/handler"
	"github.com/noah-isme/placement-go-api/internal/middleware"
	"github.com/noah-isme/placement-go-api/internal/models"
	"github.com/noah-isme/placement-go-api/internal/repository"
	"github.com/noah-isme/placement-go-api/internal/router"
	"github.com/noah-isme/placement-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Company{},
		&models.Student{},
		&models.Drive{},
		&models.DriveRegistration{},
		&models.DriveResult{},
		&models.Offer{},
		&models.ActivityLog{},
		&models.PlacementEvent{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, dashboard cache and event fan-out degraded")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, cross-node event fan-out disabled")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	driveRepo := repository.NewDriveRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	resultRepo := repository.NewResultRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	eventRepo := repository.NewEventRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	eventService := service.NewEventService(eventRepo, redisClient, cfg.EventChannelBase, natsConn, validate, logger)
	driveService := service.NewDriveService(driveRepo, companyRepo, studentRepo, registrationRepo, activityService, validate, logger)
	registrationService := service.NewRegistrationService(driveRepo, studentRepo, registrationRepo, activityService, eventService, logger)
	resultService := service.NewResultService(driveRepo, studentRepo, registrationRepo, resultRepo, activityService, eventService, validate, logger)
	studentService := service.NewStudentService(studentRepo, registrationRepo, resultRepo, validate, logger)
	companyService := service.NewCompanyService(companyRepo, activityService, validate, logger)
	dashboardService := service.NewDashboardService(driveRepo, studentRepo, resultRepo, redisClient, cfg.DashboardCacheTTL, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	eventService.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		DriveHandler:        handler.NewDriveHandler(driveService, logger),
		RegistrationHandler: handler.NewRegistrationHandler(registrationService, logger),
		ResultHandler:       handler.NewResultHandler(resultService, logger),
		StudentHandler:      handler.NewStudentHandler(studentService, registrationService, logger),
		CompanyHandler:      handler.NewCompanyHandler(companyService, logger),
		DashboardHandler:    handler.NewDashboardHandler(dashboardService, logger),
		ActivityHandler:     handler.NewActivityHandler(activityService, logger),
		EventHandler:        handler.NewEventHandler(eventService, logger, 30*time.Second),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		RegisterRateLimit:   middleware.RateLimit("drive-register", cfg.RegisterRateMax, cfg.RegisterRateWin),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
