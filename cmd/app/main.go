package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"orderflow/cmd"
	httpadapter "orderflow/internal/adapters/in/http"
	"orderflow/internal/adapters/out/postgres/guardrepo"
	"orderflow/internal/adapters/out/postgres/orderrepo"
	"orderflow/internal/adapters/out/postgres/workflowrepo"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configs := getConfigs()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	gormDB := openDatabase(configs)
	migrateDatabase(gormDB)

	app, err := cmd.NewCompositionRoot(configs, gormDB, logger)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	jobManager := app.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start background jobs: %v", err)
	}

	e := echo.New()
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})

	server := httpadapter.NewServer(
		app.CreateCreateOrderCommandHandler(),
		app.CreateAddOrderItemCommandHandler(),
		app.CreateTransitionOrderCommandHandler(),
		app.CreateGetNextStatesQueryHandler(),
		app.CreateGetOrderJourneyQueryHandler(),
		app.CreateGetWorkflowProgressQueryHandler(),
		app.Engine(),
	)
	server.RegisterRoutes(e)

	go func() {
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	jobManager.StopAll()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := app.Engine().Stop(ctx); err != nil {
		logger.Error("Workflow engine shutdown timed out", "error", err)
	}
}

func getConfigs() cmd.Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Fatalf("Error loading .env file")
	}

	return cmd.Config{
		HTTPPort:   envString("HTTP_PORT", "8080"),
		DBHost:     mustEnv("DB_HOST"),
		DBPort:     mustEnv("DB_PORT"),
		DBUser:     mustEnv("DB_USER"),
		DBPassword: mustEnv("DB_PASSWORD"),
		DBName:     mustEnv("DB_NAME"),
		DBSslMode:  envString("DB_SSLMODE", "disable"),

		StockServiceURL:   mustEnv("STOCK_SERVICE_URL"),
		PaymentServiceURL: mustEnv("PAYMENT_SERVICE_URL"),
		LoyaltyServiceURL: mustEnv("LOYALTY_SERVICE_URL"),

		GuardWaitMode: envString("GUARD_WAIT_MODE", "failfast"),

		WorkflowStepTimeout:    envDuration("WORKFLOW_STEP_TIMEOUT", 30*time.Second),
		WorkflowMaxAttempts:    envInt("WORKFLOW_MAX_ATTEMPTS", 5),
		WorkflowInitialBackoff: envDuration("WORKFLOW_INITIAL_BACKOFF", time.Second),
		WorkflowMaxBackoff:     envDuration("WORKFLOW_MAX_BACKOFF", time.Minute),

		FulfillmentWindow: envDuration("FULFILLMENT_WINDOW", 24*time.Hour),
		LoyaltyRatioCents: int64(envInt("LOYALTY_RATIO_CENTS", 100)),

		ResumeSchedule:   envString("RESUME_SCHEDULE", "*/5 * * * * *"),
		ResumeBatchSize:  envInt("RESUME_BATCH_SIZE", 50),
		ResumeStaleAfter: envDuration("RESUME_STALE_AFTER", 0),
	}
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Environment variable %s is required", key)
	}
	return value
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("Environment variable %s is not an integer: %v", key, err)
	}
	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("Environment variable %s is not a duration: %v", key, err)
	}
	return value
}

func openDatabase(configs cmd.Config) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser, configs.DBPassword, configs.DBName, configs.DBSslMode)

	db, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

func migrateDatabase(db *gorm.DB) {
	err := db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&orderrepo.ItemDTO{},
		&orderrepo.PaymentDTO{},
		&orderrepo.StockDTO{},
		&orderrepo.LoyaltyDTO{},
		&orderrepo.JourneyDTO{},
		&orderrepo.ActionLogDTO{},
		&guardrepo.ClaimDTO{},
		&workflowrepo.CheckpointDTO{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database schema: %v", err)
	}
}
