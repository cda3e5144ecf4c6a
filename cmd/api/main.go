package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"flux/internal/calendar"
	"flux/internal/config"
	"flux/internal/database"
	"flux/internal/events"
	"flux/internal/llm"
	"flux/internal/logger"
	"flux/internal/services"
	"flux/internal/validator"
)

// @title           Flux API
// @version         1.0
// @description     Flux is a personal finance API: an expense and income ledger, balance snapshots, a finance assistant and a Google Calendar pass-through.

// @host      localhost:8080
// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig := database.FromAppConfig(appConfig)
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() { _ = dbManager.Close() }()

	if appConfig.RunMigrations {
		if err := dbManager.RunMigrations(database.DefaultMigrationsPath); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	balanceService := services.NewBalanceService(db)
	var trigger services.BalanceTrigger = services.NewInlineBalanceTrigger(balanceService)
	if appConfig.BalanceRecalcMode == config.RecalcModeAMQP {
		client, err := events.NewClient(appConfig.AMQPURL, appConfig.AMQPExchange, appConfig.AMQPQueue)
		if err != nil {
			log.Warnw("AMQP unavailable, recalculating balances inline", "error", err)
		} else {
			defer func() { _ = client.Close() }()
			trigger = events.NewPublisher(client, trigger)
			log.Infow("Balance recalculation delegated to worker", "queue", appConfig.AMQPQueue)
		}
	}

	userService := services.NewUserService(db)
	expenseService := services.NewExpenseService(db, trigger)
	incomeService := services.NewIncomeService(db, trigger)
	var model llm.Client
	gemini, err := llm.NewGeminiClient(context.Background(), llm.GeminiConfig{
		APIKey:  appConfig.GeminiAPIKey,
		Model:   appConfig.GeminiModel,
		BaseURL: appConfig.GeminiBaseURL,
	})
	if err != nil {
		log.Warnw("Assistant model unavailable; assistant requests will fail upstream", "error", err)
		model = llm.Unavailable{Err: err}
	} else {
		model = gemini
	}
	assistantService := services.NewAssistantService(services.AssistantDeps{
		DB:       db,
		Client:   model,
		Users:    userService,
		Expenses: expenseService,
		Incomes:  incomeService,
		Balances: balanceService,
		Timeout:  appConfig.AssistantTimeout,
	})
	calendarService := calendar.NewService()

	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(routerDeps{
		Users:      userService,
		Expenses:   expenseService,
		Incomes:    incomeService,
		Balances:   balanceService,
		Assistant:  assistantService,
		Calendar:   calendarService,
		Ping:       dbManager.Ping,
		CORSOrigin: appConfig.CORSAllowedOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Flux API on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Infow("Shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
