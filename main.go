// File: solera/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solera/config"
	"solera/cron"
	"solera/database"
	bookingRepo "solera/database/repository/booking"
	emaillogRepo "solera/database/repository/emaillog"
	"solera/handlers"
	"solera/routes"
	"solera/services/gateway"
	"solera/services/lifecycle"
	"solera/services/notification"
	"solera/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()

	evidenceStorage, err := utils.Cloudinary()
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize cloudinary storage service: %v", err)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(cors.Default())

	// repositories.
	bookings := bookingRepo.NewMongoBookingRepo()
	if err := bookings.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}
	ledger := emaillogRepo.NewMongoEmailLogRepo()
	if err := ledger.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure email ledger indexes: %v", err)
	}

	// services.
	engine := lifecycle.NewEngine(
		bookings,
		config.GracePeriod(),
		int64(config.AppConfig.AutoUpdateBatchSize),
		logger,
	)

	mailer := notification.NewSMTPMailer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
		config.AppConfig.SMTPFrom,
	)
	notifier := notification.NewService(bookings, ledger, mailer, config.AppConfig.OpsEmail, logger)

	gatewaySvc := gateway.NewService(bookings, logger)

	// handlers.
	handlerBundle := &handlers.HandlerBundle{
		Booking: handlers.NewBookingHandler(gatewaySvc, evidenceStorage, bookings, logger),
		Cron:    handlers.NewCronHandler(engine, notifier, logger),
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Periodic trigger for deployments without an external cron caller.
	cron.InitScheduleWorker(engine, notifier)

	// Dependency health monitoring for the /health endpoint.
	taskQueueRedis := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	})
	utils.StartHealthMonitor(taskQueueRedis, database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
