// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/wheeldeal/wheeldeal-backend/internal/config"
	"github.com/wheeldeal/wheeldeal-backend/internal/database"
	"github.com/wheeldeal/wheeldeal-backend/internal/router"
	"github.com/wheeldeal/wheeldeal-backend/internal/services"
	"github.com/wheeldeal/wheeldeal-backend/internal/tasks"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if err := database.SeedInitialData(db); err != nil {
		log.Fatal("Failed to seed initial data:", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(db, cfg)

	// Background worker: periodic verification sweep over Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logrus.WithError(err).Warn("Redis unreachable at startup; scheduled sweeps will retry")
	}
	defer rdb.Close()

	notificationService := services.NewNotificationService(db, cfg)
	agentDirectory := services.NewAgentDirectory(db, cfg.Marketplace.AgentEmails)
	listingService := services.NewListingService(db, agentDirectory, notificationService)

	processor := tasks.NewTaskProcessor(listingService)
	taskServer, taskMux := tasks.NewServer(cfg, processor)
	scheduler, err := tasks.NewScheduler(cfg)
	if err != nil {
		log.Fatal("Failed to set up task scheduler:", err)
	}

	go func() {
		if err := taskServer.Run(taskMux); err != nil {
			logrus.WithError(err).Fatal("Task server stopped")
		}
	}()
	go func() {
		if err := scheduler.Run(); err != nil {
			logrus.WithError(err).Fatal("Task scheduler stopped")
		}
	}()

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	scheduler.Shutdown()
	taskServer.Shutdown()

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
