package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"grouprank/internal"
	"grouprank/internal/config"
	"grouprank/internal/container"
	"grouprank/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// sessionSweepInterval is how often expired identities are dropped
const sessionSweepInterval = 10 * time.Minute

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewDefaultLogger()
	defer logger.Sync()
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.New(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create container: %v", err)
	}
	if err := c.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer c.Close()

	go c.Sessions.Run(ctx, sessionSweepInterval)

	server := ui.NewServer(c)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(appConfig.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed: %v", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed: %v", err)
		}
	}
}
