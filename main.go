package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"churndash/internal"
	"churndash/internal/config"
	"churndash/internal/container"
	"churndash/internal/debugserver"
	"churndash/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

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

	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.Logging.Level), appConfig.Logging.Format)
	internal.DefaultLogger = logger
	gin.SetMode(appConfig.Server.GinMode)

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		logger.Error("Failed to initialize container: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	appContainer.Start(ctx, true)

	server, err := ui.NewServer(":"+appConfig.Server.Port, appContainer.Dashboard, appContainer.Sessions, appContainer.Authenticator, logger)
	if err != nil {
		logger.Error("Failed to initialize server: %v", err)
		os.Exit(1)
	}

	// Start pprof server for performance profiling
	var debug *debugserver.Server
	if appConfig.Profiling.Enabled {
		debug = debugserver.New(":"+appConfig.Profiling.Port, appContainer.Metrics, logger)
		go func() {
			if err := debug.Start(); err != nil {
				logger.Error("debug server failed: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed: %v", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown: %v", err)
	}
	if debug != nil {
		_ = debug.Shutdown(shutdownCtx)
	}
	_ = appContainer.Shutdown(shutdownCtx)
}
