package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/starsight/starsight-be/pkg/starsight/api"
	"github.com/starsight/starsight-be/pkg/starsight/config"
)

func main() {
	showEnv := flag.Bool("env-help", false, "print the supported environment variables and exit")
	flag.Parse()
	if *showEnv {
		fmt.Println(config.EnvUsage())
		return
	}

	// Load configuration from .env and the environment
	serverConfig, err := config.Load(config.WithDotEnv(), config.WithEnv())
	if err != nil {
		slog.Error("Failed to load server configuration", "error", err)
		os.Exit(1)
	}

	logger := serverConfig.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx := context.Background()
	svc, cleanup, err := serverConfig.BuildService(ctx)
	if err != nil {
		logger.Error("Failed to build service", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	router := api.NewRouter(svc, serverConfig.RouterConfig(logger, api.NewMetrics()))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", serverConfig.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starsight API starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"database", serverConfig.DatabaseType,
			"storage", serverConfig.Storage.Type,
			"url_strategy", serverConfig.URLStrategy,
			"api_base", serverConfig.APIBase,
		)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exiting")
}
