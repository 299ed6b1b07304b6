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

	"github.com/spf13/cobra"

	"github.com/shawgichan/lucid/internal/api"
	"github.com/shawgichan/lucid/internal/db"
	applogger "github.com/shawgichan/lucid/internal/logger"
	"github.com/shawgichan/lucid/internal/services"
	"github.com/shawgichan/lucid/internal/session"
	"github.com/shawgichan/lucid/internal/token"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := applogger.New(config.Environment)

	store, closeStore, err := db.Open(cmd.Context(), config)
	if err != nil {
		logger.Error("Cannot open store", "driver", config.StoreDriver, "error", err)
		return err
	}
	defer closeStore()
	logger.Info("Store ready", "driver", config.StoreDriver)

	tokenMaker, err := token.NewMaker(config.TokenType, config.TokenSecretKey)
	if err != nil {
		return fmt.Errorf("cannot create token maker: %w", err)
	}

	if config.SemanticAPIKey == "" {
		logger.Warn("SEMANTIC_API_KEY is not set; free searches are disabled")
	}

	httpClient := &http.Client{Timeout: config.HTTPTimeout}
	sessions := session.NewRegistry()

	scholar := services.NewScholarClient(config.SemanticAPIURL, httpClient, logger)
	searchSvc := services.NewSearchService(store, scholar, config.SemanticAPIKey, logger)
	summarySvc := services.NewSummaryService(config.SummarizerURL, config.SummarizerAPIKey, httpClient, logger)
	authSvc := services.NewAuthService(store, tokenMaker, sessions, config, logger)
	controller := session.NewController(searchSvc, summarySvc, store, logger)

	server := api.NewServer(config, authSvc, searchSvc, controller, sessions, tokenMaker, logger)

	srv := &http.Server{
		Addr:    ":" + config.Port,
		Handler: server.Router,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", config.Port, "environment", config.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		logger.Error("Failed to start server", "error", err)
		return err
	case <-quit:
	}
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		return err
	}

	logger.Info("Server exited")
	return nil
}
