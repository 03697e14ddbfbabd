package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"prevgest/internal/amqp"
	"prevgest/internal/astrea"
	"prevgest/internal/cli"
	apphttp "prevgest/internal/http"
	"prevgest/internal/services"
)

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// AMQP report publishing is optional; without a URL imports still
	// run, they just aren't announced.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err, "exchange", cfg.AMQPExchange)
			os.Exit(1)
		}
		logger.Info("AMQP report publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	importService := services.NewImportService(repo, amqpClient)

	// ASTREA roster source is optional too.
	var roster apphttp.RosterFetcher
	if cfg.AstreaSpreadsheetID != "" {
		astreaClient, err := astrea.New(context.Background(), cfg.AstreaSpreadsheetID, cfg.AstreaSheetName)
		if err != nil {
			logger.Error("Failed to initialize ASTREA client", "error", err)
			os.Exit(1)
		}
		roster = astreaClient
		logger.Info("ASTREA roster import enabled", "sheet", cfg.AstreaSheetName)
	}

	srv := apphttp.NewServer(":"+cfg.Port, repo, importService, roster, cfg.MaxUploadBytes)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := importService.Close(); err != nil {
			logger.Error("Service close error", "error", err)
		}
	})

	logger.Info("Starting prevgest server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	slog.Info("Server stopped gracefully")
}
