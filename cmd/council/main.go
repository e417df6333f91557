// Package main is the entry point for the council terminal client.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/llm-council/council-client/internal/api"
	"github.com/llm-council/council-client/internal/config"
	"github.com/llm-council/council-client/internal/debug"
	"github.com/llm-council/council-client/internal/tui"
	"github.com/llm-council/council-client/pkg/logger"
	"github.com/llm-council/council-client/pkg/tracing"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to config file")
	serverURL := flag.String("server", "", "backend URL (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}

	// The terminal owns stdout and stderr corrupts the UI, so interactive
	// sessions log to a file when one is configured.
	var log *logger.Logger
	if cfg.LogFile != "" {
		log, err = logger.NewFile(cfg.LogLevel, cfg.LogFile)
	} else {
		log, err = logger.New(cfg.LogLevel)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting council client", zap.String("server", cfg.ServerURL))

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "council-client", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	if cfg.MetricsAddr != "" {
		dbg := debug.New(cfg.MetricsAddr, log)
		dbg.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			dbg.Shutdown(shutdownCtx)
		}()
	}

	client := api.New(api.Options{
		BaseURL:             cfg.ServerURL,
		RequestTimeout:      cfg.RequestTimeout,
		StreamHeaderTimeout: cfg.StreamHeaderTimeout,
		MaxUploadBytes:      cfg.MaxUploadBytes,
		MaxUploadBatch:      cfg.MaxUploadBatch,
	}, log)

	program := tea.NewProgram(tui.New(client, cfg.ExportDir, log), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Error("program exited with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	log.Info("council client stopped")
}
