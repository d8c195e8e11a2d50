package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mbessonov/audioscribe/internal/server"
	"github.com/mbessonov/audioscribe/internal/server/config"
	"github.com/mbessonov/audioscribe/internal/server/handlers"
	"github.com/mbessonov/audioscribe/internal/server/storage/boltdb"
	"github.com/mbessonov/audioscribe/internal/server/storage/sqlite"
	"github.com/mbessonov/audioscribe/internal/server/token"
	"github.com/mbessonov/audioscribe/internal/server/transcribe"
	"github.com/mbessonov/audioscribe/internal/server/upload"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(logger); err != nil {
		logger.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	denylist, err := boltdb.New(ctx, cfg.DenylistPath)
	if err != nil {
		return fmt.Errorf("failed to open denylist: %w", err)
	}
	defer denylist.Close()

	tokens := token.NewService([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	stager, err := upload.NewStager(cfg.ScratchDir, cfg.MaxUploadBytes, cfg.AllowedFormats)
	if err != nil {
		return fmt.Errorf("failed to create upload stager: %w", err)
	}

	engine := transcribe.NewHTTPEngine(cfg.EngineURL, cfg.EngineAPIKey, nil)
	pipeline := transcribe.NewPipeline(logger, stager, engine, store, cfg.EngineTimeout)

	srv := server.New(logger, cfg.Address, tokens, server.Handlers{
		Health:      handlers.NewHealthHandler(logger, Version),
		Auth:        handlers.NewAuthHandler(logger, store, tokens, denylist),
		Transcripts: handlers.NewTranscriptsHandler(logger, pipeline, store),
	})

	logger.Info("starting audioscribe server",
		slog.String("version", Version),
		slog.String("address", cfg.Address))

	return srv.Run(ctx)
}

func printVersion() {
	fmt.Printf("AudioScribe Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
