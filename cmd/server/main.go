package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/superspike/spike-server-go/internal/config"
	"github.com/superspike/spike-server-go/internal/game"
	"github.com/superspike/spike-server-go/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting spike server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Create context that is cancelled on termination signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	match, err := game.NewMatch(cfg, logger.Named("match"))
	if err != nil {
		logger.Fatal("failed to create match", zap.Error(err))
	}
	logger.Info("match initialized",
		zap.String("match_id", match.ID()),
		zap.Int("tick_rate", cfg.Server.TickRate),
		zap.Duration("point_over_delay", cfg.Server.PointOverDelay),
		zap.Bool("replay", cfg.Replay.Enabled),
	)

	srv := server.New(cfg.Server, match, logger.Named("server"))
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("shutting down gracefully...")
	if err := match.Close(); err != nil {
		logger.Error("failed to close match", zap.Error(err))
	}
	logger.Info("spike server stopped", zap.Any("score", match.Score()))
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
