package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/stock-keeper/internal/application"
	"github.com/eugenenazirov/stock-keeper/internal/config"
	"github.com/eugenenazirov/stock-keeper/internal/logging"
)

var signalNotify = signal.Notify

type runner interface {
	Run(ctx context.Context) error
	RunOnce(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

func main() {
	// signed-date headers and log timestamps are always GMT+0
	time.Local = time.UTC

	kingpinApp := kingpin.New("stockkeeper", "Stock Keeper - keeps marketplace item stock at or above a configured floor")
	envFile := kingpinApp.Flag("env-file", "Path to the KEY=VALUE environment file (default: environment.txt next to the executable)").String()
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	baseURL := kingpinApp.Flag("base-url", "Marketplace API base URL").String()
	statusAddr := kingpinApp.Flag("status-addr", "Address of the ops HTTP server (disabled when empty)").String()
	logFormat := kingpinApp.Flag("log-format", "Log encoding: console or json").String()
	logFile := kingpinApp.Flag("log-file", "Also write logs to this rotated file").String()
	rateLimitRPSFlag := kingpinApp.Flag("rate-limit-rps", "Outbound API requests per second (set 0 to disable pacing)").Default("-1").Float64()
	rateLimitBurstFlag := kingpinApp.Flag("rate-limit-burst", "Burst capacity for outbound pacing").Default("-1").Int()
	once := kingpinApp.Flag("once", "Run a single cycle and exit").Bool()

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
		EnvFile:    *envFile,
	}

	if *baseURL != "" {
		overrides.BaseURL = baseURL
	}

	if *statusAddr != "" {
		overrides.StatusAddr = statusAddr
	}

	if *logFormat != "" {
		overrides.LogFormat = logFormat
	}

	if *logFile != "" {
		overrides.LogFile = logFile
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(logging.Options{
		Mute:   cfg.LogMute,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start ops server", zap.Error(err))
	}

	logger.Info("stock keeper started",
		zap.String("env_file", cfg.EnvFile),
		zap.String("seller_id", cfg.SellerID),
		zap.Int("floor", cfg.ProductCount),
		zap.Duration("interval", cfg.SleepInterval),
	)

	code := run(app, *once, cfg.ShutdownGracePeriod, logger)
	_ = logger.Sync()
	os.Exit(code)
}

// run drives the app until a signal arrives (or one cycle finishes with once) and returns
// the process exit code.
func run(app runner, once bool, grace time.Duration, logger *zap.Logger) int {
	ctx, stop := watchSignals(context.Background(), logger)
	defer stop()

	var err error
	if once {
		err = app.RunOnce(ctx)
	} else {
		err = app.Run(ctx)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if shutdownErr := app.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("graceful shutdown failed", zap.Error(shutdownErr))
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return 1
	}
	return 0
}

func watchSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-quit:
			logger.Warn("interrupted by user, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(quit)
		cancel()
	}
}
