package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/eugenenazirov/stock-keeper/internal/api"
	"github.com/eugenenazirov/stock-keeper/internal/config"
	"github.com/eugenenazirov/stock-keeper/internal/inventory"
	"github.com/eugenenazirov/stock-keeper/internal/marketplace"
	"github.com/eugenenazirov/stock-keeper/internal/signer"
	"github.com/eugenenazirov/stock-keeper/internal/status"
)

// App encapsulates the keeper loop and the optional ops HTTP server.
type App struct {
	keeper *inventory.Keeper
	store  status.Store
	logger *zap.Logger
	server *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if cfg.SleepInterval <= 0 {
		return nil, fmt.Errorf("sleep interval must be positive, got %s", cfg.SleepInterval)
	}
	if cfg.ProductCount < 0 {
		return nil, fmt.Errorf("product count must not be negative, got %d", cfg.ProductCount)
	}

	clock := clockwork.NewRealClock()
	store := status.NewMemoryStore()

	client := marketplace.NewClient(marketplace.Config{
		BaseURL:           cfg.BaseURL,
		VendorID:          cfg.SellerID,
		ConnectTimeout:    cfg.ConnectTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		RequestBurst:      cfg.RequestBurst,
	}, signer.New(cfg.AccessKey, cfg.SecretKey, clock), logger.Named("marketplace"))

	keeper := inventory.New(client, inventory.Settings{
		Floor:          cfg.ProductCount,
		Interval:       cfg.SleepInterval,
		CredentialsSet: cfg.HasCredentials(),
		EnvFile:        cfg.EnvFile,
	}, logger, inventory.WithClock(clock), inventory.WithStore(store))

	app := &App{
		keeper: keeper,
		store:  store,
		logger: logger,
	}

	if cfg.StatusAddr != "" {
		handler := api.NewHandler(store, api.WithClock(clock))
		router := api.NewRouter(handler, logger.Named("ops"), api.WithLogging(true))
		app.server = NewServer(cfg.StatusAddr, router)
	}

	return app, nil
}

// NewServer creates the ops HTTP server listening on addr.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Start binds the ops server, when configured, and serves it in a goroutine.
func (a *App) Start() error {
	if a.server == nil {
		return nil
	}

	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.server.Addr, err)
	}

	go func() {
		a.logger.Info("ops server listening", zap.String("addr", listener.Addr().String()))
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("ops server error", zap.Error(err))
		}
	}()
	return nil
}

// Run executes poll cycles until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.keeper.Run(ctx)
}

// RunOnce executes a single poll cycle.
func (a *App) RunOnce(ctx context.Context) error {
	return a.keeper.RunOnce(ctx)
}

// Shutdown stops the ops server, if any.
func (a *App) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	if err := a.server.Shutdown(ctx); err != nil {
		_ = a.server.Close()
		return fmt.Errorf("shutdown ops server: %w", err)
	}
	return nil
}

// Server returns the ops HTTP server, or nil when it is disabled.
func (a *App) Server() *http.Server {
	return a.server
}

// Store returns the cycle report store.
func (a *App) Store() status.Store {
	return a.store
}
