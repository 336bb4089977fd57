// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mw-source-service/internal/config"
	"mw-source-service/internal/driver"
	"mw-source-service/internal/routes"
	"mw-source-service/internal/utils"
	"mw-source-service/pkg/microwave"
)

// Application represents the main application
type Application struct {
	config *config.Config
	logger *zap.Logger
	server *http.Server
	source microwave.Source
}

func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Starting service",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeSource(); err != nil {
		return nil, fmt.Errorf("failed to initialize microwave source: %w", err)
	}

	app.initializeServer()

	return app, nil
}

// initializeSource creates the driver and connects to the instrument.
// A connection failure is fatal: the service has nothing to serve without
// its device.
func (app *Application) initializeSource() error {
	registry := driver.NewRegistry(app.logger)
	driver.RegisterAll(registry)

	source, err := registry.CreateDriver(&app.config.Device)
	if err != nil {
		return fmt.Errorf("failed to create driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), app.config.Device.Timeout())
	defer cancel()

	if err := source.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to device at %s: %w", app.config.Device.Address, err)
	}

	app.source = source
	return nil
}

// initializeServer builds the HTTP server
func (app *Application) initializeServer() {
	router := routes.NewRouter(app.config, app.logger, app.source)

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}
}

// Start runs the HTTP server until a shutdown signal arrives
func (app *Application) Start() error {
	errChan := make(chan error, 1)

	go func() {
		app.logger.Info("HTTP server listening",
			zap.String("addr", app.server.Addr),
		)
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		app.logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	return app.Shutdown()
}

// Shutdown stops the server and releases the device
func (app *Application) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	if err := app.source.Disconnect(ctx); err != nil {
		app.logger.Error("Device disconnect failed", zap.Error(err))
		return err
	}

	app.logger.Info("Shutdown complete")
	return nil
}
