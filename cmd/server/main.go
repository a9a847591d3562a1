package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/geo-visualizer/backend/internal/aggregate"
	"github.com/geo-visualizer/backend/internal/api"
	"github.com/geo-visualizer/backend/internal/classify"
	"github.com/geo-visualizer/backend/internal/config"
	"github.com/geo-visualizer/backend/internal/layers"
	"github.com/geo-visualizer/backend/internal/logging"
	"github.com/geo-visualizer/backend/internal/style"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Default to a config file next to the executable
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	configPath := flag.String("config", filepath.Join(filepath.Dir(exePath), "GeoVisualizer.config"), "path to the XML configuration")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Advanced.LogLevel, cfg.Advanced.LogFormat)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, *configPath, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, configPath string, log *zap.Logger) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	analytics, err := aggregate.NewDuckAggregator(cfg.Storage.AnalyticsDatabase, cfg.DuckOptions(), log)
	if err != nil {
		return fmt.Errorf("initializing analytics store: %w", err)
	}
	defer analytics.Close()

	store, err := layers.NewFileStore(cfg.Storage.LayersDirectory, log)
	if err != nil {
		return fmt.Errorf("initializing layer store: %w", err)
	}

	compiler := style.NewCompiler(classify.NewClassifier(analytics), cfg.StyleOptions(), log)
	service := layers.NewService(store, compiler, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.SetupMiddleware(e, log, api.MiddlewareOptions{
		ShowErrorDetails: cfg.Advanced.ShowErrorDetails,
		RequestLogging:   cfg.Advanced.EnableRequestLogging,
		BodyLimit:        cfg.Server.BodyLimit,
		AllowOrigins:     cfg.AllowedOrigins(),
		Timeout:          time.Duration(cfg.Server.RequestTimeout) * time.Second,
	})
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Service:                  service,
		Analytics:                analytics,
		Logger:                   log,
		Version:                  Version,
		PreserveLegendsByDefault: cfg.Style.PreserveLegendsByDefault,
	}))

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	log.Info("geo visualizer server starting",
		zap.String("version", Version),
		zap.String("buildTime", BuildTime),
		zap.String("config", configPath),
		zap.String("listen", cfg.GetServerAddr()),
		zap.String("layers", cfg.Storage.LayersDirectory),
		zap.String("analytics", cfg.Storage.AnalyticsDatabase))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(s)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
