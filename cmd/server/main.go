package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Brownie44l1/bp-api/internal/config"
	"github.com/Brownie44l1/bp-api/internal/engine"
	"github.com/Brownie44l1/bp-api/internal/handlers"
	"github.com/Brownie44l1/bp-api/internal/logging"
	"github.com/Brownie44l1/bp-api/internal/model"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	root, err := config.ProjectRoot()
	if err != nil {
		log.Fatalf("%v", err)
	}
	cfg.ResolvePaths(root)

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// Both artifacts load before the listener starts.
	stats, err := model.LoadStats(cfg.Model.StatsPath)
	if err != nil {
		return err
	}
	logger.Info("loaded normalization stats",
		zap.String("path", cfg.Model.StatsPath),
		zap.Any("stats", stats))

	logger.Info("loading model", zap.String("path", cfg.Model.Path), zap.String("format", cfg.Model.Format))
	eng, err := engine.Open(cfg.Model.Format, cfg.Model.Path, engine.ONNXOptions{
		SharedLibrary: cfg.Model.OnnxLibrary,
		InputName:     cfg.Model.OnnxInputName,
		OutputName:    cfg.Model.OnnxOutput,
	})
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	defer eng.Close()

	predictor, err := model.NewPredictor(stats, eng)
	if err != nil {
		return err
	}

	h := handlers.NewHandler(predictor, logger, cfg.Server.MaxBodyBytes)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handlers.WithMiddleware(h.Routes(), logger, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("engine", eng.Name()),
			zap.Float64("bp_min", stats.BPMin),
			zap.Float64("bp_max", stats.BPMax),
			zap.Strings("endpoints", []string{"GET /", "GET /health", "POST /predict"}))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
