package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/savegress/cliniredact/internal/api"
	"github.com/savegress/cliniredact/internal/audit"
	"github.com/savegress/cliniredact/internal/config"
	"github.com/savegress/cliniredact/internal/engine"
	"github.com/savegress/cliniredact/internal/metrics"
	"github.com/savegress/cliniredact/internal/nlp"
)

func main() {
	cfg := loadConfig()

	log := logrus.New()
	if cfg.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}
	log.Info("starting cliniredact")

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.New(registry)

	auditLogger := audit.NewLogger(&cfg.Audit)

	provider := nlp.NewProseProvider()
	if err := provider.Init(); err != nil {
		log.WithField("error_kind", "nlp_unavailable").Fatal("NLP facility failed to initialize")
	}

	eng, err := engine.New(engine.Options{
		PatternsPath: cfg.Engine.PatternsPath,
		Provider:     provider,
		SerializeNLP: cfg.Engine.SerializeNLP,
		Audit:        auditLogger,
		Metrics:      engineMetrics,
		Logger:       log,
	})
	if err != nil {
		log.WithField("error_kind", engine.Classify(err)).Fatal("engine construction failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := auditLogger.Start(ctx); err != nil {
		log.Fatalf("failed to start audit logger: %v", err)
	}

	server := api.NewServer(cfg, eng, auditLogger, registry)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("cliniredact API listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down cliniredact")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP server shutdown error: %v", err)
	}

	auditLogger.Stop()

	log.Info("cliniredact stopped")
}

func loadConfig() *config.Config {
	configPath := os.Getenv("CLINIREDACT_CONFIG")
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			logrus.Warnf("failed to load config from %s, using environment defaults", configPath)
			return config.LoadFromEnv()
		}
		return cfg
	}
	return config.LoadFromEnv()
}
