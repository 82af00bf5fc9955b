// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adxyz/adserve/core"
	"github.com/adxyz/adserve/internal/api"
	"github.com/adxyz/adserve/pkg/catalog"
	"github.com/adxyz/adserve/pkg/config"
	"github.com/adxyz/adserve/pkg/device"
	"github.com/adxyz/adserve/pkg/fraud"
	"github.com/adxyz/adserve/pkg/geo"
	"github.com/adxyz/adserve/pkg/log"
	"github.com/adxyz/adserve/pkg/metric"
	"github.com/adxyz/adserve/pkg/store"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to the YAML config file")
		addr       = flag.String("addr", "", "Listen address (overrides config)")
		version    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Printf("adserve v%s (commit: %s)\n", Version, GitCommit)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger := log.NewWithLevel(cfg.Server.LogLevel)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", "error", err)
	}
}

func run(cfg *config.Config, logger log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, err := store.NewRedisFromURL(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer kv.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = kv.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("connected to redis", "url", cfg.Redis.URL)

	var locator geo.Locator
	if cfg.Geo.DatabasePath != "" {
		mm, err := geo.OpenMaxMind(cfg.Geo.DatabasePath)
		if err != nil {
			return fmt.Errorf("geoip database: %w", err)
		}
		defer mm.Close()
		locator = mm
		logger.Info("geolocation enabled", "database", cfg.Geo.DatabasePath)
	} else {
		locator = geo.Static{Location: geo.Location{
			Country:        cfg.Geo.DefaultCountry,
			ConnectionType: cfg.Geo.DefaultConnectionType,
		}}
		logger.Warn("no geoip database configured, serving static location")
	}

	metrics := metric.New()
	devices := device.NewCache(kv, device.UADetector{}, metrics, logger)
	tracker := core.NewTracker(kv, devices, locator, fraud.BotHeuristic{}, logger, cfg.Debug.CacheStats)
	engine := core.NewEngine(catalog.NewStore(kv), tracker, metrics, logger)
	events := core.NewEventLog(kv, metrics, logger)
	server := api.NewServer(engine, events, metrics, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ad server listening", "addr", cfg.Server.Addr, "version", Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
