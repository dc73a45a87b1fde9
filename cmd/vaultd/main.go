// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/veilgame/bountyvault/pkg/api"
	"github.com/veilgame/bountyvault/pkg/ledger"
	"github.com/veilgame/bountyvault/pkg/log"
	"github.com/veilgame/bountyvault/pkg/metric"
	"github.com/veilgame/bountyvault/pkg/storage"
	"github.com/veilgame/bountyvault/pkg/vault"
)

var (
	port        = flag.Int("port", 8080, "API server port")
	metricsPort = flag.Int("metrics-port", 9090, "Metrics server port")
	dbType      = flag.String("db", "badger", "Database backend (badger/memory)")
	dbPath      = flag.String("db-path", "/tmp/vaultd", "Database directory")
	oracle      = flag.String("oracle", "", "Oracle address (required)")
	admin       = flag.String("admin", "", "Admin address")
	logLevel    = flag.String("log-level", "info", "Log level")
	env         = flag.String("env", "development", "Environment (development/production)")
	sweepEvery  = flag.Duration("sweep-interval", time.Minute, "Expired-mystery sweep interval")
	genesis     = flag.String("genesis-mint", "", "Address to mint the initial supply to")
	supply      = flag.Int64("genesis-supply", 0, "Initial supply for --genesis-mint")

	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	flag.Parse()

	fmt.Printf("Vault Daemon (vaultd) %s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)

	if *oracle == "" {
		fmt.Println("Error: --oracle is required")
		os.Exit(1)
	}

	logger := log.NewWithLevel(*logLevel)
	defer logger.Sync()

	store, err := storage.New(*dbType, *dbPath)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	metrics, err := metric.NewMetrics()
	if err != nil {
		fmt.Printf("Failed to register metrics: %v\n", err)
		os.Exit(1)
	}

	led := ledger.New()
	if *genesis != "" && *supply > 0 {
		if err := led.Mint(*genesis, decimal.NewFromInt(*supply)); err != nil {
			fmt.Printf("Failed to mint genesis supply: %v\n", err)
			os.Exit(1)
		}
	}

	v, err := vault.New(vault.Config{
		Oracle:  *oracle,
		Admin:   *admin,
		Ledger:  led,
		Store:   store,
		Log:     logger,
		Metrics: metrics,
	})
	if err != nil {
		fmt.Printf("Failed to create vault: %v\n", err)
		os.Exit(1)
	}

	server := api.NewServer(api.Config{
		Vault: v,
		Store: store,
		Log:   logger,
		Prod:  *env == "production",
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: server.Router(),
	}
	go func() {
		logger.Info(fmt.Sprintf("API server listening on :%d", *port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("API server failed: " + err.Error())
		}
	}()

	metricsSrv := startMetricsServer(*metricsPort, metrics, logger)

	// Background sweep so expired mysteries leave the active set without
	// waiting for a submission to trip over them.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go runSweepLoop(sweepCtx, v, *sweepEvery, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down vaultd...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("API server shutdown error: " + err.Error())
	}
	if err := metricsSrv.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown error: " + err.Error())
	}

	logger.Info("Daemon stopped")
}

func startMetricsServer(port int, metrics *metric.Metrics, logger log.Logger) *http.Server {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetGatherer(), promhttp.HandlerOpts{}))
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"healthy","version":%q}`, Version)
	}).Methods("GET")

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
	go func() {
		logger.Info(fmt.Sprintf("Metrics server listening on :%d", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed: " + err.Error())
		}
	}()
	return srv
}

func runSweepLoop(ctx context.Context, v *vault.Vault, every time.Duration, logger log.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := v.SweepExpired()
			if err != nil {
				logger.Warn("sweep failed: " + err.Error())
				continue
			}
			if n > 0 {
				logger.Info(fmt.Sprintf("swept %d expired mysteries", n))
			}
		}
	}
}
