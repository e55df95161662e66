// Package main implements the coordinator: the single process external
// callers talk to, hosting internal/coordinator.Coordinator's ~50-operation
// Public Operation Surface over HTTP/JSON.
//
// Architecture:
//
//	┌───────────────────────────────────────────────┐
//	│                  coordinator                    │
//	├───────────────────────────────────────────────┤
//	│  HTTP API: one path per Coordinator operation   │
//	│    /health          - liveness                  │
//	│    /admin/reload    - force a config reload      │
//	├───────────────────────────────────────────────┤
//	│  Components:                                    │
//	│    directory.StaticDirectory  - shard routing   │
//	│    config.Watcher             - hot-reload       │
//	│    coordinator.Coordinator    - operation surface│
//	│    coordinator.ShardHealthMonitor - liveness     │
//	│    metrics.PrometheusLogger   - /metrics         │
//	└───────────────────────────────────────────────┘
//
// Configuration:
//   - COORDINATOR_ADDR: listen address (default ":8080")
//   - SHARD_CONFIG_FILE: path to the directory.Config YAML file (required)
//   - SHARD_HEALTH_CHECK_INTERVAL: health poll period (default "5s")
//
// Example usage:
//
//	COORDINATOR_ADDR=:8080 SHARD_CONFIG_FILE=./shards.yaml ./coordinator
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/accesscontrol"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/config"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/coordinator"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/directory"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/metrics"
	"github.com/alastairwyse/ApplicationAccess-sub002/internal/shardclient"
)

// logFatal is a variable so tests can intercept a fatal startup error
// without killing the test process.
var logFatal = log.Fatalf

func main() {
	addr := getenv("COORDINATOR_ADDR", ":8080")
	configFile := mustGetenv("SHARD_CONFIG_FILE")
	healthInterval := 5 * time.Second
	if v := os.Getenv("SHARD_HEALTH_CHECK_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			healthInterval = parsed
		} else {
			log.Printf("invalid SHARD_HEALTH_CHECK_INTERVAL %q, using default: %v", v, err)
		}
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		logFatal("failed to build logger: %v", err)
	}
	defer zapLogger.Sync()

	registry := prometheus.NewRegistry()
	metricLogger := metrics.NewPrometheusLogger("accesscontrol_coordinator", registry, zapLogger)

	coordDirectory := directory.NewStaticDirectory(shardClientFactory)

	watcher, err := config.NewWatcher(configFile, coordDirectory)
	if err != nil {
		logFatal("failed to create config watcher for %q: %v", configFile, err)
	}
	if err := watcher.Load(context.Background()); err != nil {
		logFatal("failed to load initial configuration from %q: %v", configFile, err)
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	go watcher.Start(watchCtx)

	c := coordinator.New(coordDirectory, metricLogger)

	healthMonitor := coordinator.NewShardHealthMonitor(healthInterval)
	healthMonitor.SetOnUnhealthy(func(description string) {
		log.Printf("shard %s is unhealthy", description)
	})

	cfgSnapshot, err := directory.LoadConfigFile(configFile)
	if err != nil {
		logFatal("failed to read configuration for health monitoring: %v", err)
	}
	go healthMonitor.Start(context.Background(), func() []directory.ShardEndpoint {
		snap, loadErr := directory.LoadConfigFile(configFile)
		if loadErr != nil {
			return cfgSnapshot.AllShardEndpoints()
		}
		cfgSnapshot = snap
		return snap.AllShardEndpoints()
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/admin/reload", func(w http.ResponseWriter, r *http.Request) {
		if err := watcher.Load(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	registerOperationRoutes(mux, c)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("coordinator listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logFatal("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("stopping health monitor and config watcher...")
	healthMonitor.Stop()
	watchCancel()
	_ = watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("http server shutdown error: %v", err)
	}
	log.Println("coordinator stopped")
}

// shardClientFactory builds an HTTPShardClient per configured endpoint —
// the production directory.ClientFactory, talking to real shard-node
// processes over the wire contract internal/shardserver hosts.
func shardClientFactory(ep directory.ShardEndpoint) (accesscontrol.ShardClient, error) {
	return shardclient.NewHTTPShardClient(ep.Address), nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustGetenv(k string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	logFatal("missing env %s", k)
	return ""
}
