// Command pdp starts the PDP sidecar: it loads configuration, builds the
// cache backend, optionally spawns and supervises the Horizon child
// process, and serves the HTTP API until asked to shut down.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/permitio/pdp-sidecar/core"
	"github.com/permitio/pdp-sidecar/internal/cache"
	"github.com/permitio/pdp-sidecar/internal/config"
	"github.com/permitio/pdp-sidecar/internal/httpapi"
	"github.com/permitio/pdp-sidecar/internal/opaclient"
	"github.com/permitio/pdp-sidecar/internal/watchdog"
	"github.com/permitio/pdp-sidecar/pkg/logger"
)

func main() {
	log := logger.NewSimpleLogger()
	fieldLogger := core.NewLoggerAdapter(log)

	tracerProvider := core.InitTracing("pdp-sidecar")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := core.ShutdownTracing(ctx, tracerProvider); err != nil {
			log.Warn("tracer shutdown error", "error", err)
		}
	}()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	cacheBackend, err := newCacheBackend(cfg)
	if err != nil {
		log.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}

	var cmdWatchdog *watchdog.CommandWatchdog
	var svcWatchdog *watchdog.ServiceWatchdog
	var opaHealth httpapi.ChildHealthChecker

	if cfg.SuperviseChild {
		descriptor, err := watchdog.NewDescriptor("horizon", "run").Build()
		if err != nil {
			log.Error("failed to build horizon descriptor", "error", err)
			os.Exit(1)
		}

		cmdWatchdog = watchdog.StartCommandWatchdog(descriptor, watchdog.DefaultCommandWatchdogOptions(), fieldLogger)

		checker := watchdog.NewHTTPHealthChecker(fmt.Sprintf("%s/health", cfg.HorizonBaseURL()))
		svcWatchdog = watchdog.StartServiceWatchdog(cmdWatchdog, checker, watchdog.DefaultServiceWatchdogOptions(), fieldLogger)

		waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := svcWatchdog.WaitUntilHealthy(waitCtx, 30*time.Second); err != nil {
			log.Warn("horizon did not become healthy before timeout", "error", err)
		}
		cancel()
	}

	debug := cfg.Debug
	opaClient := opaclient.NewClient(cfg.OPAURL, cfg.OPAQueryTimeout, &debug)
	cachedClient := opaclient.NewCachedClient(opaClient, cacheBackend)

	opaHealth = watchdog.NewHTTPHealthChecker(fmt.Sprintf("%s/health", cfg.OPAURL))

	var childHealth httpapi.ChildHealthChecker
	if cfg.SuperviseChild {
		childHealth = watchdog.NewHTTPHealthChecker(fmt.Sprintf("%s/health", cfg.HorizonBaseURL()))
	}

	server, err := httpapi.NewServer(cfg, cachedClient, cacheBackend, childHealth, opaHealth, fieldLogger)
	if err != nil {
		log.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:    server.ListenAddr(),
		Handler: server.Router(),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server running", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-shutdownSignal():
		log.Info("shutdown signal received, shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	}

	if svcWatchdog != nil {
		svcWatchdog.Close()
	}
	if cmdWatchdog != nil {
		cmdWatchdog.Close()
	}
	switch c := cacheBackend.(type) {
	case *cache.MemoryBackend:
		c.Close()
	case *cache.RedisBackend:
		_ = c.Close()
	}

	log.Info("server shutdown complete")
}

// shutdownSignal mirrors the select-between-interrupt-and-terminate pattern:
// either signal triggers the same graceful path.
func shutdownSignal() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch
}

func newCacheBackend(cfg *config.Config) (cache.Backend, error) {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second

	switch cfg.CacheStore {
	case config.CacheStoreInMemory:
		return cache.NewMemoryBackend(ttl, cfg.CacheMemoryCapacityMiB)
	case config.CacheStoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return cache.NewRedisBackend(ctx, cfg.CacheRedisURL, ttl)
	default:
		return cache.NewNullBackend(), nil
	}
}
