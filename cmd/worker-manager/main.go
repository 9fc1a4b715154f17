// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"crediflow/internal/common/camunda"
	"crediflow/internal/common/config"
	"crediflow/internal/common/logger"
	"crediflow/internal/common/observability"
	"crediflow/internal/profilestore"
	fcp "crediflow/internal/workers/customer/fetch-customer-profile"
	vlr "crediflow/internal/workers/loan/validate-loan-request"
	"crediflow/pkg/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	obs, err := observability.New("crediflow-worker-manager")
	if err != nil {
		zapLog.Warn("otel metrics and tracing disabled", zap.Error(err))
		obs = observability.NewNoop()
	}
	defer obs.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := registry.LoadOrDefault(os.Getenv("ACTIVITY_REGISTRY_PATH"))
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}

	// An unreachable store degrades the tools instead of stopping the
	// manager; the jobs fail with retries until it comes back.
	store, err := profilestore.Open(ctx, cfg, log, profilestore.WithTracer(obs.Tracer("crediflow/profilestore")))
	if err != nil {
		zapLog.Warn("profile store unavailable", zap.Error(err))
	}
	defer store.Close()

	zc, err := camunda.Connect(ctx, camunda.ConfigFromApp(cfg.Camunda), log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zc.Close()
	zapLog.Info("Zeebe client connected successfully")

	var workers []worker.JobWorker
	start := func(taskType string, handler worker.JobHandler) {
		if jw := camunda.StartWorker(zc.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, log); jw != nil {
			workers = append(workers, jw)
		}
	}

	fetchCfg := fcp.LoadConfig()
	fetchCfg.InputSchema = reg.InputSchema(fcp.TaskType)
	if t := cfg.Workers[fcp.TaskType].Timeout; t > 0 {
		fetchCfg.Timeout = config.GetDuration(t)
	}
	start(fcp.TaskType, fcp.NewHandler(fetchCfg, store, obs, log).Handle)

	loanCfg := vlr.LoadConfig()
	loanCfg.InputSchema = reg.InputSchema(vlr.TaskType)
	if t := cfg.Workers[vlr.TaskType].Timeout; t > 0 {
		loanCfg.Timeout = config.GetDuration(t)
	}
	start(vlr.TaskType, vlr.NewHandler(loanCfg, store, obs, log).Handle)

	zapLog.Info("Workers registered", zap.Int("count", len(workers)), zap.Strings("registry", reg.TaskTypes()))

	srv := &http.Server{Addr: cfg.Metrics.Address, Handler: newMux(store, zc)}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, jw := range workers {
		jw.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Health/Metrics server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

type availability interface {
	Available() bool
}

func newMux(store availability, zeebe healthChecker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"store": "ok", "zeebe": "ok"}
		status := http.StatusOK
		if !store.Available() {
			checks["store"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			checks["zeebe"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		label := "ready"
		if status != http.StatusOK {
			label = "not_ready"
		}
		writeStatus(w, status, label, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
		"checks": checks,
	})
}
