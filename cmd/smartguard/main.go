package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xela07ax/smartguard/internal/connectors"
	"github.com/xela07ax/smartguard/internal/engine"
	"github.com/xela07ax/smartguard/internal/infra"
	"github.com/xela07ax/smartguard/internal/infra/auth"
	"github.com/xela07ax/smartguard/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "smartguard:", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Конфиг и логгер. stdout занят TUI, поэтому логи по умолчанию в файл
	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// 2. Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := engine.NewMetrics(reg)

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			metricsSrv.Shutdown(ctx)
		}()
	}

	// 3. Транспорт + надежность
	var tokens connectors.TokenSource
	if cfg.API.TokenSecret != "" {
		tokens = auth.NewSigner(cfg.API.TokenSecret, "smartguard-tui", cfg.API.TokenTTL)
	}
	adapter := connectors.NewHTTPAdapter(cfg.API, tokens)
	backend := engine.NewReliabilityWrapper(adapter, cfg.Reliability, cfg.API.Timeout, metrics, logger)

	logger.Info("smartguard starting",
		zap.String("base_url", cfg.API.BaseURL),
		zap.Duration("timeout", cfg.API.Timeout),
		zap.Uint("retry_attempts", cfg.Reliability.RetryAttempts))

	// 4. Экраны
	p := tea.NewProgram(tui.NewModel(backend, metrics, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	logger.Info("smartguard exited", zap.String("breaker_state", backend.State().String()))
	return nil
}
