package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/smartguard/internal/infra"
	"github.com/xela07ax/smartguard/internal/mockapi"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Серверу терминал не нужен, пишем логи в stdout
	logCfg := cfg.Logger
	logCfg.Output = "stdout"
	logger, err := infra.NewLogger(logCfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	api := mockapi.NewServer(cfg.Mock, cfg.API.TokenSecret, logger)

	srv := &http.Server{
		Addr:              cfg.Mock.Addr,
		Handler:           api,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("mock backend started",
			zap.String("addr", srv.Addr),
			zap.Int("devices", len(api.Devices())),
			zap.Bool("auth", cfg.API.TokenSecret != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("mock backend stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
		return
	}
	logger.Info("mock backend exited properly")
}
