package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// WaitForShutdown 阻塞直到收到 SIGINT/SIGTERM 或 ctx 结束，然后在 timeout 内执行 shutdownFunc
func WaitForShutdown(ctx context.Context, logger *zap.Logger, timeout time.Duration, shutdownFunc func() error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("service running, waiting for SIGINT/SIGTERM...")
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("context done, shutting down", zap.Error(ctx.Err()))
	}

	Shutdown(logger, timeout, shutdownFunc)
}

// Shutdown 超时控制关闭逻辑：shutdownFunc 超时后不再等待
func Shutdown(logger *zap.Logger, timeout time.Duration, shutdownFunc func() error) {
	if shutdownFunc == nil {
		logger.Error("shutdownFunc is nil, cannot execute shutdown")
		return
	}
	finished := make(chan error, 1)
	go func() { finished <- shutdownFunc() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-finished:
		if err != nil {
			logger.Error("shutdown failed", zap.Error(err))
			return
		}
		logger.Info("shutdown completed")
	case <-timer.C:
		logger.Warn("shutdown timed out", zap.Duration("timeout", timeout))
	}
}
