package agent

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/resource-monitor/cmd/server"
	"github.com/resource-monitor/pkg/config"
	"github.com/resource-monitor/pkg/goid"
	"github.com/resource-monitor/pkg/logger"
	"github.com/resource-monitor/pkg/memguard"
	"github.com/resource-monitor/pkg/sampler"
	"github.com/resource-monitor/pkg/signal"
	"github.com/resource-monitor/pkg/util"
)

const projectName = "resource-monitor"

// Version 构建时通过 -ldflags "-X github.com/resource-monitor/cmd/agent.Version=..." 注入
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           projectName,
	Short:         "Periodic resource sampler writing one human-readable line per tick",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithCli(cmd)
		if err != nil {
			// 统一输出错误到 stderr，不返回给 cobra
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "请检查配置文件路径或使用 -c 参数指定\n")
			os.Exit(1)
		}
		if err := runMonitor(cmd.Context(), cfg); err != nil {
			fmt.Fprintf(os.Stderr, "服务启动失败: %v\n", err)
			os.Exit(1)
		}
		return nil
	},
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径（YAML）")
	// 注册分组 flag
	initMonitorFlags(rootCmd)
	initServerFlags(rootCmd)
	initLogFlags(rootCmd)
	initMemGuardFlags(rootCmd)

	rootCmd.AddCommand(configCmd, probeCmd)
}

func runMonitor(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// 数值库线程限制需在任何重负载初始化之前完成
	var limited []string
	if cfg.MemGuard.LimitThreads {
		limited = memguard.New(nil).LimitThreads(cfg.MemGuard.MaxProcs)
	}

	log, err := logger.Init(cfg.Log)
	if err != nil {
		return fmt.Errorf("日志初始化失败: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	util.PrintBanner(os.Stdout, projectName, "blue", Version)
	log.Info("Log initialization successful",
		goid.Field(),
		zap.String("path", cfg.Log.Path),
		zap.String("level", cfg.Log.Level),
		zap.String("format", cfg.Log.Format))
	if len(limited) > 0 {
		log.Info("thread limits applied", zap.Strings("env", limited), zap.Int("max_procs", cfg.MemGuard.MaxProcs))
	}

	registry := prometheus.NewRegistry()
	mon, err := sampler.New(cfg.Monitor, log, sampler.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	mon.Start(runCtx)

	if cfg.MemGuard.CleanupInterval > 0 {
		go runCleanup(runCtx, memguard.New(log), cfg.MemGuard.CleanupInterval)
	}

	var httpServer *server.Server
	if cfg.Server.Addr != "" {
		httpServer = server.NewHTTPServer(cfg.Server, log, registry, mon.State)
		if err := httpServer.Start(); err != nil {
			_ = mon.Close()
			return fmt.Errorf("start HTTP server failed: %w", err)
		}
	}

	// 关闭顺序：HTTP服务 → 采样器
	signal.WaitForShutdown(runCtx, log, cfg.Monitor.StopTimeout+5*time.Second, func() error {
		var errs error
		if httpServer != nil {
			errs = multierr.Append(errs, httpServer.Shutdown())
		}
		errs = multierr.Append(errs, mon.Close())
		return errs
	})
	return nil
}

// runCleanup 按固定间隔执行软清理，直到 ctx 结束
func runCleanup(ctx context.Context, guard *memguard.Guard, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			guard.Cleanup("periodic")
		}
	}
}
