package agent

import (
	"github.com/spf13/cobra"

	"github.com/resource-monitor/pkg/config"
)

var defaultCfg = config.NewDefaultConfig()

func initMonitorFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	prefix := "monitor."

	f.Duration(prefix+"interval", defaultCfg.Monitor.Interval, "-> Sampling interval, clamped to >= 500ms | 采样间隔")
	f.String(prefix+"stats-log-path", defaultCfg.Monitor.StatsLogPath, "-> Dedicated file for sample lines, empty writes to the shared log | 采样行文件")
	f.Bool(prefix+"show-gpu", defaultCfg.Monitor.ShowGPU, "-> Collect GPU stats (MONITOR_SHOW_GPU overrides) | 采集GPU")
	f.Bool(prefix+"show-net", defaultCfg.Monitor.ShowNet, "-> Collect network counters (MONITOR_SHOW_NET overrides) | 采集网络")
	f.Duration(prefix+"stop-timeout", defaultCfg.Monitor.StopTimeout, "-> Max wait for the sampling loop on stop | 停止等待时间")
}

func initMemGuardFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	prefix := "memguard."

	f.Bool(prefix+"limit-threads", defaultCfg.MemGuard.LimitThreads, "-> Cap numeric library threads at startup | 限制数值库线程")
	f.Int(prefix+"max-procs", defaultCfg.MemGuard.MaxProcs, "-> GOMAXPROCS cap, 0 keeps the runtime default | GOMAXPROCS 上限")
	f.Duration(prefix+"cleanup-interval", defaultCfg.MemGuard.CleanupInterval, "-> Periodic GC/free interval, 0 disables | 周期清理间隔")
}
