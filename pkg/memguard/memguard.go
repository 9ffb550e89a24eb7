// Package memguard 宿主程序按需调用的内存清理与线程限制工具。
// 采样器既不调用它，也不被它调用。
package memguard

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// ThreadEnvVars 数值计算库的线程数环境变量
var ThreadEnvVars = []string{
	"OMP_NUM_THREADS",
	"OPENBLAS_NUM_THREADS",
	"MKL_NUM_THREADS",
	"VECLIB_MAXIMUM_THREADS",
	"NUMEXPR_NUM_THREADS",
}

// Guard 持有日志对象；零值不可用，使用 New
type Guard struct {
	log *zap.Logger
	pid int32
}

func New(log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{log: log.Named("memguard"), pid: int32(os.Getpid())}
}

// RSSMegabytes 当前进程常驻内存（MB）；读取失败返回 0
func (g *Guard) RSSMegabytes() float64 {
	p, err := process.NewProcess(g.pid)
	if err != nil {
		return 0
	}
	mi, err := p.MemoryInfo()
	if err != nil {
		return 0
	}
	return float64(mi.RSS) / 1e6
}

// Cleanup 软清理：强制 GC 并把空闲内存归还操作系统，然后记录 RSS
func (g *Guard) Cleanup(note string) {
	runtime.GC()
	debug.FreeOSMemory()

	fields := []zap.Field{zap.Float64("rss_mb", g.RSSMegabytes())}
	if note != "" {
		fields = append(fields, zap.String("note", note))
	}
	g.log.Info("cleanup done", fields...)
}

// LimitThreads 为数值库线程数设置默认值 1（已设置的不覆盖）；
// maxProcs > 0 时同时限制 GOMAXPROCS。返回实际写入的环境变量。
func (g *Guard) LimitThreads(maxProcs int) []string {
	var applied []string
	for _, key := range ThreadEnvVars {
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, "1"); err != nil {
			g.log.Warn("set thread env failed", zap.String("key", key), zap.Error(err))
			continue
		}
		applied = append(applied, key)
	}
	if maxProcs > 0 {
		prev := runtime.GOMAXPROCS(maxProcs)
		g.log.Debug("GOMAXPROCS limited", zap.Int("previous", prev), zap.Int("current", maxProcs))
	}
	g.log.Info("thread limits applied", zap.Strings("env", applied))
	return applied
}
