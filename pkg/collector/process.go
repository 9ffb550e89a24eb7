package collector

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/resource-monitor/pkg/monitor"
)

// processHandle gopsutil *process.Process 的最小子集，便于替换
type processHandle interface {
	MemoryInfo() (*process.MemoryInfoStat, error)
	Percent(interval time.Duration) (float64, error)
}

// ProcessProvider 监控进程自身的内存与CPU
type ProcessProvider struct {
	name    string
	pid     int32
	newProc func(pid int32) (processHandle, error)
	proc    processHandle
}

func NewProcessProvider() *ProcessProvider {
	return &ProcessProvider{
		name: "process",
		pid:  int32(os.Getpid()),
		newProc: func(pid int32) (processHandle, error) {
			return process.NewProcess(pid)
		},
	}
}

func (p *ProcessProvider) Name() string { return p.name }

func (p *ProcessProvider) Probe() error {
	proc, err := p.newProc(p.pid)
	if err != nil {
		return unavailable(p.name, err)
	}
	if _, err := proc.MemoryInfo(); err != nil {
		return unavailable(p.name, err)
	}
	// 首次调用只建立CPU基准
	_, _ = proc.Percent(0)
	p.proc = proc
	return nil
}

func (p *ProcessProvider) Collect(ctx context.Context, s *monitor.Sample) error {
	if p.proc == nil {
		return readErr(p.name, "process", ErrProviderUnavailable)
	}
	mi, err := p.proc.MemoryInfo()
	if err != nil {
		return readErr(p.name, "memory", err)
	}
	cpuPct, err := p.proc.Percent(0)
	if err != nil {
		return readErr(p.name, "cpu", err)
	}
	s.Process = &monitor.ProcessStats{
		RSS:        mi.RSS,
		VMS:        mi.VMS,
		CPUPercent: cpuPct,
	}
	return nil
}

func (p *ProcessProvider) Close() error { return nil }
