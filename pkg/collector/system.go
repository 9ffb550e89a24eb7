package collector

import (
	"context"
	"errors"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/multierr"

	"github.com/resource-monitor/pkg/monitor"
)

const defaultDiskPath = "/"

// SystemProvider 系统级指标：CPU使用率、1分钟负载、内存、根分区磁盘
type SystemProvider struct {
	name     string
	diskPath string
	hasLoad  bool // 探测阶段确定；无负载接口时负载恒为0

	cpuPercent    func(interval time.Duration, percpu bool) ([]float64, error)
	loadAvg       func() (*load.AvgStat, error)
	virtualMemory func() (*mem.VirtualMemoryStat, error)
	diskUsage     func(path string) (*disk.UsageStat, error)
}

// NewSystemProvider 创建基于 gopsutil 的系统指标 provider
func NewSystemProvider() *SystemProvider {
	return &SystemProvider{
		name:          "system",
		diskPath:      defaultDiskPath,
		cpuPercent:    cpu.Percent,
		loadAvg:       load.Avg,
		virtualMemory: mem.VirtualMemory,
		diskUsage:     disk.Usage,
	}
}

func (p *SystemProvider) Name() string { return p.name }

// HasLoad 宿主机是否提供负载均值
func (p *SystemProvider) HasLoad() bool { return p.hasLoad }

// Probe 系统 provider 总是可用，这里只探测负载接口，同时为 cpu.Percent 建立基准
func (p *SystemProvider) Probe() error {
	_, err := p.loadAvg()
	p.hasLoad = err == nil
	_, _ = p.cpuPercent(0, false)
	return nil
}

// Collect 三组指标相互独立：任一组失败只影响自身，错误合并后返回
func (p *SystemProvider) Collect(ctx context.Context, s *monitor.Sample) error {
	var errs error

	c, err := p.collectCPU()
	if c != nil {
		s.CPU = c
	}
	errs = multierr.Append(errs, err)

	if vm, err := p.virtualMemory(); err != nil {
		errs = multierr.Append(errs, readErr(p.name, "memory", err))
	} else {
		s.Memory = &monitor.MemoryStats{
			Used:      vm.Used,
			Available: vm.Available,
			Percent:   vm.UsedPercent,
		}
	}

	if du, err := p.diskUsage(p.diskPath); err != nil {
		errs = multierr.Append(errs, readErr(p.name, "disk", err))
	} else {
		s.Disk = &monitor.DiskStats{
			Used:    du.Used,
			Total:   du.Total,
			Percent: du.UsedPercent,
		}
	}
	return errs
}

// collectCPU 使用率读取失败时整段缺失；负载读取失败只把 load1 记为 0，使用率照常上报
func (p *SystemProvider) collectCPU() (*monitor.CPUStats, error) {
	usage, err := p.cpuPercent(0, false)
	if err != nil {
		return nil, readErr(p.name, "cpu", err)
	}
	if len(usage) == 0 {
		return nil, readErr(p.name, "cpu", errors.New("empty cpu usage list"))
	}
	stats := &monitor.CPUStats{Percent: usage[0]}
	if !p.hasLoad {
		return stats, nil
	}
	avg, err := p.loadAvg()
	if err != nil {
		return stats, readErr(p.name, "load", err)
	}
	stats.Load1 = avg.Load1
	return stats, nil
}

func (p *SystemProvider) Close() error { return nil }
