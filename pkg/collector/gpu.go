package collector

import (
	"context"
	"fmt"
	"sync"

	"github.com/resource-monitor/pkg/monitor"
)

// GPUDriver 设备管理库的最小抽象（生产环境为 NVML）
type GPUDriver interface {
	Init() error
	Shutdown() error
	DeviceCount() (int, error)
	DeviceStats(index int) (monitor.GpuEntry, error)
}

// GPUProvider 每个设备的显存与利用率。
// 驱动初始化失败时整个会话禁用；任一设备读取失败则本次不产出任何条目，保证列表不会部分填充。
type GPUProvider struct {
	name   string
	driver GPUDriver

	mu          sync.Mutex
	initialized bool
	closed      bool
}

func NewGPUProvider(driver GPUDriver) *GPUProvider {
	if driver == nil {
		driver = NewNVMLDriver()
	}
	return &GPUProvider{name: "gpu", driver: driver}
}

func (p *GPUProvider) Name() string { return p.name }

func (p *GPUProvider) Probe() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}
	if err := p.driver.Init(); err != nil {
		return unavailable(p.name, err)
	}
	p.initialized = true
	return nil
}

func (p *GPUProvider) Collect(ctx context.Context, s *monitor.Sample) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	// 已关闭（Stop 之后重启）的设备句柄不可再用，静默不产出
	if !p.initialized || p.closed {
		return nil
	}

	count, err := p.driver.DeviceCount()
	if err != nil {
		return readErr(p.name, "device count", err)
	}
	entries := make([]monitor.GpuEntry, 0, count)
	for i := 0; i < count; i++ {
		entry, err := p.driver.DeviceStats(i)
		if err != nil {
			return readErr(p.name, fmt.Sprintf("device %d", i), err)
		}
		entry.DeviceIndex = i
		entries = append(entries, entry)
	}
	s.GPUs = entries
	return nil
}

// Close 关闭驱动；失败由调用方记录后忽略
func (p *GPUProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized || p.closed {
		return nil
	}
	p.closed = true
	return p.driver.Shutdown()
}
