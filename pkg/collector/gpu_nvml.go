package collector

import (
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/resource-monitor/pkg/monitor"
)

// NVMLDriver 基于 NVIDIA NVML 的 GPUDriver 实现。
// 没有驱动或 libnvidia-ml.so 时 Init 返回错误，不会 panic。
type NVMLDriver struct{}

func NewNVMLDriver() *NVMLDriver { return &NVMLDriver{} }

func (d *NVMLDriver) Init() error {
	return nvmlErr("init", nvml.Init())
}

func (d *NVMLDriver) Shutdown() error {
	return nvmlErr("shutdown", nvml.Shutdown())
}

func (d *NVMLDriver) DeviceCount() (int, error) {
	count, ret := nvml.DeviceGetCount()
	if err := nvmlErr("device count", ret); err != nil {
		return 0, err
	}
	return count, nil
}

func (d *NVMLDriver) DeviceStats(index int) (monitor.GpuEntry, error) {
	device, ret := nvml.DeviceGetHandleByIndex(index)
	if err := nvmlErr("device handle", ret); err != nil {
		return monitor.GpuEntry{}, err
	}
	memory, ret := device.GetMemoryInfo()
	if err := nvmlErr("memory info", ret); err != nil {
		return monitor.GpuEntry{}, err
	}
	util, ret := device.GetUtilizationRates()
	if err := nvmlErr("utilization", ret); err != nil {
		return monitor.GpuEntry{}, err
	}
	return monitor.GpuEntry{
		DeviceIndex:        index,
		MemUsed:            memory.Used,
		MemTotal:           memory.Total,
		UtilizationPercent: util.Gpu,
	}, nil
}

func nvmlErr(op string, ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}
	return fmt.Errorf("nvml %s: %s", op, nvml.ErrorString(ret))
}
