package sampler

import (
	"go.uber.org/zap"

	"github.com/resource-monitor/pkg/collector"
	"github.com/resource-monitor/pkg/config"
)

type module struct {
	enabled bool
	name    string
	newFunc func() collector.Provider
}

// registerProviders provider 注册统一入口：开关控制 + 一次性能力探测。
// 返回的活跃集合在 Monitor 生命周期内固定，不会在每次使用时重新发现。
// 探测失败的 provider 只在这里记录一次告警。
func registerProviders(cfg config.MonitorConfig, o *options, log *zap.Logger) ([]collector.Provider, []collector.Availability) {
	modules := []module{
		{
			enabled: true,
			name:    "system",
			newFunc: func() collector.Provider { return o.system },
		},
		{
			enabled: true,
			name:    "process",
			newFunc: func() collector.Provider { return o.process },
		},
		{
			enabled: cfg.ShowNet,
			name:    "network",
			newFunc: func() collector.Provider { return o.network },
		},
		{
			enabled: cfg.ShowGPU,
			name:    "gpu",
			newFunc: func() collector.Provider { return collector.NewGPUProvider(o.gpuDriver) },
		},
	}

	var (
		active       []collector.Provider
		availability []collector.Availability
	)
	for _, m := range modules {
		if !m.enabled {
			availability = append(availability, collector.Availability{Provider: m.name, Reason: ErrDisabled})
			log.Debug("provider disabled by config", zap.String("provider", m.name))
			continue
		}
		p := m.newFunc()
		result := collector.ProbeAll(p)[0]
		availability = append(availability, result)
		if !result.Available {
			log.Warn("provider unavailable, disabled for this session",
				zap.String("provider", m.name), zap.Error(result.Reason))
			continue
		}
		if lp, ok := p.(interface{ HasLoad() bool }); ok && !lp.HasLoad() {
			log.Info("load average not available on this host, load1 reported as 0", zap.String("provider", m.name))
		}
		active = append(active, p)
	}

	names := make([]string, 0, len(active))
	for _, p := range active {
		names = append(names, p.Name())
	}
	log.Debug("all available providers registered", zap.Strings("providers", names))
	return active, availability
}
