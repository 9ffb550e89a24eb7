package collector

import (
	"context"

	"github.com/resource-monitor/pkg/monitor"
)

// Provider 指标源核心接口（所有 provider 必须实现）
// 生命周期：Probe 在构造阶段仅调用一次；探测失败的 provider 在整个会话内被禁用，不再重试。
type Provider interface {
	Name() string                                         // provider 名称（唯一标识）
	Probe() error                                         // 一次性能力探测
	Collect(ctx context.Context, s *monitor.Sample) error // 填充本次 tick 的字段
	Close() error                                         // 释放资源
}

// Availability 能力探测结果
type Availability struct {
	Provider  string
	Available bool
	Reason    error // 不可用原因，Available 为 true 时为 nil
}

// ProbeAll 依次探测，返回每个 provider 的可用性（顺序与入参一致）
func ProbeAll(providers ...Provider) []Availability {
	out := make([]Availability, 0, len(providers))
	for _, p := range providers {
		err := p.Probe()
		out = append(out, Availability{
			Provider:  p.Name(),
			Available: err == nil,
			Reason:    err,
		})
	}
	return out
}
