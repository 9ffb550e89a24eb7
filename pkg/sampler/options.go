package sampler

import (
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/resource-monitor/pkg/collector"
	"github.com/resource-monitor/pkg/emitter"
)

type options struct {
	sink        emitter.Sink
	system      collector.Provider
	process     collector.Provider
	network     collector.Provider
	gpuDriver   collector.GPUDriver
	limitReader LimitReader
	clock       clockwork.Clock
	registerer  prometheus.Registerer
}

// Option 构造 Monitor 时的可选依赖注入
type Option func(*options)

// WithSink 覆盖默认 sink（默认：配置了文件路径写文件，否则写注入的 logger）
func WithSink(sink emitter.Sink) Option {
	return func(o *options) { o.sink = sink }
}

func WithSystemProvider(p collector.Provider) Option {
	return func(o *options) { o.system = p }
}

func WithProcessProvider(p collector.Provider) Option {
	return func(o *options) { o.process = p }
}

func WithNetworkProvider(p collector.Provider) Option {
	return func(o *options) { o.network = p }
}

// WithGPUDriver 替换 NVML 驱动
func WithGPUDriver(d collector.GPUDriver) Option {
	return func(o *options) { o.gpuDriver = d }
}

// WithLimitReader 替换 cgroup 内存上限来源
func WithLimitReader(r LimitReader) Option {
	return func(o *options) { o.limitReader = r }
}

func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithRegisterer 自身运行指标注册到指定 Registerer。
// 多个 Monitor 共享同一 Registerer 时复用同一组指标：计数累加，running 反映最近一次状态变更。
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.system == nil {
		o.system = collector.NewSystemProvider()
	}
	if o.process == nil {
		o.process = collector.NewProcessProvider()
	}
	if o.network == nil {
		o.network = collector.NewNetworkProvider()
	}
	if o.limitReader == nil {
		o.limitReader = collector.NewCgroupReader(nil)
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	return o
}
