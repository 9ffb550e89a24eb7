package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "resource_monitor"

// MetricFactory 指标工厂，用于统一创建指标（counter/gauge/histogram）。
// 所有指标都注册到注入的 Registerer，避免依赖全局默认注册器。
// 同一 Registerer 上重复创建时复用已注册的指标（多个采样器共享计数），不会 panic。
type MetricFactory struct {
	reg prometheus.Registerer
}

// NewMetricFactory reg 为 nil 时使用一个独立的 Registry
func NewMetricFactory(reg prometheus.Registerer) *MetricFactory {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &MetricFactory{reg: reg}
}

// SamplerMetrics 采样循环自身的运行指标
type SamplerMetrics struct {
	Ticks          prometheus.Counter
	ProviderErrors *prometheus.CounterVec
	SinkErrors     prometheus.Counter
	TickDuration   prometheus.Histogram
	Running        prometheus.Gauge
}

// NewSamplerMetrics 一次性创建采样循环所需的全部指标
func (f *MetricFactory) NewSamplerMetrics() *SamplerMetrics {
	return &SamplerMetrics{
		Ticks:          f.NewTicksTotal(),
		ProviderErrors: f.NewProviderErrorsTotal(),
		SinkErrors:     f.NewSinkErrorsTotal(),
		TickDuration:   f.NewTickDurationSeconds(),
		Running:        f.NewRunning(),
	}
}

func (f *MetricFactory) NewTicksTotal() prometheus.Counter {
	return register(f.reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ticks_total",
		Help:      "Total number of sampling ticks executed",
	}))
}

// NewProviderErrorsTotal 标签 provider: system/process/network/gpu
func (f *MetricFactory) NewProviderErrorsTotal() *prometheus.CounterVec {
	return register(f.reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_read_errors_total",
			Help:      "Total number of transient provider read errors",
		},
		[]string{"provider"},
	))
}

func (f *MetricFactory) NewSinkErrorsTotal() prometheus.Counter {
	return register(f.reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_write_errors_total",
		Help:      "Total number of failed sample line writes",
	}))
}

func (f *MetricFactory) NewTickDurationSeconds() prometheus.Histogram {
	return register(f.reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_duration_seconds",
		Help:      "Duration of one sampling tick (gather and emit)",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms ~ 2s
	}))
}

func (f *MetricFactory) NewRunning() prometheus.Gauge {
	return register(f.reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "running",
		Help:      "1 while the sampling loop is running",
	}))
}

// register 已注册同名指标时返回已有实例；其他注册错误（描述冲突等）属于编程错误，直接 panic
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
