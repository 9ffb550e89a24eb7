package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSamplerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricFactory(reg).NewSamplerMetrics()

	m.Ticks.Inc()
	m.Ticks.Inc()
	m.ProviderErrors.WithLabelValues("gpu").Inc()
	m.SinkErrors.Inc()
	m.TickDuration.Observe(0.01)
	m.Running.Set(1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderErrors.WithLabelValues("gpu")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Running))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"resource_monitor_ticks_total",
		"resource_monitor_provider_read_errors_total",
		"resource_monitor_sink_write_errors_total",
		"resource_monitor_tick_duration_seconds",
		"resource_monitor_running",
	}, names)
}

func TestNewMetricFactoryIsolatedRegistry(t *testing.T) {
	// 两个实例各自使用独立 Registry，不会重复注册
	assert.NotPanics(t, func() {
		NewMetricFactory(nil).NewSamplerMetrics()
		NewMetricFactory(nil).NewSamplerMetrics()
	})
}

func TestSharedRegistererReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := NewMetricFactory(reg)
	first := f.NewSamplerMetrics()

	var second *SamplerMetrics
	require.NotPanics(t, func() { second = NewMetricFactory(reg).NewSamplerMetrics() })

	first.Ticks.Inc()
	second.Ticks.Inc()
	second.ProviderErrors.WithLabelValues("system").Inc()
	assert.Equal(t, 2.0, testutil.ToFloat64(first.Ticks), "both samplers count into one series")
	assert.Equal(t, 1.0, testutil.ToFloat64(first.ProviderErrors.WithLabelValues("system")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestConflictingRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ticks_total",
		Help:      "a gauge with a counter's name",
	}))
	assert.Panics(t, func() { NewMetricFactory(reg).NewTicksTotal() })
}
