package sampler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/resource-monitor/pkg/collector"
	"github.com/resource-monitor/pkg/config"
	"github.com/resource-monitor/pkg/monitor"
)

// stubProvider 可编程的 provider
type stubProvider struct {
	name     string
	probeErr error
	collect  func(ctx context.Context, s *monitor.Sample) error

	calls  atomic.Int32
	closes atomic.Int32
}

func (p *stubProvider) Name() string { return p.name }
func (p *stubProvider) Probe() error { return p.probeErr }
func (p *stubProvider) Close() error { p.closes.Add(1); return nil }

func (p *stubProvider) Collect(ctx context.Context, s *monitor.Sample) error {
	p.calls.Add(1)
	if p.collect == nil {
		return nil
	}
	return p.collect(ctx, s)
}

func newSystemStub() *stubProvider {
	return &stubProvider{
		name: "system",
		collect: func(_ context.Context, s *monitor.Sample) error {
			s.CPU = &monitor.CPUStats{Percent: 10, Load1: 0.5}
			s.Memory = &monitor.MemoryStats{Used: 100 << 20, Available: 300 << 20, Percent: 25}
			s.Disk = &monitor.DiskStats{Used: 1 << 30, Total: 4 << 30, Percent: 25}
			return nil
		},
	}
}

func newProcessStub() *stubProvider {
	return &stubProvider{
		name: "process",
		collect: func(_ context.Context, s *monitor.Sample) error {
			s.Process = &monitor.ProcessStats{RSS: 10 << 20, VMS: 20 << 20, CPUPercent: 1}
			return nil
		},
	}
}

func newNetworkStub() *stubProvider {
	return &stubProvider{
		name: "network",
		collect: func(_ context.Context, s *monitor.Sample) error {
			s.Network = &monitor.NetStats{BytesSent: 1 << 20, BytesRecv: 2 << 20}
			return nil
		},
	}
}

// recordingSink 记录写入的采样行
type recordingSink struct {
	mu     sync.Mutex
	lines  []string
	err    error
	closed bool
}

func (s *recordingSink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.lines = append(s.lines, line)
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *recordingSink) waitLines(t *testing.T, n int) {
	t.Helper()
	assert.Eventually(t, func() bool { return len(s.Lines()) >= n }, 2*time.Second, 5*time.Millisecond,
		"expected at least %d lines", n)
}

// fakeLimitReader 记录调用次数的 cgroup 上限来源
type fakeLimitReader struct {
	limit uint64
	err   error
	calls atomic.Int32
}

func (r *fakeLimitReader) ReadMemoryLimit() (uint64, error) {
	r.calls.Add(1)
	return r.limit, r.err
}

func noLimit() *fakeLimitReader {
	return &fakeLimitReader{err: collector.ErrProviderUnavailable}
}

// fakeGPUDriver 内存中的加速卡驱动
type fakeGPUDriver struct {
	initErr   error
	initCalls atomic.Int32
	shutdowns atomic.Int32
}

func (d *fakeGPUDriver) Init() error               { d.initCalls.Add(1); return d.initErr }
func (d *fakeGPUDriver) Shutdown() error           { d.shutdowns.Add(1); return errors.New("already gone") }
func (d *fakeGPUDriver) DeviceCount() (int, error) { return 1, nil }

func (d *fakeGPUDriver) DeviceStats(int) (monitor.GpuEntry, error) {
	return monitor.GpuEntry{MemUsed: 512 << 20, MemTotal: 1024 << 20, UtilizationPercent: 50}, nil
}

func testConfig() config.MonitorConfig {
	return config.MonitorConfig{
		Interval:    time.Second,
		ShowGPU:     false,
		ShowNet:     false,
		StopTimeout: time.Second,
	}
}

type testMonitor struct {
	*Monitor
	sink    *recordingSink
	logs    *observer.ObservedLogs
	system  *stubProvider
	process *stubProvider
	network *stubProvider
}

// newTestMonitor 所有外部依赖均替换为桩；额外 Option 覆盖默认桩
func newTestMonitor(t *testing.T, cfg config.MonitorConfig, opts ...Option) *testMonitor {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	tm := &testMonitor{
		sink:    &recordingSink{},
		logs:    logs,
		system:  newSystemStub(),
		process: newProcessStub(),
		network: newNetworkStub(),
	}
	base := []Option{
		WithSink(tm.sink),
		WithSystemProvider(tm.system),
		WithProcessProvider(tm.process),
		WithNetworkProvider(tm.network),
		WithGPUDriver(&fakeGPUDriver{initErr: errors.New("no driver")}),
		WithLimitReader(noLimit()),
		WithRegisterer(prometheus.NewRegistry()),
	}
	m, err := New(cfg, zap.New(core), append(base, opts...)...)
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	tm.Monitor = m
	t.Cleanup(func() { _ = m.Close() })
	return tm
}

// blockingGPUDriver 设备枚举阻塞，直到 release 被关闭
type blockingGPUDriver struct {
	fakeGPUDriver
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newBlockingGPUDriver() *blockingGPUDriver {
	return &blockingGPUDriver{entered: make(chan struct{}), release: make(chan struct{})}
}

func (d *blockingGPUDriver) DeviceCount() (int, error) {
	d.once.Do(func() { close(d.entered) })
	<-d.release
	return 1, nil
}
