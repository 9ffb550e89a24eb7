// Package sampler 周期采样引擎：调度循环、provider 组合与生命周期控制。
package sampler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/resource-monitor/pkg/collector"
	"github.com/resource-monitor/pkg/config"
	"github.com/resource-monitor/pkg/emitter"
	"github.com/resource-monitor/pkg/goid"
	"github.com/resource-monitor/pkg/metrics"
	"github.com/resource-monitor/pkg/monitor"
)

// Monitor 实现 Controller 接口。
// 同一实例任意时刻最多只有一个后台循环；Start/Stop 可以在任意 goroutine 中调用。
type Monitor struct {
	cfg      config.MonitorConfig
	interval time.Duration
	session  string
	log      *zap.Logger
	clock    clockwork.Clock
	emitter  *emitter.Emitter
	metrics  *metrics.SamplerMetrics

	providers    []collector.Provider
	availability []collector.Availability

	limitReader LimitReader
	cgroupOnce  sync.Once
	cgroupLimit *uint64 // 循环开始前写入一次，之后只读

	mu     sync.Mutex
	state  monitor.State
	cancel context.CancelFunc
	done   chan struct{}
}

// New 构造采样器：配置在此固定，provider 能力探测在此执行且只执行一次。
// log 为共享 logger；未配置 StatsLogPath 时采样行也写到它。
func New(cfg config.MonitorConfig, log *zap.Logger, opts ...Option) (*Monitor, error) {
	if log == nil {
		log = zap.NewNop()
	}
	o := newOptions(opts)
	session := uuid.NewString()
	mlog := log.Named("sampler").With(zap.String("session", session))

	em := emitter.New(o.sink)
	if o.sink == nil {
		var err error
		em, err = emitter.NewFromPath(cfg.StatsLogPath, emitter.NewLoggerSink(log))
		if err != nil {
			return nil, fmt.Errorf("create stats sink: %w", err)
		}
	}

	providers, availability := registerProviders(cfg, o, mlog)

	return &Monitor{
		cfg:          cfg,
		interval:     cfg.EffectiveInterval(),
		session:      session,
		log:          mlog,
		clock:        o.clock,
		emitter:      em,
		metrics:      metrics.NewMetricFactory(o.registerer).NewSamplerMetrics(),
		providers:    providers,
		availability: availability,
		limitReader:  o.limitReader,
		state:        monitor.Stopped,
	}, nil
}

// Interval 实际生效的采样间隔
func (m *Monitor) Interval() time.Duration { return m.interval }

// Session 本实例的会话 ID（出现在所有日志中）
func (m *Monitor) Session() string { return m.session }

// Availability 构造时的能力探测结果
func (m *Monitor) Availability() []collector.Availability {
	out := make([]collector.Availability, len(m.availability))
	copy(out, m.availability)
	return out
}

// State 当前生命周期状态
func (m *Monitor) State() monitor.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start 启动后台循环（非阻塞）。
// 已在运行时为空操作；Stopping 状态下上一个循环尚未退出，同样不启动新循环。
// ctx 被取消时循环也会退出。
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case monitor.Running:
		return
	case monitor.Stopping:
		m.log.Warn("previous sampling loop has not exited yet, start ignored")
		return
	}

	m.cacheCgroupLimit()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.state = monitor.Running
	m.metrics.Running.Set(1)

	go m.run(loopCtx, cancel, done)

	m.log.Info("resource monitor started",
		zap.Duration("interval", m.interval),
		zap.Int("providers", len(m.providers)))
}

// Stop 发出取消信号，并最多等待 timeout 让循环退出。
// 超时后照常返回（后台循环可能仍在结束当前 tick），只记录告警。
// 加速卡驱动在循环退出之后关闭，失败记录后忽略；超时时在后台等循环退出再关闭。
// 未启动时为立即返回的空操作。
func (m *Monitor) Stop(timeout time.Duration) {
	m.mu.Lock()
	if m.state != monitor.Running {
		m.mu.Unlock()
		return
	}
	m.state = monitor.Stopping
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		m.shutdownProviders()
		m.log.Info("resource monitor stopped")
	case <-timer.C:
		// 当前 tick 可能卡在设备调用里，provider 关闭交给循环退出之后执行，Stop 不再等待
		go func() {
			<-done
			m.shutdownProviders()
		}()
		m.log.Warn("sampling loop did not exit within timeout",
			zap.Duration("timeout", timeout), zap.Error(ErrShutdownTimeout))
	}
}

// Close 停止循环并释放 sink；之后不应再调用 Start。
// 循环仍未退出时 provider 由 Stop 安排的后台清理负责关闭。
func (m *Monitor) Close() error {
	m.Stop(m.cfg.StopTimeout)
	if m.State() == monitor.Stopped {
		m.shutdownProviders()
	}
	return m.emitter.Close()
}

func (m *Monitor) shutdownProviders() {
	var errs error
	for _, p := range m.providers {
		if err := p.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	if errs != nil {
		m.log.Warn("provider shutdown failed, ignored", zap.Error(errs))
	}
}

// cacheCgroupLimit 容器内存上限只读一次：不可读、不存在或 "max" 都记为缺失，不再重试
func (m *Monitor) cacheCgroupLimit() {
	m.cgroupOnce.Do(func() {
		limit, err := m.limitReader.ReadMemoryLimit()
		switch {
		case err == nil:
			m.cgroupLimit = &limit
			m.log.Info("cgroup memory limit detected", zap.Uint64("limit_bytes", limit))
		case errors.Is(err, collector.ErrUnlimited):
			m.log.Info("cgroup memory limit is unlimited")
		default:
			m.log.Info("cgroup memory limit unavailable", zap.Error(err))
		}
	})
}

// run 首个 tick 立即执行；之后每次 tick 结束后等待 interval，在 tick 边界响应取消
func (m *Monitor) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer func() {
		cancel()
		m.mu.Lock()
		m.state = monitor.Stopped
		m.mu.Unlock()
		m.metrics.Running.Set(0)
		close(done)
	}()

	m.log.Debug("sampling loop running", goid.Field())

	for {
		m.tick(ctx)

		select {
		case <-ctx.Done():
			m.log.Debug("sampling loop cancelled", zap.Error(ctx.Err()))
			return
		case <-m.clock.After(m.interval):
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// tick 查询全部活跃 provider → 组装 Sample → 交给 emitter。
// 单个 provider 失败只记录错误，不影响其他字段和后续 tick。
func (m *Monitor) tick(ctx context.Context) {
	start := m.clock.Now()
	sample := &monitor.Sample{
		Timestamp:      start,
		CgroupMemLimit: m.cgroupLimit,
	}

	for _, p := range m.providers {
		m.collect(ctx, p, sample)
	}

	switch err := m.emitter.Emit(sample); {
	case err == nil:
	case errors.Is(err, emitter.ErrEmptySample):
		m.log.Debug("no fields collected this tick, line skipped")
	default:
		m.metrics.SinkErrors.Inc()
		m.log.Error("failed to write sample line", zap.Error(err))
	}

	m.metrics.Ticks.Inc()
	m.metrics.TickDuration.Observe(m.clock.Since(start).Seconds())
}

func (m *Monitor) collect(ctx context.Context, p collector.Provider, s *monitor.Sample) {
	defer func() {
		if r := recover(); r != nil {
			m.metrics.ProviderErrors.WithLabelValues(p.Name()).Inc()
			m.log.Error("provider panicked during collect", zap.String("provider", p.Name()), zap.Any("panic", r))
		}
	}()

	err := p.Collect(ctx, s)
	if err == nil {
		return
	}
	for _, e := range multierr.Errors(err) {
		m.metrics.ProviderErrors.WithLabelValues(p.Name()).Inc()
		m.log.Error("provider read failed", zap.String("provider", p.Name()), zap.Error(e))
	}
}
