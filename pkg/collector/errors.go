package collector

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable 宿主机不具备该能力（探测阶段确定，整个会话禁用）
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrUnlimited cgroup 内存上限为 "max" 或等价的无限值
	ErrUnlimited = errors.New("cgroup memory limit is unlimited")
)

// ProviderReadError 单次 tick 内读取某项指标失败（瞬时错误，不影响其他字段）
type ProviderReadError struct {
	Provider string
	Metric   string
	Err      error
}

func (e *ProviderReadError) Error() string {
	return fmt.Sprintf("%s: read %s: %v", e.Provider, e.Metric, e.Err)
}

func (e *ProviderReadError) Unwrap() error { return e.Err }

func readErr(provider, metric string, err error) error {
	return &ProviderReadError{Provider: provider, Metric: metric, Err: err}
}

func unavailable(provider string, err error) error {
	return fmt.Errorf("%s: %w: %v", provider, ErrProviderUnavailable, err)
}
