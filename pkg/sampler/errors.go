package sampler

import "errors"

var (
	// ErrShutdownTimeout Stop 在超时内未等到循环退出（只记录告警，不作为失败返回）
	ErrShutdownTimeout = errors.New("resource monitor shutdown timed out")
	// ErrDisabled provider 被配置关闭
	ErrDisabled = errors.New("provider disabled by configuration")
)
