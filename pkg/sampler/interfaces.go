package sampler

import (
	"context"
	"time"

	"github.com/resource-monitor/pkg/monitor"
)

// Controller 顶层采样控制器接口（封装采样循环的生命周期管理）
type Controller interface {
	Start(ctx context.Context)  // 启动后台循环（非阻塞、幂等）
	Stop(timeout time.Duration) // 取消并在超时内等待循环退出（尽力而为）
	State() monitor.State       // 当前生命周期状态
}

// LimitReader 容器内存上限来源，只在循环开始前读取一次
type LimitReader interface {
	ReadMemoryLimit() (uint64, error)
}

var _ Controller = (*Monitor)(nil)
