// Package monitor 定义采样数据模型：每个 tick 产生一个 Sample，由 emitter 同步消费后丢弃。
package monitor

import "time"

// State 采样控制器的生命周期状态
type State int32

const (
	Stopped  State = iota // 未运行（初始状态，或循环已退出）
	Running               // 后台循环运行中
	Stopping              // 已发出取消信号，等待循环退出
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// -------------------------- 系统指标 --------------------------
type CPUStats struct {
	Percent float64 // 整机CPU使用率（0-100）
	Load1   float64 // 1分钟负载；宿主机无负载接口时为0
}

type MemoryStats struct {
	Used      uint64  // 已用内存（字节）
	Available uint64  // 可用内存（字节）
	Percent   float64 // 使用率（0-100）
}

type DiskStats struct {
	Used    uint64  // 根分区已用（字节）
	Total   uint64  // 根分区总量（字节）
	Percent float64 // 使用率（0-100）
}

// -------------------------- 可选指标 --------------------------
type NetStats struct {
	BytesSent uint64 // 开机以来累计发送字节
	BytesRecv uint64 // 开机以来累计接收字节
}

type ProcessStats struct {
	RSS        uint64  // 常驻内存（字节）
	VMS        uint64  // 虚拟内存（字节）
	CPUPercent float64 // 本进程CPU使用率
}

// GpuEntry 单个加速卡的快照
type GpuEntry struct {
	DeviceIndex        int
	MemUsed            uint64 // 字节
	MemTotal           uint64 // 字节
	UtilizationPercent uint32
}

// Sample 一次 tick 的采样结果。
// 字段为 nil 表示对应 provider 未启用或本次读取失败，渲染时整段省略，绝不使用占位值。
type Sample struct {
	Timestamp      time.Time
	CPU            *CPUStats
	Memory         *MemoryStats
	Disk           *DiskStats
	Network        *NetStats
	Process        *ProcessStats
	CgroupMemLimit *uint64
	GPUs           []GpuEntry
}
