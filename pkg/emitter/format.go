// Package emitter 把 Sample 序列化为一行 "|" 分隔的文本，并写入 sink。
package emitter

import (
	"fmt"
	"strings"

	"github.com/resource-monitor/pkg/monitor"
)

const (
	mib = 1 << 20
	gib = 1 << 30

	segmentSeparator = " | "
	gpuSeparator     = "; "
)

// Format 段顺序固定：cpu/load, memory, disk, network?, process?, cgroup?, gpu?
// 字段缺失的段整体省略。
func Format(s *monitor.Sample) string {
	parts := make([]string, 0, 7)
	if s.CPU != nil {
		parts = append(parts, fmt.Sprintf("cpu=%.1f%% load1=%.2f", s.CPU.Percent, s.CPU.Load1))
	}
	if s.Memory != nil {
		parts = append(parts, fmt.Sprintf("mem_used=%.1fMB mem_avail=%.1fMB mem_pct=%.1f%%",
			megabytes(s.Memory.Used), megabytes(s.Memory.Available), s.Memory.Percent))
	}
	if s.Disk != nil {
		parts = append(parts, fmt.Sprintf("disk_used=%.2fGB/%.2fGB (%.1f%%)",
			gigabytes(s.Disk.Used), gigabytes(s.Disk.Total), s.Disk.Percent))
	}
	if s.Network != nil {
		parts = append(parts, fmt.Sprintf("net_sent=%.1fMB net_recv=%.1fMB",
			megabytes(s.Network.BytesSent), megabytes(s.Network.BytesRecv)))
	}
	if s.Process != nil {
		parts = append(parts, fmt.Sprintf("proc_rss=%.1fMB proc_vms=%.1fMB proc_cpu=%.1f%%",
			megabytes(s.Process.RSS), megabytes(s.Process.VMS), s.Process.CPUPercent))
	}
	if s.CgroupMemLimit != nil {
		parts = append(parts, fmt.Sprintf("cgroup_mem_limit=%.1fMB", megabytes(*s.CgroupMemLimit)))
	}
	if len(s.GPUs) > 0 {
		parts = append(parts, formatGPUs(s.GPUs))
	}
	return strings.Join(parts, segmentSeparator)
}

func formatGPUs(gpus []monitor.GpuEntry) string {
	entries := make([]string, 0, len(gpus))
	for _, g := range gpus {
		entries = append(entries, fmt.Sprintf("gpu%d: mem_used=%.1fMB/%.1fMB util=%d%%",
			g.DeviceIndex, megabytes(g.MemUsed), megabytes(g.MemTotal), g.UtilizationPercent))
	}
	return strings.Join(entries, gpuSeparator)
}

func megabytes(b uint64) float64 { return float64(b) / mib }
func gigabytes(b uint64) float64 { return float64(b) / gib }
