package collector

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// cgroup v1 与 v2 的内存上限文件，按顺序查找，第一个存在的生效
const (
	CgroupV1MemoryLimitPath = "/sys/fs/cgroup/memory/memory.limit_in_bytes"
	CgroupV2MemoryMaxPath   = "/sys/fs/cgroup/memory.max"
)

// cgroup v1 未设置上限时内核报告接近 math.MaxInt64 的页对齐值
const cgroupV1UnlimitedThreshold = uint64(1) << 62

// CgroupReader 读取容器内存上限。
// 该值在容器生命周期内视为稳定，调用方只在循环开始前读取一次并缓存。
type CgroupReader struct {
	fs    afero.Fs
	paths []string
}

// NewCgroupReader fs 为 nil 时使用真实文件系统
func NewCgroupReader(fs afero.Fs) *CgroupReader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &CgroupReader{
		fs:    fs,
		paths: []string{CgroupV1MemoryLimitPath, CgroupV2MemoryMaxPath},
	}
}

// ReadMemoryLimit 返回上限字节数。
// "max" 或无限值返回 ErrUnlimited；没有可读文件返回包装的 ErrProviderUnavailable。
func (r *CgroupReader) ReadMemoryLimit() (uint64, error) {
	var lastErr error
	for _, path := range r.paths {
		raw, err := afero.ReadFile(r.fs, path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				lastErr = fmt.Errorf("read %s: %w", path, err)
			}
			continue
		}
		value := strings.TrimSpace(string(raw))
		if strings.EqualFold(value, "max") {
			return 0, ErrUnlimited
		}
		limit, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			lastErr = fmt.Errorf("parse %s: %w", path, err)
			continue
		}
		if limit >= cgroupV1UnlimitedThreshold {
			return 0, ErrUnlimited
		}
		return limit, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no cgroup memory limit file found")
	}
	return 0, unavailable("cgroup", lastErr)
}
