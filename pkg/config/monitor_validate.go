package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
)

// Validate HTTP服务配置校验；Addr 为空表示不启动 HTTP 服务
func (h *ServerConfig) Validate() error {
	if err := valid.Struct(h); err != nil {
		return err
	}
	if h.Addr == "" {
		return nil
	}
	// 	用net包解析地址，验证格式合法性
	if _, err := net.ResolveTCPAddr("tcp", h.Addr); err != nil {
		return fmt.Errorf("server.addr format invalid (expected: :port or ip:port), got %s: %w", h.Addr, err)
	}
	return nil
}

// Validate 采样配置校验。
// 间隔不做上下限报错：低于 0.5s 的值在 EffectiveInterval 中按下限处理。
func (m *MonitorConfig) Validate() error {
	if err := valid.Struct(m); err != nil {
		return err
	}
	if m.StatsLogPath != "" {
		if strings.TrimSpace(m.StatsLogPath) == "" {
			return errors.New("monitor.stats_log_path cannot be blank")
		}
		if _, err := filepath.Abs(m.StatsLogPath); err != nil {
			return fmt.Errorf("monitor.stats_log_path invalid, got %s: %w", m.StatsLogPath, err)
		}
	}
	return nil
}
