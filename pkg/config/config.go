package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var valid = validator.New()

// 采样间隔下限与默认值
const (
	MinInterval     = 500 * time.Millisecond
	DefaultInterval = 2 * time.Second
)

// 功能开关环境变量（构造时只读取一次）
const (
	EnvShowGPU = "MONITOR_SHOW_GPU"
	EnvShowNet = "MONITOR_SHOW_NET"
)

// Config 全局配置结构体（聚合所有核心模块）
type Config struct {
	Monitor  MonitorConfig  `yaml:"monitor" mapstructure:"monitor" comment:"采样配置"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server" comment:"HTTP 健康检查/指标端点"`
	Log      ZapLogConfig   `yaml:"log" mapstructure:"log" comment:"日志配置"`
	MemGuard MemGuardConfig `yaml:"memguard" mapstructure:"memguard" comment:"内存清理与线程限制"`
}

// MonitorConfig 采样配置，构造后不可变
type MonitorConfig struct {
	Interval     time.Duration `yaml:"interval" mapstructure:"interval" env:"MONITOR_INTERVAL" comment:"采样间隔（低于0.5s按0.5s处理）" default:"2s"`
	StatsLogPath string        `yaml:"stats_log_path" mapstructure:"stats_log_path" env:"MONITOR_STATS_LOG_PATH" comment:"采样行专用文件；为空则写共享日志" default:""`
	ShowGPU      bool          `yaml:"show_gpu" mapstructure:"show_gpu" env:"MONITOR_SHOW_GPU" comment:"是否采集GPU" default:"true"`
	ShowNet      bool          `yaml:"show_net" mapstructure:"show_net" env:"MONITOR_SHOW_NET" comment:"是否采集网络计数" default:"true"`
	StopTimeout  time.Duration `yaml:"stop_timeout" mapstructure:"stop_timeout" validate:"gte=0" comment:"停止时等待循环退出的最长时间" default:"2s"`
}

// ServerConfig HTTP服务配置；Addr 为空时不启动
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr" env:"HTTP_ADDR" validate:"omitempty,hostname_port" comment:"HTTP监听地址（格式：ip:port）"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gt=0" comment:"读取超时时间"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gt=0" comment:"写入超时时间"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"gt=0" comment:"空闲连接超时时间"`
}

// ZapLogConfig 日志配置：控制台 + 按大小、数量滚动的文件
type ZapLogConfig struct {
	Level     string `yaml:"level" mapstructure:"level" env:"LOG_LEVEL" validate:"required,oneof=debug info warn error" comment:"日志级别" default:"info"`
	Format    string `yaml:"format" mapstructure:"format" env:"LOG_FORMAT" validate:"required,oneof=json console" comment:"文件日志格式（json/console）" default:"json"`
	Path      string `yaml:"path" mapstructure:"path" env:"LOG_PATH" validate:"required" comment:"日志目录" default:"./logs"`
	Filename  string `yaml:"filename" mapstructure:"filename" validate:"required" comment:"当前日志文件名（指向最新滚动文件的软链接）" default:"app.log"`
	MaxSize   int    `yaml:"max_size" mapstructure:"max_size" validate:"gt=0" comment:"单个日志文件最大大小（MB）" default:"10"`
	MaxBackup int    `yaml:"max_backup" mapstructure:"max_backup" validate:"gt=0" comment:"保留的日志文件数" default:"10"`
	Console   bool   `yaml:"console" mapstructure:"console" comment:"是否同时输出到控制台" default:"true"`
}

// MemGuardConfig 宿主程序自行调度的内存清理工具配置（采样器本身不调用）
type MemGuardConfig struct {
	LimitThreads    bool          `yaml:"limit_threads" mapstructure:"limit_threads" comment:"启动时限制数值库线程数"`
	MaxProcs        int           `yaml:"max_procs" mapstructure:"max_procs" validate:"gte=0" comment:"GOMAXPROCS 上限，0 表示不修改"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval" validate:"gte=0" comment:"周期清理间隔，0 表示关闭"`
}

// NewDefaultConfig 创建默认配置（所有字段兜底，避免空指针/非法值）
func NewDefaultConfig() *Config {
	return &Config{
		Monitor: MonitorConfig{
			Interval:     DefaultInterval,
			StatsLogPath: "",
			ShowGPU:      true,
			ShowNet:      true,
			StopTimeout:  2 * time.Second,
		},
		Server: ServerConfig{
			Addr:         "",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  15 * time.Second,
		},
		Log: ZapLogConfig{
			Level:     "info",
			Format:    "json",
			Path:      "./logs",
			Filename:  "app.log",
			MaxSize:   10,
			MaxBackup: 10,
			Console:   true,
		},
		MemGuard: MemGuardConfig{
			LimitThreads:    false,
			MaxProcs:        0,
			CleanupInterval: 0,
		},
	}
}

// NewMonitorConfig 库调用方使用：默认间隔 + 从环境变量读取一次功能开关
func NewMonitorConfig(interval time.Duration, statsLogPath string) MonitorConfig {
	return MonitorConfig{
		Interval:     interval,
		StatsLogPath: statsLogPath,
		ShowGPU:      EnvToggle(EnvShowGPU, true),
		ShowNet:      EnvToggle(EnvShowNet, true),
		StopTimeout:  2 * time.Second,
	}
}

// EnvToggle 未设置时返回 def；设置时仅 "true"（不区分大小写）视为开启
func EnvToggle(key string, def bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

// EffectiveInterval 实际生效的采样间隔：max(0.5s, 配置值)
func (m MonitorConfig) EffectiveInterval() time.Duration {
	if m.Interval < MinInterval {
		return MinInterval
	}
	return m.Interval
}

// LoadConfigWithCli 支持 time.Duration，(Flags + YAML + .env + ENV)
func LoadConfigWithCli(cmd *cobra.Command) (*Config, error) {
	cfg := NewDefaultConfig()
	v := viper.New()

	// 0. 加载 .env（不存在忽略）
	_ = godotenv.Load()

	// 1. 绑定 Cobra Flags → Viper（只绑定用户显式设置的，避免 flag 默认值覆盖配置文件）
	var bindErr error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return nil, fmt.Errorf("bind flags: %w", bindErr)
	}

	// 2. 解析配置文件 (--config)
	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	// 3. 环境变量（LOG_LEVEL -> log.level）
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	// 4. 解码反序列化到结构体（支持 time.Duration）
	if err := decode(v.AllSettings(), cfg); err != nil {
		return nil, err
	}

	// 5. 功能开关：环境变量优先，构造时读取一次
	cfg.Monitor.ShowGPU = EnvToggle(EnvShowGPU, cfg.Monitor.ShowGPU)
	cfg.Monitor.ShowNet = EnvToggle(EnvShowNet, cfg.Monitor.ShowNet)

	// 6. 校验配置
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// 环境变量到配置键的映射（MONITOR_SHOW_* 由 EnvToggle 单独处理）
var envBindings = map[string]string{
	"monitor.interval":       "MONITOR_INTERVAL",
	"monitor.stats_log_path": "MONITOR_STATS_LOG_PATH",
	"server.addr":            "HTTP_ADDR",
	"log.level":              "LOG_LEVEL",
	"log.format":             "LOG_FORMAT",
	"log.path":               "LOG_PATH",
}

func decode(settings map[string]any, cfg *Config) error {
	decoderConfig := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}
	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return fmt.Errorf("new decoder: %w", err)
	}
	if err := decoder.Decode(settings); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Validate 配置校验
func (c *Config) Validate() error {
	if err := valid.Struct(c); err != nil {
		return err
	}
	// 	1,校验Server服务配置
	if err := c.Server.Validate(); err != nil {
		return err
	}
	// 	2，校验采样配置
	if err := c.Monitor.Validate(); err != nil {
		return err
	}
	// 	3，校验日志配置
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}
