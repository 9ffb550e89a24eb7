// Package logger 进程级日志配置：彩色控制台 + 按大小/数量滚动的文件。
// 采样器核心不直接使用这里的全局实例，而是由宿主程序把 *zap.Logger 注入进去。
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/resource-monitor/pkg/config"
)

type Logger = zap.Logger

var (
	baseLogger        *zap.Logger
	loggerInitOnce    sync.Once
	loggerInitialized bool
)

const timeLayout = "2006-01-02 15:04:05.000 -07:00"

// ParseLevel 未识别的级别按 info 处理
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "dbg", "debug":
		return zapcore.DebugLevel
	case "war", "warn":
		return zapcore.WarnLevel
	case "err", "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New 按配置构建一个独立的 logger（不影响全局实例）
func New(cfg config.ZapLogConfig) (*zap.Logger, error) {
	level := ParseLevel(cfg.Level)

	writer, err := newRotateWriter(cfg)
	if err != nil {
		return nil, err
	}

	var fileEncoder zapcore.Encoder
	if cfg.Format == "console" {
		plainCfg := zap.NewDevelopmentEncoderConfig()
		plainCfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
		plainCfg.ConsoleSeparator = " - "
		fileEncoder = zapcore.NewConsoleEncoder(plainCfg)
	} else {
		jsonCfg := zap.NewProductionEncoderConfig()
		jsonCfg.TimeKey = "timestamp"
		jsonCfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
		jsonCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		fileEncoder = zapcore.NewJSONEncoder(jsonCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(fileEncoder, zapcore.AddSync(writer), level),
	}
	if cfg.Console {
		cores = append(cores, zapcore.NewCore(newConsoleEncoder(), zapcore.Lock(os.Stdout), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// newRotateWriter 单文件超过 MaxSize MB 即滚动，最多保留 MaxBackup 个文件；
// cfg.Filename 是指向当前文件的软链接
func newRotateWriter(cfg config.ZapLogConfig) (*rotatelogs.RotateLogs, error) {
	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	base := strings.TrimSuffix(cfg.Filename, filepath.Ext(cfg.Filename))
	writer, err := rotatelogs.New(
		filepath.Join(cfg.Path, base+"-%Y%m%d.log"),
		rotatelogs.WithLinkName(filepath.Join(cfg.Path, cfg.Filename)),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithRotationSize(int64(cfg.MaxSize)*1024*1024),
		rotatelogs.WithRotationCount(uint(cfg.MaxBackup)),
	)
	if err != nil {
		return nil, fmt.Errorf("create rotate writer: %w", err)
	}
	return writer, nil
}

func newConsoleEncoder() zapcore.Encoder {
	// 控制台彩色时间
	customTimeEncoderConsole := func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(fmt.Sprintf("\033[34m%s\033[0m", t.Format(timeLayout)))
	}

	coloredLevelEncoder := func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		var levelStr string
		switch level {
		case zapcore.DebugLevel:
			levelStr = "\033[36mDEBUG\033[0m"
		case zapcore.InfoLevel:
			levelStr = "\033[32mINFO \033[0m"
		case zapcore.WarnLevel:
			levelStr = "\033[33mWARN \033[0m"
		case zapcore.ErrorLevel:
			levelStr = "\033[31mERROR\033[0m"
		default:
			levelStr = "\033[35m" + level.CapitalString() + "\033[0m"
		}
		enc.AppendString(levelStr)
	}

	consoleEncoderCfg := zap.NewDevelopmentEncoderConfig()
	consoleEncoderCfg.ConsoleSeparator = " "
	consoleEncoderCfg.EncodeLevel = coloredLevelEncoder
	consoleEncoderCfg.EncodeTime = customTimeEncoderConsole

	// Caller 两级路径
	consoleEncoderCfg.EncodeCaller = func(c zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		rel := filepath.Join(filepath.Base(filepath.Dir(c.File)), filepath.Base(c.File))
		enc.AppendString(fmt.Sprintf("%s:%d", rel, c.Line))
	}
	return zapcore.NewConsoleEncoder(consoleEncoderCfg)
}

// Init 初始化全局一次日志（供宿主程序使用）
func Init(cfg config.ZapLogConfig) (*zap.Logger, error) {
	var err error
	loggerInitOnce.Do(func() {
		var l *zap.Logger
		l, err = New(cfg)
		if err != nil {
			return
		}
		baseLogger = l
		loggerInitialized = true
	})
	if err != nil {
		return nil, err
	}
	if !loggerInitialized {
		return nil, fmt.Errorf("logger initialization failed earlier")
	}
	return baseLogger, nil
}

// GetLogger 未初始化时返回 Nop logger，避免启动阶段 panic
func GetLogger() *zap.Logger {
	if !loggerInitialized {
		return zap.NewNop()
	}
	return baseLogger
}

func Sync() error {
	if !loggerInitialized {
		return nil
	}
	return baseLogger.Sync()
}
