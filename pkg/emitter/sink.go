package emitter

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SinkName 采样行使用的 logger 名称
const SinkName = "resource_monitor"

// Sink 采样行的目的地（专用文件或共享 logger）
type Sink interface {
	WriteLine(line string) error
	Close() error
}

// SinkWriteError 追加采样行失败
type SinkWriteError struct {
	Sink string
	Err  error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("write sample line to %s: %v", e.Sink, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }

// -------------------------- 文件 sink --------------------------

// FileSink 以追加方式写入专用文件，格式 "时间 - 级别 - 名称 - 内容"。
// 尽力而为：进程在写入中途崩溃不保证整行落盘。
type FileSink struct {
	path string
	file *os.File
	core zapcore.Core
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileSink 打开（不存在则创建）path，父目录自动创建
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create sink dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open sink file %s: %w", path, err)
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "name",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " - ",
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), zapcore.InfoLevel)

	return &FileSink{path: path, file: f, core: core, now: time.Now}, nil
}

func (s *FileSink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       s.now(),
		LoggerName: SinkName,
		Message:    line,
	}
	if err := s.core.Write(entry, nil); err != nil {
		return &SinkWriteError{Sink: s.path, Err: err}
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.core.Sync()
	return s.file.Close()
}

// -------------------------- logger sink --------------------------

// LoggerSink 未配置文件时回退到注入的共享 logger（info 级别）
type LoggerSink struct {
	log *zap.Logger
}

func NewLoggerSink(log *zap.Logger) *LoggerSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggerSink{log: log.Named(SinkName)}
}

func (s *LoggerSink) WriteLine(line string) error {
	s.log.Info(line)
	return nil
}

func (s *LoggerSink) Close() error { return nil }
