package emitter

import (
	"errors"
	"fmt"

	"github.com/resource-monitor/pkg/monitor"
)

// Emitter 格式化 Sample 并写入 sink
type Emitter struct {
	sink Sink
}

func New(sink Sink) *Emitter {
	return &Emitter{sink: sink}
}

// NewFromPath path 非空时写专用文件，否则写共享 logger
func NewFromPath(path string, shared Sink) (*Emitter, error) {
	if path == "" {
		return New(shared), nil
	}
	fs, err := NewFileSink(path)
	if err != nil {
		return nil, err
	}
	return New(fs), nil
}

// ErrEmptySample 本次 tick 没有任何字段，不写空行
var ErrEmptySample = errors.New("sample has no fields, line skipped")

// Emit 空 Sample 返回 ErrEmptySample，写入失败返回 *SinkWriteError
func (e *Emitter) Emit(s *monitor.Sample) error {
	line := Format(s)
	if line == "" {
		return ErrEmptySample
	}
	err := e.sink.WriteLine(line)
	if err == nil {
		return nil
	}
	var swe *SinkWriteError
	if errors.As(err, &swe) {
		return err
	}
	return &SinkWriteError{Sink: fmt.Sprintf("%T", e.sink), Err: err}
}

func (e *Emitter) Close() error {
	return e.sink.Close()
}
