// Package goid 读取当前 goroutine ID，仅用于日志字段
package goid

import (
	"runtime"

	"go.uber.org/zap"
)

// GetGID 解析 runtime.Stack 首行 "goroutine 123 [running]:"
func GetGID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = len("goroutine ")
	var id uint64
	for i := prefix; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}

// Field 当前 goroutine ID 的 zap 字段
func Field() zap.Field {
	return zap.Uint64("goid", GetGID())
}
