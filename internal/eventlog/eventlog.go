// Package eventlog keeps the most recent diagnostic message so that callers
// on the far side of the C boundary can ask why the last call failed.
package eventlog

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

type Log struct {
	slot atomic.Pointer[string]
}

func New() *Log {
	return &Log{}
}

// Log overwrites the slot. Last write wins.
func (l *Log) Log(message string) {
	l.slot.Store(&message)
	slog.Warn("event logged", "message", message)
}

func (l *Log) Logf(format string, args ...any) {
	l.Log(fmt.Sprintf(format, args...))
}

// Get returns the latest message, or "" when nothing has been logged yet.
func (l *Log) Get() string {
	if p := l.slot.Load(); p != nil {
		return *p
	}
	return ""
}

func (l *Log) Reset() {
	l.slot.Store(nil)
}
