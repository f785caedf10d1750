package utils

import (
	"log"
	"os"
	"time"
)

type Logger struct {
	std *log.Logger
}

func NewLogger() *Logger {
	return &Logger{std: log.New(os.Stdout, "", log.LstdFlags|log.LUTC)}
}

func (l *Logger) Printf(format string, args ...any) {
	if l == nil {
		return
	}
	l.std.Printf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	if l == nil {
		return
	}
	l.std.Printf("ERROR: "+format, args...)
}

// NowUTC returns the current time in UTC truncated to whole seconds, the
// precision the store keeps for every timestamp.
func NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
