package logger

import (
	"log"
	"strings"
)

// Logger is the leveled logging interface used across the server. It keeps
// call sites decoupled from the concrete sink so tests can pass a quiet
// implementation.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Fatalf(format string, v ...interface{})
}

// NewLogger returns a Logger that writes to the standard log package,
// filtering entries below the given level ("debug", "info" or "error").
func NewLogger(level string) Logger {
	return &stdLogger{
		level: parseLevel(level),
	}
}

type stdLogger struct {
	level int
}

const (
	levelDebug = 0
	levelInfo  = 1
	levelError = 2
)

func parseLevel(l string) int {
	switch strings.ToLower(l) {
	case "debug":
		return levelDebug
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (l *stdLogger) Debugf(format string, v ...interface{}) {
	if l.level <= levelDebug {
		log.Printf("[DEBUG] "+format, v...)
	}
}

func (l *stdLogger) Infof(format string, v ...interface{}) {
	if l.level <= levelInfo {
		log.Printf("[INFO] "+format, v...)
	}
}

func (l *stdLogger) Errorf(format string, v ...interface{}) {
	if l.level <= levelError {
		log.Printf("[ERROR] "+format, v...)
	}
}

func (l *stdLogger) Fatalf(format string, v ...interface{}) {
	log.Fatalf("[FATAL] "+format, v...)
}
