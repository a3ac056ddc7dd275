// Package logger provides the process-wide leveled logger used by every
// docstore component. It is intentionally tiny: storage code logs a handful
// of lines per operation and does not need structured fields.
package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu       sync.Mutex
	minLevel = LevelInfo
	sink     = stdlog.New(os.Stdout, "", 0)
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseLevel converts a level name to a Level. Unknown names map to INFO.
func ParseLevel(name string) Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug
	case "WARN":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetLevel sets the minimum level that will be emitted.
func SetLevel(name string) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = ParseLevel(name)
}

// SetOutput redirects log output, e.g. to a file opened from configuration.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	sink = stdlog.New(w, "", 0)
}

func emit(level Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if level < minLevel {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	sink.Println(fmt.Sprintf("[%s] [%s] %s", ts, level, fmt.Sprintf(format, args...)))
}

func Debug(format string, args ...any) { emit(LevelDebug, format, args...) }
func Info(format string, args ...any)  { emit(LevelInfo, format, args...) }
func Warn(format string, args ...any)  { emit(LevelWarn, format, args...) }
func Error(format string, args ...any) { emit(LevelError, format, args...) }
