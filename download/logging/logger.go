package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel is the severity of a log line.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

var levelRank = map[LogLevel]int{
	LogLevelDebug: 0,
	LogLevelInfo:  1,
	LogLevelWarn:  2,
	LogLevelError: 3,
}

// ParseLevel maps a level name to a LogLevel, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	level := LogLevel(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelRank[level]; ok {
		return level
	}
	return LogLevelInfo
}

// LogEntry is one line of the JSON log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Service   string    `json:"service"`
	Operation string    `json:"operation,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Logger writes leveled event lines such as
// "INFO: download_complete track=... path=...". Text loggers write that
// form directly; JSON loggers wrap it in a LogEntry.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	closer  io.Closer
	service string
	min     LogLevel
	asJSON  bool
}

// NewLogger creates a text logger. Entries below min are dropped.
func NewLogger(w io.Writer, service string, min LogLevel) *Logger {
	return &Logger{out: w, service: service, min: min}
}

// NewJSONLogger creates a logger appending JSON lines to logPath, creating
// its directory if needed.
func NewJSONLogger(logPath, service string, min LogLevel) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &Logger{out: f, closer: f, service: service, min: min, asJSON: true}, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLogger(io.Discard, "discard", LogLevelError)
}

// Close closes the log file of a JSON logger. It is a no-op otherwise.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	l.out = io.Discard
	return err
}

// Enabled reports whether entries at level are written.
func (l *Logger) Enabled(level LogLevel) bool {
	return levelRank[level] >= levelRank[l.min]
}

func (l *Logger) log(level LogLevel, operation, message string, err error) {
	if !l.Enabled(level) {
		return
	}

	var line string
	if l.asJSON {
		line = l.jsonLine(level, operation, message, err)
	} else {
		line = textLine(level, operation, message, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, line+"\n")
}

func textLine(level LogLevel, operation, message string, err error) string {
	var b strings.Builder
	b.WriteString(string(level))
	b.WriteString(": ")
	b.WriteString(message)
	if operation != "" {
		b.WriteString(" operation=" + operation)
	}
	if err != nil {
		fmt.Fprintf(&b, " error=%q", err.Error())
	}
	return b.String()
}

func (l *Logger) jsonLine(level LogLevel, operation, message string, err error) string {
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Service:   l.service,
		Operation: operation,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	data, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		return fmt.Sprintf(`{"level":%q,"message":%q,"service":%q}`, level, message, l.service)
	}
	return string(data)
}

func (l *Logger) Debug(message string) { l.log(LogLevelDebug, "", message, nil) }

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(LogLevelDebug, "", fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Info(message string) { l.log(LogLevelInfo, "", message, nil) }

func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(LogLevelInfo, "", fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Warn(message string) { l.log(LogLevelWarn, "", message, nil) }

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(LogLevelWarn, "", fmt.Sprintf(format, args...), nil)
}

// WarnWithOperation logs a non-fatal failure of one step of a larger
// operation, such as tagging after a successful download.
func (l *Logger) WarnWithOperation(operation, message string, err error) {
	l.log(LogLevelWarn, operation, message, err)
}

// Error logs message with its cause. err may be nil.
func (l *Logger) Error(message string, err error) { l.log(LogLevelError, "", message, err) }
