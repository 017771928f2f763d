package app

import (
	"encoding/json"
	"io"
	"time"
)

// Logger writes JSON lines to the given writer. The TUI owns the
// terminal, so log output goes to a file or stderr, never stdout.
type Logger struct {
	out io.Writer
}

type LogEvent struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func NewLogger(out io.Writer) *Logger {
	return &Logger{out: out}
}

func (l *Logger) Info(message string, fields map[string]interface{}) {
	l.write("info", message, fields)
}

func (l *Logger) Warn(message string, fields map[string]interface{}) {
	l.write("warn", message, fields)
}

func (l *Logger) Error(message string, fields map[string]interface{}) {
	l.write("error", message, fields)
}

func (l *Logger) write(level, message string, fields map[string]interface{}) {
	if l == nil || l.out == nil {
		return
	}
	evt := LogEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Message:   message,
		Fields:    fields,
	}
	payload, _ := json.Marshal(evt)
	payload = append(payload, '\n')
	_, _ = l.out.Write(payload)
}
