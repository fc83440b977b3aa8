// Package logger implements observability.Logger on top of a plain
// io.Writer, so the same implementation serves console and logfile output.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/midir99/backupmpps/internal/observability"
)

// Level filters which entries are emitted.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level. Unknown values mean info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger writes structured entries as text or JSON lines.
type Logger struct {
	fields observability.Fields
	out    *log.Logger
	level  Level
	json   bool
}

// Option customizes a Logger.
type Option func(*Logger)

// WithJSON switches output to one JSON object per line.
func WithJSON() Option {
	return func(l *Logger) { l.json = true }
}

// WithLevel sets the minimum emitted level.
func WithLevel(level Level) Option {
	return func(l *Logger) { l.level = level }
}

// New creates a Logger writing to w. Pass os.Stdout for console logging or
// an opened logfile.
func New(w io.Writer, opts ...Option) *Logger {
	l := &Logger{
		fields: observability.Fields{},
		out:    log.New(w, "", 0),
		level:  LevelInfo,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewStdout creates a Logger writing to standard output.
func NewStdout(opts ...Option) *Logger {
	return New(os.Stdout, opts...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields observability.Fields) {
	l.log(LevelInfo, "INFO", msg, nil, fields)
}

func (l *Logger) Error(ctx context.Context, msg string, err error, fields observability.Fields) {
	l.log(LevelError, "ERROR", msg, err, fields)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields observability.Fields) {
	l.log(LevelWarn, "WARN", msg, nil, fields)
}

func (l *Logger) Debug(ctx context.Context, msg string, fields observability.Fields) {
	l.log(LevelDebug, "DEBUG", msg, nil, fields)
}

// WithFields returns a Logger that stamps the given fields on every entry.
func (l *Logger) WithFields(fields observability.Fields) observability.Logger {
	merged := make(observability.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{
		fields: merged,
		out:    l.out,
		level:  l.level,
		json:   l.json,
	}
}

func (l *Logger) log(level Level, label, msg string, err error, fields observability.Fields) {
	if level < l.level {
		return
	}
	entry := make(map[string]interface{}, len(l.fields)+len(fields)+4)
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	entry["level"] = label
	entry["message"] = msg
	for k, v := range l.fields {
		entry[k] = v
	}
	for k, v := range fields {
		entry[k] = v
	}
	if err != nil {
		entry["error"] = err.Error()
	}
	if l.json {
		l.logJSON(entry)
	} else {
		l.logText(entry)
	}
}

func (l *Logger) logJSON(entry map[string]interface{}) {
	b, err := json.Marshal(entry)
	if err != nil {
		l.out.Printf("failed to marshal log entry: %v", err)
		return
	}
	l.out.Println(string(b))
}

func (l *Logger) logText(entry map[string]interface{}) {
	timestamp := entry["timestamp"]
	level := entry["level"]
	message := entry["message"]
	delete(entry, "timestamp")
	delete(entry, "level")
	delete(entry, "message")

	keys := make([]string, 0, len(entry))
	for k := range entry {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	line := fmt.Sprintf("%s [%s] %s", timestamp, level, message)
	if len(keys) > 0 {
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, entry[k]))
		}
		line += " | " + strings.Join(pairs, " ")
	}
	l.out.Println(line)
}
