// Package logging provides the structured logger used throughout rotera.
//
// It is a deliberately small subset of go.viam.com/rdk/logging: a single
// process library has no fleet of remote parts to aggregate logs from, so
// the registry, pattern-based level updates, and network/Windows-event-log
// appenders are dropped. What remains is the part every package actually
// calls: a Logger interface backed by zap, with sublogger/With support and
// a test-friendly constructor.
package logging

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level is a logging severity, ordered least to most severe.
type Level int

// Supported severities.
const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "Debug"
	case INFO:
		return "Info"
	case WARN:
		return "Warn"
	case ERROR:
		return "Error"
	default:
		return "Unknown"
	}
}

// LevelFromString parses a case-insensitive level name, accepting "warning"
// as a synonym for "warn" since that spelling shows up in operator-facing
// config.
func LevelFromString(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// MarshalJSON implements json.Marshaler.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := LevelFromString(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Logger is the structured logging interface used across the module. It
// matches the subset of go.viam.com/rdk/logging.Logger that rotera's
// packages exercise.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Sublogger returns a child logger whose name is "<parent>.<name>".
	Sublogger(name string) Logger
	// With returns a logger that attaches the given key/value pairs to
	// every subsequent log line.
	With(keysAndValues ...interface{}) Logger

	Level() Level
	SetLevel(Level)
	Name() string
}
