package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// BoltAdapter implements Logger on top of a *bolt.Logger. Key/value
// arguments are mapped onto typed bolt fields where possible.
type BoltAdapter struct {
	logger *bolt.Logger
}

// NewBoltAdapter wraps an existing bolt logger.
func NewBoltAdapter(logger *bolt.Logger) *BoltAdapter {
	return &BoltAdapter{logger: logger}
}

// NewBoltLogger builds a bolt-backed Logger writing to w. Format is "json" or
// "console"; a nil writer means stdout.
func NewBoltLogger(w io.Writer, format string, level LogLevel) *BoltAdapter {
	if w == nil {
		w = os.Stdout
	}

	var handler bolt.Handler
	if format == "json" {
		handler = bolt.NewJSONHandler(w)
	} else {
		handler = bolt.NewConsoleHandler(w)
	}

	return NewBoltAdapter(bolt.New(handler).SetLevel(boltLevel(level)))
}

func boltLevel(l LogLevel) bolt.Level {
	switch l {
	case LogLevelDebug:
		return bolt.DEBUG
	case LogLevelWarn:
		return bolt.WARN
	case LogLevelError:
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}

// Debug logs a debug message.
func (b *BoltAdapter) Debug(msg string, args ...any) { withFields(b.logger.Debug(), args).Msg(msg) }

// Info logs an informational message.
func (b *BoltAdapter) Info(msg string, args ...any) { withFields(b.logger.Info(), args).Msg(msg) }

// Warn logs a warning message.
func (b *BoltAdapter) Warn(msg string, args ...any) { withFields(b.logger.Warn(), args).Msg(msg) }

// Error logs an error message.
func (b *BoltAdapter) Error(msg string, args ...any) { withFields(b.logger.Error(), args).Msg(msg) }

func withFields(e *bolt.Event, args []any) *bolt.Event {
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 >= len(args) {
			e = e.Str("!BADKEY", key)
			break
		}
		switch v := args[i+1].(type) {
		case string:
			e = e.Str(key, v)
		case int:
			e = e.Int(key, v)
		case int64:
			e = e.Int64(key, v)
		case bool:
			e = e.Bool(key, v)
		case time.Duration:
			e = e.Int64(key+"_ms", v.Milliseconds())
		case error:
			if v != nil {
				e = e.Str(key, v.Error())
			}
		case fmt.Stringer:
			e = e.Str(key, v.String())
		default:
			e = e.Str(key, fmt.Sprint(v))
		}
	}
	return e
}
