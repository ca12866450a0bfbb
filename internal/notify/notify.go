// Package notify surfaces search outcomes to the user: success, errors, warnings and info.
package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/nepaledu/edusearch/pkg/utils"
)

// Level is the severity of a notification.
type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// MarshalText encodes the level name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Color returns the display color: green, red, yellow or blue.
func (l Level) Color() color.Attribute {
	switch l {
	case Success:
		return color.FgGreen
	case Warning:
		return color.FgYellow
	case Error:
		return color.FgRed
	default:
		return color.FgBlue
	}
}

// Notifier delivers a message to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// Func adapts a function to Notifier.
type Func func(level Level, message string)

func (f Func) Notify(level Level, message string) { f(level, message) }

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(Level, string) {}

// Multi fans a notification out to every notifier.
func Multi(ns ...Notifier) Notifier {
	return Func(func(level Level, message string) {
		for _, n := range ns {
			if n != nil {
				n.Notify(level, message)
			}
		}
	})
}

// ConsoleNotifier prints one colored line per notification.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleNotifier writes to w. Color is disabled automatically when w is not a terminal.
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

func (c *ConsoleNotifier) Notify(level Level, message string) {
	tag := color.New(level.Color(), color.Bold).Sprintf("[%s]", strings.ToUpper(level.String()))
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s %s\n", tag, message)
}

// LogNotifier forwards notifications to a logger, errors at error level and the rest at info.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a LogNotifier; nil uses a no-op logger.
func NewLogNotifier(l *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: utils.NopIfNil(l)}
}

func (n *LogNotifier) Notify(level Level, message string) {
	fields := []zap.Field{zap.Stringer("level", level)}
	switch level {
	case Error:
		n.logger.Error(message, fields...)
	case Warning:
		n.logger.Warn(message, fields...)
	default:
		n.logger.Info(message, fields...)
	}
}
