package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
)

// Level tags a log line for both terminal color and the JSON file record.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
	LevelFatal Level = "FATAL"
)

type entry struct {
	Time     string `json:"time"`
	Level    Level  `json:"level"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Logger writes colored lines to the terminal and JSON lines to a daily
// log file. A nil Logger is safe to call and logs nothing.
type Logger struct {
	file *os.File

	infoColor  *color.Color
	warnColor  *color.Color
	errorColor *color.Color
	fatalColor *color.Color
}

// New opens (or creates) logs/order-service-YYYY-MM-DD.log under dir and
// returns a logger writing to it alongside stdout.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	name := fmt.Sprintf("order-service-%s.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &Logger{
		file:       f,
		infoColor:  color.New(color.FgGreen),
		warnColor:  color.New(color.FgYellow),
		errorColor: color.New(color.FgRed),
		fatalColor: color.New(color.FgRed, color.Bold),
	}, nil
}

// Close releases the log file.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// log is the single sink behind the level methods. The nil check lives
// here so every exported method stays safe on a nil Logger.
func (l *Logger) log(level Level, category, message string) {
	if l == nil {
		return
	}
	var c *color.Color
	switch level {
	case LevelWarn:
		c = l.warnColor
	case LevelError:
		c = l.errorColor
	case LevelFatal:
		c = l.fatalColor
	default:
		c = l.infoColor
	}
	now := time.Now().Format(time.RFC3339)
	c.Printf("[%s] %-5s %s: %s\n", now, level, category, message)

	if l.file != nil {
		line, err := json.Marshal(entry{Time: now, Level: level, Category: category, Message: message})
		if err == nil {
			l.file.Write(append(line, '\n'))
		}
	}
}

func (l *Logger) Info(category, message string)  { l.log(LevelInfo, category, message) }
func (l *Logger) Warn(category, message string)  { l.log(LevelWarn, category, message) }
func (l *Logger) Error(category, message string) { l.log(LevelError, category, message) }

// Fatal logs and exits the process.
func (l *Logger) Fatal(category, message string) {
	l.log(LevelFatal, category, message)
	os.Exit(1)
}

// LogOrder records an order lifecycle step keyed by order id.
func (l *Logger) LogOrder(orderID, message string) {
	l.Info("ORDER", fmt.Sprintf("[%s] %s", orderID, message))
}

// LogPayment records a payment reconciliation step keyed by order id.
func (l *Logger) LogPayment(orderID, message string) {
	l.Info("PAYMENT", fmt.Sprintf("[%s] %s", orderID, message))
}

// LogAPI records a request outcome for a route.
func (l *Logger) LogAPI(method, path string, status int) {
	l.Info("API", fmt.Sprintf("%s %s -> %d", method, path, status))
}
