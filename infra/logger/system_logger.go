package logger

import (
	"context"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
	LevelFatal LogLevel = "fatal"
)

var levelOrder = map[LogLevel]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
	LevelFatal: 4,
}

var logrusLevels = map[LogLevel]logrus.Level{
	LevelDebug: logrus.DebugLevel,
	LevelInfo:  logrus.InfoLevel,
	LevelWarn:  logrus.WarnLevel,
	LevelError: logrus.ErrorLevel,
	LevelFatal: logrus.FatalLevel,
}

// ParseLevel maps a level name to a LogLevel, falling back to info
func ParseLevel(name string) LogLevel {
	level := LogLevel(strings.ToLower(strings.TrimSpace(name)))
	if level == "warning" {
		return LevelWarn
	}
	if _, ok := levelOrder[level]; ok {
		return level
	}
	return LevelInfo
}

// SystemLog represents a structured system log entry
type SystemLog struct {
	Timestamp   time.Time      `json:"timestamp"`
	Level       LogLevel       `json:"level"`
	Message     string         `json:"message"`
	Component   string         `json:"component"`
	Function    string         `json:"function"`
	File        string         `json:"file"`
	Line        int            `json:"line"`
	Provider    string         `json:"provider,omitempty"`
	RequestID   string         `json:"request_id,omitempty"`
	Error       string         `json:"error,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
	Environment string         `json:"environment"`
	Service     string         `json:"service"`
	Version     string         `json:"version"`
}

// EventSink receives every log entry that passes the level filter
type EventSink interface {
	LogSystemEvent(ctx context.Context, entry any) error
}

// SystemLogger writes structured logs to the console through logrus and,
// optionally, to an EventSink such as OpenSearch.
type SystemLogger struct {
	console       *logrus.Logger
	sink          EventSink
	enableConsole bool
	enableSink    bool
	minLevel      LogLevel
	service       string
	version       string
	environment   string
}

// SystemLoggerConfig represents configuration for system logger
type SystemLoggerConfig struct {
	EnableConsole bool
	EnableSink    bool
	MinLevel      LogLevel
	Service       string
	Version       string
	Environment   string
	// JSON switches the console to logrus' JSON formatter
	JSON bool
	// Output defaults to stdout
	Output io.Writer
}

// NewSystemLogger creates a new system logger. sink may be nil.
func NewSystemLogger(sink EventSink, config SystemLoggerConfig) *SystemLogger {
	console := logrus.New()
	console.SetLevel(logrus.TraceLevel)
	if config.Output != nil {
		console.SetOutput(config.Output)
	} else {
		console.SetOutput(os.Stdout)
	}
	if config.JSON {
		console.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		console.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}

	minLevel := config.MinLevel
	if _, ok := levelOrder[minLevel]; !ok {
		minLevel = LevelInfo
	}

	return &SystemLogger{
		console:       console,
		sink:          sink,
		enableConsole: config.EnableConsole,
		enableSink:    config.EnableSink && sink != nil,
		minLevel:      minLevel,
		service:       config.Service,
		version:       config.Version,
		environment:   config.Environment,
	}
}

// LogContext holds contextual information for logging
type LogContext struct {
	Provider  string
	RequestID string
	Fields    map[string]any
}

// Debug logs a debug message
func (sl *SystemLogger) Debug(message string, ctx ...LogContext) {
	sl.log(LevelDebug, message, ctx...)
}

// Info logs an info message
func (sl *SystemLogger) Info(message string, ctx ...LogContext) {
	sl.log(LevelInfo, message, ctx...)
}

// Warn logs a warning message
func (sl *SystemLogger) Warn(message string, ctx ...LogContext) {
	sl.log(LevelWarn, message, ctx...)
}

// Error logs an error message
func (sl *SystemLogger) Error(message string, err error, ctx ...LogContext) {
	sl.log(LevelError, message, withError(err, ctx)...)
}

// Fatal logs a fatal message and exits
func (sl *SystemLogger) Fatal(message string, err error, ctx ...LogContext) {
	sl.log(LevelFatal, message, withError(err, ctx)...)
	os.Exit(1)
}

// withError copies the context so the caller's Fields map is left alone
func withError(err error, ctx []LogContext) []LogContext {
	logCtx := LogContext{}
	if len(ctx) > 0 {
		logCtx = ctx[0]
	}

	fields := make(map[string]any, len(logCtx.Fields)+1)
	for k, v := range logCtx.Fields {
		fields[k] = v
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	logCtx.Fields = fields
	return []LogContext{logCtx}
}

// log is the core logging function
func (sl *SystemLogger) log(level LogLevel, message string, ctx ...LogContext) {
	if !sl.shouldLog(level) {
		return
	}

	file, line, function := "unknown", 0, "unknown"
	if pc, f, l, ok := runtime.Caller(3); ok {
		file, line = f, l
		if fn := runtime.FuncForPC(pc); fn != nil {
			function = fn.Name()
			if idx := strings.LastIndex(function, "."); idx != -1 {
				function = function[idx+1:]
			}
		}
	}

	entry := SystemLog{
		Timestamp:   time.Now().UTC(),
		Level:       level,
		Message:     message,
		Component:   extractComponent(file),
		Function:    function,
		File:        file,
		Line:        line,
		Environment: sl.environment,
		Service:     sl.service,
		Version:     sl.version,
	}

	if len(ctx) > 0 {
		logCtx := ctx[0]
		entry.Provider = logCtx.Provider
		entry.RequestID = logCtx.RequestID
		entry.Fields = logCtx.Fields
		if errMsg, ok := logCtx.Fields["error"].(string); ok {
			entry.Error = errMsg
		}
	}

	if sl.enableConsole {
		sl.logToConsole(entry)
	}

	if sl.enableSink {
		go sl.logToSink(entry)
	}
}

func (sl *SystemLogger) shouldLog(level LogLevel) bool {
	return levelOrder[level] >= levelOrder[sl.minLevel]
}

// extractComponent turns a source path into "dir/subdir" relative to the
// module root, e.g. .../shurjopay/provider/shurjopay/token.go -> provider/shurjopay
func extractComponent(file string) string {
	parts := strings.Split(file, "/")

	for _, root := range []string{"provider", "infra", "handler", "router", "cmd"} {
		for i, part := range parts {
			if part == root && i+1 < len(parts) {
				if i+2 < len(parts) {
					return parts[i] + "/" + parts[i+1]
				}
				return parts[i]
			}
		}
	}

	if len(parts) >= 2 {
		return parts[len(parts)-2]
	}
	return "unknown"
}

func (sl *SystemLogger) logToConsole(entry SystemLog) {
	fields := logrus.Fields{
		"component": entry.Component,
	}
	if entry.Provider != "" {
		fields["provider"] = entry.Provider
	}
	if entry.RequestID != "" {
		fields["request_id"] = entry.RequestID
	}
	for key, value := range entry.Fields {
		fields[key] = value
	}

	sl.console.WithFields(fields).WithTime(entry.Timestamp).Log(logrusLevels[entry.Level], entry.Message)
}

func (sl *SystemLogger) logToSink(entry SystemLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sl.sink.LogSystemEvent(ctx, entry); err != nil {
		log.Printf("Failed to ship system log: %v", err)
	}
}

// WithContext creates a new logger with context
func (sl *SystemLogger) WithContext(ctx LogContext) *ContextLogger {
	return &ContextLogger{
		systemLogger: sl,
		context:      ctx,
	}
}

// ContextLogger wraps SystemLogger with context
type ContextLogger struct {
	systemLogger *SystemLogger
	context      LogContext
}

// Debug logs a debug message with context
func (cl *ContextLogger) Debug(message string) {
	cl.systemLogger.Debug(message, cl.context)
}

// Info logs an info message with context
func (cl *ContextLogger) Info(message string) {
	cl.systemLogger.Info(message, cl.context)
}

// Warn logs a warning message with context
func (cl *ContextLogger) Warn(message string) {
	cl.systemLogger.Warn(message, cl.context)
}

// Error logs an error message with context
func (cl *ContextLogger) Error(message string, err error) {
	cl.systemLogger.Error(message, err, cl.context)
}

// Fatal logs a fatal message with context and exits
func (cl *ContextLogger) Fatal(message string, err error) {
	cl.systemLogger.Fatal(message, err, cl.context)
}

// AddField adds a field to the context
func (cl *ContextLogger) AddField(key string, value any) *ContextLogger {
	if cl.context.Fields == nil {
		cl.context.Fields = make(map[string]any)
	}
	cl.context.Fields[key] = value
	return cl
}

// SetProvider sets the provider in context
func (cl *ContextLogger) SetProvider(provider string) *ContextLogger {
	cl.context.Provider = provider
	return cl
}

// SetRequestID sets the request ID in context
func (cl *ContextLogger) SetRequestID(requestID string) *ContextLogger {
	cl.context.RequestID = requestID
	return cl
}
