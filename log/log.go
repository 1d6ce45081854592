// Package log provides a leveled global logger with structured messages.
// Output is drained by a background goroutine through a queue of up to
// 10000 lines, so the pipeline blocks on a slow terminal only once that
// queue is full; Close flushes everything still queued.
package log

import (
	stdlog "log"
	"os"
)

var global *Logger

// Init inits global logger.
func Init(level string, json bool) {
	global = New(level, json)
}

// Trace prints message in trace mode.
func Trace(msg Message) {
	global.printf(levelTrace, msg)
}

// Debug prints message in debug mode.
func Debug(msg Message) {
	global.printf(levelDebug, msg)
}

// Info prints message in info mode.
func Info(msg Message) {
	global.printf(levelInfo, msg)
}

// Error prints message in error mode.
func Error(msg Message) {
	global.printf(levelError, msg)
}

// Stat prints stat message regardless of the log level.
func Stat(msg Message) {
	global.print(msg)
}

// Close closes global logger and its channel.
func Close() {
	if global != nil {
		global.Close()
	}
}

// LogLevel is the level of Logger.
type LogLevel int

const (
	levelTrace LogLevel = iota
	levelDebug
	levelInfo
	levelError
)

// String returns the string representation of LogLevel.
func (l LogLevel) String() string {
	switch l {
	case levelTrace:
		return "TRACE"
	case levelDebug:
		return "DEBUG"
	case levelInfo:
		return ""
	case levelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LevelFromString returns the corresponding LogLevel of given string.
func LevelFromString(s string) LogLevel {
	switch s {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// output is the container that holds the log message.
type output struct {
	message string
}

// outputCh is used to synchronize writes to the standard output.
var outputCh = make(chan output, 10000)

// Logger is a structured logger that writes to the standard output.
type Logger struct {
	donech chan struct{}
	json   bool
	level  LogLevel
	impl   *stdlog.Logger
}

// New creates a new Logger.
func New(level string, json bool) *Logger {
	logger := &Logger{
		donech: make(chan struct{}),
		json:   json,
		level:  LevelFromString(level),
		impl:   stdlog.New(os.Stdout, "", 0),
	}
	go logger.out()
	return logger
}

// printf formats and prints the message if it passes the level check.
func (l *Logger) printf(level LogLevel, message Message) {
	if l == nil || level < l.level {
		return
	}

	if l.json {
		outputCh <- output{message: message.JSON()}
	} else if prefix := level.String(); prefix != "" {
		outputCh <- output{message: prefix + " " + message.String()}
	} else {
		outputCh <- output{message: message.String()}
	}
}

// print prints the message regardless of the log level.
func (l *Logger) print(message Message) {
	if l == nil {
		return
	}

	if l.json {
		outputCh <- output{message: message.JSON()}
	} else {
		outputCh <- output{message: message.String()}
	}
}

// out drains the output channel.
func (l *Logger) out() {
	defer close(l.donech)

	for output := range outputCh {
		l.impl.Println(output.message)
	}
}

// Close closes the output channel and waits for the drain to finish.
func (l *Logger) Close() {
	close(outputCh)
	<-l.donech
}
