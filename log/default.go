package log

import "os"

var defaultLogger = NewText(os.Stderr)

// Default returns the default logger.
func Default() *Logger {
	return defaultLogger
}

// Trace level message on the default logger.
func Trace(t any, msg string, v ...any) {
	defaultLogger.log(t, msg, LevelTrace, v...)
}

// Debug level message on the default logger.
func Debug(t any, msg string, v ...any) {
	defaultLogger.log(t, msg, LevelDebug, v...)
}

// Info level message on the default logger.
func Info(t any, msg string, v ...any) {
	defaultLogger.log(t, msg, LevelInfo, v...)
}

// Warn level message on the default logger.
func Warn(t any, msg string, v ...any) {
	defaultLogger.log(t, msg, LevelWarn, v...)
}

// Error level message on the default logger.
func Error(t any, msg string, v ...any) {
	defaultLogger.log(t, msg, LevelError, v...)
}

// Fatal level message on the default logger, followed by an exit.
func Fatal(t any, msg string, v ...any) {
	defaultLogger.log(t, msg, LevelFatal, v...)
}

// HasTrace returns if trace level is enabled.
func HasTrace() bool {
	return defaultLogger.level <= LevelTrace
}
