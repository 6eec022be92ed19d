package bus

import (
	"fmt"
	"log"
	"os"
)

// Logger is the logging surface used throughout the bus. The default
// implementation writes through the standard log package; callers can
// swap in their own via WithLogger.
type Logger interface {
	Error(args ...any)
	Errorf(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Debug(args ...any)
	Debugf(format string, args ...any)
}

type defaultLogger struct {
	errorLogger *log.Logger
	warnLogger  *log.Logger
	infoLogger  *log.Logger
	debugLogger *log.Logger
}

// NewDefaultLogger creates a Logger backed by the standard log
// package, one level per prefix.
func NewDefaultLogger() Logger {
	return &defaultLogger{
		errorLogger: log.New(os.Stderr, "[ERROR] ", log.LstdFlags|log.Lshortfile),
		warnLogger:  log.New(os.Stderr, "[WARN] ", log.LstdFlags|log.Lshortfile),
		infoLogger:  log.New(os.Stdout, "[INFO] ", log.LstdFlags|log.Lshortfile),
		debugLogger: log.New(os.Stdout, "[DEBUG] ", log.LstdFlags|log.Lshortfile),
	}
}

func (l *defaultLogger) Error(args ...any) { l.errorLogger.Output(3, fmt.Sprint(args...)) }

func (l *defaultLogger) Errorf(format string, args ...any) {
	l.errorLogger.Output(3, fmt.Sprintf(format, args...))
}

func (l *defaultLogger) Warn(args ...any) { l.warnLogger.Output(3, fmt.Sprint(args...)) }

func (l *defaultLogger) Warnf(format string, args ...any) {
	l.warnLogger.Output(3, fmt.Sprintf(format, args...))
}

func (l *defaultLogger) Info(args ...any) { l.infoLogger.Output(3, fmt.Sprint(args...)) }

func (l *defaultLogger) Infof(format string, args ...any) {
	l.infoLogger.Output(3, fmt.Sprintf(format, args...))
}

func (l *defaultLogger) Debug(args ...any) { l.debugLogger.Output(3, fmt.Sprint(args...)) }

func (l *defaultLogger) Debugf(format string, args ...any) {
	l.debugLogger.Output(3, fmt.Sprintf(format, args...))
}
