package concurrency

import (
	"fmt"
	"log"
	"os"
)

// simpleLogger keeps this package free of a dependency on the bus
// logger; only errors are ever logged here.
type simpleLogger interface {
	Errorf(format string, args ...any)
}

type defaultSimpleLogger struct {
	logger *log.Logger
}

func newDefaultSimpleLogger() simpleLogger {
	return &defaultSimpleLogger{
		logger: log.New(os.Stderr, "[ERROR] ", log.LstdFlags|log.Lshortfile),
	}
}

func (l *defaultSimpleLogger) Errorf(format string, args ...any) {
	l.logger.Output(3, fmt.Sprintf(format, args...))
}
