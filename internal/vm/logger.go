package vm

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package-wide logger, a no-op sink until SetLogger
// installs a real one.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger installs l as the package-wide logger. Call before Invoke; not
// safe to call concurrently with a running interpreter.
func SetLogger(l *zap.Logger) {
	loggerOnce.Do(func() {})
	logger = l
}

var debug = false

func debugf(format string, args ...any) {
	if debug {
		Logger().Sugar().Debugf(format, args...)
	}
}
