package decisionForest

// Logger receives progress messages while forests are trained.
type Logger interface {
	Logf(format string, a ...interface{})
}

// LoggerFunc adapts a printf-like function to the Logger interface.
type LoggerFunc func(format string, a ...interface{})

func (lf LoggerFunc) Logf(format string, a ...interface{}) {
	lf(format, a...)
}

type nopLogger struct{}

func (nopLogger) Logf(string, ...interface{}) {}
