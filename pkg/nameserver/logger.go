package nameserver

// Logger is the logging interface used across the engine. It is out of the box
// compatible with `log.Log` in `github.com/apex/log`.
type Logger interface {
	// Debug emits a debug message.
	Debug(msg string)

	// Debugf formats and emits a debug message.
	Debugf(format string, v ...interface{})

	// Info emits an informational message.
	Info(msg string)

	// Infof formats and emits an informational message.
	Infof(format string, v ...interface{})

	// Warn emits a warning message.
	Warn(msg string)

	// Warnf formats and emits a warning message.
	Warnf(format string, v ...interface{})
}

// DiscardLogger is the default logger that discards its input.
var DiscardLogger Logger = logDiscarder{}

type logDiscarder struct{}

func (logDiscarder) Debug(string) {}

func (logDiscarder) Debugf(string, ...interface{}) {}

func (logDiscarder) Info(string) {}

func (logDiscarder) Infof(string, ...interface{}) {}

func (logDiscarder) Warn(string) {}

func (logDiscarder) Warnf(string, ...interface{}) {}
