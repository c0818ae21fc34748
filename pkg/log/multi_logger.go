package log

// Logger receives codec trace events. Implementations must be safe for
// concurrent use; nil or NoopLogger disables tracing.
type Logger interface {
	Log(event Event)
}

// NoopLogger discards all events.
type NoopLogger struct{}

func (NoopLogger) Log(Event) {}

// MultiLogger sends events to several loggers, e.g. a FileLogger and a
// SlogAdapter.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger returns a MultiLogger for loggers. Nil loggers are
// skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// Log sends the event to every logger in order.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

// Len returns the number of loggers.
func (m *MultiLogger) Len() int { return len(m.loggers) }

var _ Logger = (*MultiLogger)(nil)
