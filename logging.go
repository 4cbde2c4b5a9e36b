package tinyhttpd

import "github.com/sirupsen/logrus"

// Logger is the minimal surface the core needs from a log backend, kept
// deliberately narrow so applications can supply any logrus.FieldLogger
// (including a *logrus.Entry carrying fields like remote-addr) or a nop
// implementation in tests. Grounded on nabbar-golib's logger/types split
// between interface and concrete hook implementations, trimmed down to
// just the three levels the core actually emits at.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NewLogrusLogger adapts a *logrus.Logger (or any logrus.FieldLogger) to
// Logger.
func NewLogrusLogger(l logrus.FieldLogger) Logger {
	return logrusLogger{l}
}

type logrusLogger struct {
	l logrus.FieldLogger
}

func (a logrusLogger) Debugf(format string, args ...interface{}) { a.l.Debugf(format, args...) }
func (a logrusLogger) Warnf(format string, args ...interface{})  { a.l.Warnf(format, args...) }
func (a logrusLogger) Errorf(format string, args ...interface{}) { a.l.Errorf(format, args...) }

// nopLogger discards everything; used as the zero-value default so
// Connection and Server never have to nil-check before logging.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// orNopLogger returns l, or a nopLogger if l is nil.
func orNopLogger(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}
