// Package log is the logging interface used throughout this module. It
// is a subset of logrus.FieldLogger, following the same shape as the
// teacher lineage's sql/log package.
package log

import "github.com/sirupsen/logrus"

type (
	// Logger is the logging interface used by the forward and backward
	// engines and the orchestrator.
	Logger interface {
		WithField(key string, value any) Logger
		WithFields(fields map[string]any) Logger
		WithError(err error) Logger
		Debug(args ...any)
		Info(args ...any)
		Warn(args ...any)
		Error(args ...any)
	}

	// Discard implements a Logger that does nothing.
	Discard struct{}
)

var _ Logger = Discard{}

func (Discard) WithField(string, any) Logger     { return Discard{} }
func (Discard) WithFields(map[string]any) Logger { return Discard{} }
func (Discard) WithError(error) Logger           { return Discard{} }
func (Discard) Debug(...any)                     {}
func (Discard) Info(...any)                      {}
func (Discard) Warn(...any)                      {}
func (Discard) Error(...any)                     {}

// Logrus adapts a logrus.FieldLogger to the Logger interface.
type Logrus struct{ logrus.FieldLogger }

var _ Logger = Logrus{}

func (x Logrus) WithField(key string, value any) Logger {
	return Logrus{FieldLogger: x.FieldLogger.WithField(key, value)}
}

func (x Logrus) WithFields(fields map[string]any) Logger {
	return Logrus{FieldLogger: x.FieldLogger.WithFields(fields)}
}

func (x Logrus) WithError(err error) Logger {
	return Logrus{FieldLogger: x.FieldLogger.WithError(err)}
}

// NewLogrus wraps a *logrus.Logger (or any logrus.FieldLogger, such as
// an *logrus.Entry) as a Logger.
func NewLogrus(l logrus.FieldLogger) Logger {
	return Logrus{FieldLogger: l}
}
