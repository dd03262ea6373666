package interfaces

import "context"

// Logger is what blog services log through. Its methods mirror go-logger's
// glog.Logger so the gologger provider only needs a thin adapter, while tests
// and embedders can plug in anything else.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// LoggerProvider returns the logger registered under a module name such as
// "blog.website".
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// FieldsLogger is implemented by loggers that carry structured fields.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}
