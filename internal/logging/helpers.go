package logging

import "github.com/goliatone/go-cms-blog/pkg/interfaces"

// WithFields returns logger enriched with fields. Loggers without field
// support, and empty field sets, come back untouched. Nil values are dropped
// so optional fields such as a missing route do not clutter entries.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil {
		return nil
	}
	enricher, ok := logger.(interfaces.FieldsLogger)
	if !ok {
		return logger
	}
	kept := make(map[string]any, len(fields))
	for key, value := range fields {
		if value != nil {
			kept[key] = value
		}
	}
	if len(kept) == 0 {
		return logger
	}
	return enricher.WithFields(kept)
}
