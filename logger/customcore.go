// customcore.go
package logger

import (
	"go.uber.org/zap/zapcore"
)

// trailingFieldKeys are written after every other field so that per-call
// context such as scope and url reads first.
var trailingFieldKeys = []string{"app_id", "sdk_version"}

// customCore wraps a zapcore.Core and moves the client identity fields to the
// end of each entry.
type customCore struct {
	zapcore.Core
}

// With adds structured context to the Core.
func (c *customCore) With(fields []zapcore.Field) zapcore.Core {
	return &customCore{c.Core.With(fields)}
}

// Write reorders fields so the trailing keys come last, then delegates.
func (c *customCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(entry, reorderFields(fields))
}

// Check determines whether the supplied Entry should be logged.
func (c *customCore) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checkedEntry.AddCore(entry, c)
	}
	return checkedEntry
}

// Sync flushes buffered logs (if any).
func (c *customCore) Sync() error {
	return c.Core.Sync()
}

func reorderFields(fields []zapcore.Field) []zapcore.Field {
	reordered := make([]zapcore.Field, 0, len(fields))
	trailing := make([]zapcore.Field, 0, len(trailingFieldKeys))

	for _, field := range fields {
		if isTrailingKey(field.Key) {
			trailing = append(trailing, field)
			continue
		}
		reordered = append(reordered, field)
	}

	for _, key := range trailingFieldKeys {
		for _, field := range trailing {
			if field.Key == key {
				reordered = append(reordered, field)
			}
		}
	}
	return reordered
}

func isTrailingKey(key string) bool {
	for _, k := range trailingFieldKeys {
		if k == key {
			return true
		}
	}
	return false
}
