// customcore_test.go
package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldKeys(fields []zapcore.Field) []string {
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	return keys
}

func TestReorderFields(t *testing.T) {
	fields := []zapcore.Field{
		zap.String("sdk_version", "1.0.0"),
		zap.String("url", "/open-apis/im/v1/messages"),
		zap.String("app_id", "cli_a"),
		zap.Int("attempt", 1),
	}

	assert.Equal(t, []string{"url", "attempt", "app_id", "sdk_version"}, fieldKeys(reorderFields(fields)))
}

func TestReorderFieldsWithoutTrailingKeys(t *testing.T) {
	fields := []zapcore.Field{zap.String("url", "/x"), zap.Int("attempt", 1)}

	assert.Equal(t, []string{"url", "attempt"}, fieldKeys(reorderFields(fields)))
}

func TestCustomCoreWritesThroughReorder(t *testing.T) {
	inner, logs := observer.New(zap.DebugLevel)
	z := zap.New(&customCore{inner})

	z.Info("request", zap.String("app_id", "cli_a"), zap.String("method", "GET"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"method", "app_id"}, fieldKeys(entries[0].Context))
}

func TestCustomCoreWithKeepsWrapper(t *testing.T) {
	inner, logs := observer.New(zap.DebugLevel)
	core := &customCore{inner}

	withCore := core.With([]zapcore.Field{zap.String("sdk_version", "1.0.0")})
	assert.IsType(t, &customCore{}, withCore)

	zap.New(withCore).Warn("retry", zap.Int("attempt", 2))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "retry", logs.All()[0].Message)
}

func TestCustomCoreRespectsLevel(t *testing.T) {
	inner, logs := observer.New(zap.WarnLevel)
	z := zap.New(&customCore{inner})

	z.Debug("hidden")
	z.Info("hidden")
	z.Warn("shown")

	assert.Equal(t, 1, logs.Len())
}
