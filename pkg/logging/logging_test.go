package logging_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/logging"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, logging.Default(), logging.FromContext(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Equal(t, logging.Default(), logging.FromContext(nil))
}

func TestContextFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	ctx = logging.WithSession(ctx, "sess-1")
	ctx = logging.WithCategory(ctx, "TU")
	ctx = logging.WithOperation(ctx, "analyze")
	ctx = logging.WithRequestID(ctx, "req-7")

	logging.FromContext(ctx).Info().Msg("Recording choice")

	tl.AssertContains(t, `"session_id":"sess-1"`)
	tl.AssertContains(t, `"category":"TU"`)
	tl.AssertContains(t, `"operation":"analyze"`)
	tl.AssertContains(t, `"request_id":"req-7"`)
	assert.Equal(t, "req-7", logging.RequestID(ctx))
	assert.Equal(t, 1, tl.Count())
}

func TestWithError(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	assert.Equal(t, ctx, logging.WithError(ctx, nil))

	ctx = logging.WithError(ctx, errors.New("backend down"))
	logging.Ctx(ctx).Error().Msg("Analysis failed")
	tl.AssertContains(t, "backend down")
}

func TestWithFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithFields(ctx, map[string]any{
		"pending": 3,
		"ready":   false,
	})
	logging.FromContext(ctx).Debug().Msg("state")

	tl.AssertContains(t, `"pending":3`)
	tl.AssertContains(t, `"ready":false`)
}

func TestNewLoggerFromConfig(t *testing.T) {
	original := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(original) })

	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{"debug", "debug", zerolog.DebugLevel},
		{"warning alias", "warning", zerolog.WarnLevel},
		{"off", "off", zerolog.Disabled},
		{"unknown falls back to info", "loud", zerolog.InfoLevel},
		{"empty falls back to info", "", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := logging.NewLoggerFromConfig(&logging.Config{
				Level:  tt.level,
				Format: "json",
				Output: "discard",
			})
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_OUTPUT", "")
	t.Setenv("LOG_FIELDS", "component=server, env = test,broken")

	cfg := logging.DefaultConfig().ApplyEnv()
	require.NotNil(t, cfg)
	assert.Equal(t, "error", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.Equal(t, map[string]string{"component": "server", "env": "test"}, cfg.Fields)
}

func TestConfigFieldsTagEveryEvent(t *testing.T) {
	original := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(original) })

	path := filepath.Join(t.TempDir(), "obrabotka.log")
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Format: "json",
		Output: path,
		Fields: map[string]string{"component": "server"},
	})
	logger.Info().Msg("started")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"server"`)
	assert.Contains(t, string(data), `"message":"started"`)
}

func TestCaptureLoggingForTest(t *testing.T) {
	tl := logging.CaptureLoggingForTest(t)
	logging.Warn().Str("category", "IV").Msg("invalid choice")

	tl.AssertContains(t, "invalid choice")
	tl.Clear()
	assert.Equal(t, 0, tl.Count())
}
