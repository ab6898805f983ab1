package logger

import (
	"bytes"
	"context"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("Should return logger stored in context", func(t *testing.T) {
		expected := NewLogger(&Config{Level: DebugLevel, Output: &bytes.Buffer{}})
		ctx := ContextWithLogger(context.Background(), expected)

		assert.Equal(t, expected, FromContext(ctx))
	})

	t.Run("Should fall back to default logger", func(t *testing.T) {
		l := FromContext(context.Background())
		require.NotNil(t, l)
		assert.Equal(t, defaultLogger, l)
	})
}

func TestLogLevel_ToCharmlogLevel(t *testing.T) {
	cases := map[LogLevel]charmlog.Level{
		DebugLevel:          charmlog.DebugLevel,
		InfoLevel:           charmlog.InfoLevel,
		WarnLevel:           charmlog.WarnLevel,
		ErrorLevel:          charmlog.ErrorLevel,
		LogLevel("verbose"): charmlog.InfoLevel,
	}
	for level, want := range cases {
		assert.Equal(t, want, level.ToCharmlogLevel(), "level %q", level)
	}
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: WarnLevel, Output: &buf})

	l.Info("hidden")
	l.Warn("shown", "split", "train")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "split=train")
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: InfoLevel, Output: &buf, JSON: true})

	l.Info("uploaded", "records", 3)

	assert.Contains(t, buf.String(), `"msg":"uploaded"`)
	assert.Contains(t, buf.String(), `"records":3`)
}
