package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("test-component")
	require.NotNil(t, logger)
	assert.Equal(t, "test-component", logger.Data["component"])
	assert.Same(t, logger, NewLogger("test-component"))
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name    string
		config  FormatConfig
		fields  logrus.Fields
		want    []string
		notWant []string
	}{
		{
			name:   "default format",
			config: FormatConfig{},
			fields: logrus.Fields{"component": "store", "slice": "users"},
			want:   []string{"[INFO]", "store", "hello", "slice=users"},
		},
		{
			name:    "no component",
			config:  FormatConfig{DisableComponent: true},
			fields:  logrus.Fields{"component": "store"},
			want:    []string{"[INFO]", "hello"},
			notWant: []string{"store"},
		},
		{
			name:   "fields sorted",
			config: FormatConfig{DisableTimestamp: true},
			fields: logrus.Fields{"b": 2, "a": 1},
			want:   []string{"[INFO] hello a=1 b=2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := logrus.New()
			logger.SetOutput(&buf)
			logger.SetFormatter(&TextFormatter{Config: tt.config})

			logger.WithFields(tt.fields).Info("hello")

			output := buf.String()
			for _, w := range tt.want {
				assert.Contains(t, output, w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, output, nw)
			}
		})
	}
}

func TestTextFormatterWarnLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&TextFormatter{Config: FormatConfig{DisableTimestamp: true}})

	logger.Warn("careful")

	assert.True(t, strings.HasPrefix(buf.String(), "[WARN] careful"))
}

func TestNewLoggerLevelFromEnv(t *testing.T) {
	t.Setenv("SEQRKIT_LOG_LEVEL", "debug")

	logger := newLogger(Config{Level: "error"}, os.Stderr)

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNewLoggerFileSink(t *testing.T) {
	t.Setenv("SEQRKIT_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "logs", "seqrkit.log")

	logger := newLogger(Config{
		Level:  "info",
		File:   FileSinkConfig{Enabled: true, Path: path},
		Format: FormatConfig{Preset: "json", StructuredToStderr: "never"},
	}, os.Stderr)
	logger.WithField("component", "test").Info("written")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"written"`)
}

func TestShouldLogToStderr(t *testing.T) {
	t.Setenv("SEQRKIT_DEBUG", "")

	assert.True(t, shouldLogToStderr("always", logrus.InfoLevel, os.Stderr))
	assert.False(t, shouldLogToStderr("never", logrus.DebugLevel, os.Stderr))
	assert.True(t, shouldLogToStderr("auto", logrus.DebugLevel, os.Stderr))
}
