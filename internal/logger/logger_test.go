package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "info", config.Level)
	assert.Equal(t, "console", config.Format)
	assert.Equal(t, "stdout", config.Output)
	assert.Equal(t, time.RFC3339, config.TimeFormat)
	assert.True(t, config.Caller)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "nil config uses default",
			config:  nil,
			wantErr: false,
		},
		{
			name: "valid config",
			config: &Config{
				Level:      "debug",
				Format:     "json",
				Output:     "stdout",
				TimeFormat: time.RFC3339,
				Caller:     false,
			},
			wantErr: false,
		},
		{
			name: "invalid log level",
			config: &Config{
				Level:  "invalid",
				Format: "console",
				Output: "stdout",
			},
			wantErr: true,
		},
		{
			name: "invalid format",
			config: &Config{
				Level:  "info",
				Format: "invalid",
				Output: "stdout",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, logger)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, logger)

				if tt.config == nil {
					assert.Equal(t, "info", logger.config.Level)
				} else {
					assert.Equal(t, tt.config.Level, logger.config.Level)
				}
			}
		})
	}
}

func TestLogger_LogLevels(t *testing.T) {
	var buf bytes.Buffer

	config := &Config{
		Level:      "debug",
		Format:     "json",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
		Caller:     false,
	}

	originalLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(originalLevel)

	zl := zerolog.New(&buf).With().Timestamp().Logger()
	testLogger := &Logger{logger: zl, config: config}

	testLogger.Debug("debug message")
	testLogger.Info("info message")
	testLogger.Warn("warn message")
	testLogger.Error("error message")

	output := buf.String()
	assert.NotEmpty(t, output)
	assert.Contains(t, output, "debug message")
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")

	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		var logEntry map[string]interface{}
		err := json.Unmarshal([]byte(line), &logEntry)
		assert.NoError(t, err, "line %d should be valid JSON: %s", i, line)

		assert.Contains(t, logEntry, "time")
		assert.Contains(t, logEntry, "level")
		assert.Contains(t, logEntry, "message")
	}
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer

	config := &Config{
		Level:  "info",
		Format: "json",
		Output: "stdout",
		Caller: false,
	}

	zl := zerolog.New(&buf).With().Timestamp().Logger()
	testLogger := &Logger{logger: zl, config: config}

	testLogger.WithField("user_id", "12345").Msg("user action")

	output := buf.String()
	var logEntry map[string]interface{}
	err := json.Unmarshal([]byte(strings.TrimSpace(output)), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "12345", logEntry["user_id"])
	assert.Equal(t, "user action", logEntry["message"])
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer

	config := &Config{Level: "info", Format: "json", Output: "stdout", Caller: false}
	zl := zerolog.New(&buf).With().Timestamp().Logger()
	testLogger := &Logger{logger: zl, config: config}

	child := testLogger.WithComponent("engine")
	child.Info("step complete")

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &logEntry))
	assert.Equal(t, "engine", logEntry["component"])
}

func TestLogger_SetLevel(t *testing.T) {
	config := &Config{
		Level:  "info",
		Format: "console",
		Output: "stdout",
	}

	logger, err := New(config)
	require.NoError(t, err)

	err = logger.SetLevel("debug")
	assert.NoError(t, err)
	assert.Equal(t, "debug", logger.GetLevel())

	err = logger.SetLevel("invalid")
	assert.Error(t, err)
	assert.Equal(t, "debug", logger.GetLevel())
}

func TestGlobalLogger(t *testing.T) {
	originalLogger := globalLogger
	defer func() {
		globalLogger = originalLogger
	}()

	config := &Config{
		Level:  "debug",
		Format: "console",
		Output: "stdout",
	}

	err := InitGlobalLogger(config)
	assert.NoError(t, err)
	assert.NotNil(t, globalLogger)

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	Debugf("debug %s", "formatted")
	Infof("info %s", "formatted")
	Warnf("warn %s", "formatted")
	Errorf("error %s", "formatted")
}

func TestLogger_ErrorWithErr(t *testing.T) {
	var buf bytes.Buffer

	config := &Config{
		Level:  "error",
		Format: "json",
		Output: "stdout",
		Caller: false,
	}

	zl := zerolog.New(&buf).With().Timestamp().Logger()
	testLogger := &Logger{logger: zl, config: config}

	testErr := assert.AnError
	testLogger.ErrorWithErr(testErr, "operation failed")

	output := buf.String()
	var logEntry map[string]interface{}
	err := json.Unmarshal([]byte(strings.TrimSpace(output)), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "operation failed", logEntry["message"])
	assert.Equal(t, "error", logEntry["level"])
	assert.Contains(t, logEntry, "error")
}

func TestEnsureDir(t *testing.T) {
	tempDir := t.TempDir()
	testDir := filepath.Join(tempDir, "nested", "directory")

	err := ensureDir(testDir)
	assert.NoError(t, err)

	info, err := os.Stat(testDir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())

	err = ensureDir("")
	assert.NoError(t, err)
}
