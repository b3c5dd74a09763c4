package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("create logger with console output", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := Config{
			Level:   "info",
			Console: true,
			Pretty:  false,
			Out:     &buf,
		}

		logger, err := New(cfg)
		require.NoError(t, err)
		defer logger.Close()

		log := logger.With().Logger()
		log.Info().Str("pair", "5->9").Msg("console message")

		assert.Contains(t, buf.String(), `"message":"console message"`)
		assert.Contains(t, buf.String(), `"level":"info"`)
		assert.Contains(t, buf.String(), `"time":`)
	})

	t.Run("create logger with file output", func(t *testing.T) {
		tmpDir := t.TempDir()
		logFile := filepath.Join(tmpDir, "test.log")

		cfg := Config{
			Level:   "debug",
			File:    logFile,
			Console: false,
		}

		logger, err := New(cfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)

		log := logger.With().Logger()
		log.Debug().Msg("test message")

		require.NoError(t, logger.Close())

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "test message")
	})

	t.Run("mirror to console and file", func(t *testing.T) {
		tmpDir := t.TempDir()
		logFile := filepath.Join(tmpDir, "logs", "merge.log")
		var buf bytes.Buffer

		cfg := Config{
			Level:   "info",
			File:    logFile,
			Console: true,
			Pretty:  true,
			MaxSize: 1,
			Out:     &buf,
		}

		logger, err := New(cfg)
		require.NoError(t, err)

		log := logger.With().Logger()
		log.Warn().Msg("mirrored message")
		require.NoError(t, logger.Close())

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "mirrored message")
		assert.Contains(t, buf.String(), "mirrored message")
		assert.Contains(t, buf.String(), "WRN")
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		logger, err := New(Config{Level: "loud"})
		require.NoError(t, err)
		defer logger.Close()

		log := logger.With().Logger()
		assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{Level: "warn", Console: true, Out: &buf})
		require.NoError(t, err)
		defer logger.Close()

		log := logger.With().Logger()
		log.Info().Msg("hidden")
		log.Warn().Msg("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("unwritable log directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		blocker := filepath.Join(tmpDir, "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0644))

		_, err := New(Config{File: filepath.Join(blocker, "sub", "x.log")})
		assert.Error(t, err)
	})
}

func TestClose(t *testing.T) {
	t.Run("console only", func(t *testing.T) {
		logger, err := New(Config{Level: "info", Console: true, Out: &bytes.Buffer{}})
		require.NoError(t, err)
		assert.NoError(t, logger.Close())
	})

	t.Run("discard", func(t *testing.T) {
		logger, err := New(Config{})
		require.NoError(t, err)
		log := logger.With().Logger()
		log.Info().Msg("discarded")
		assert.NoError(t, logger.Close())
	})
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Console: true, Out: &buf})
	require.NoError(t, err)
	defer logger.Close()

	child := logger.With().Str("run_id", "abc").Logger()
	child.Info().Msg("child message")

	assert.Contains(t, buf.String(), `"run_id":"abc"`)
}
