package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/pairmerge/internal/config"
)

func TestConfigInitCommand(t *testing.T) {
	t.Run("writes defaults that load back", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "conf", "pairmerge.json")

		output, err := executeCommand(t, "config", "init", "--config", path)
		require.NoError(t, err)
		assert.Contains(t, output, "Configuration saved to: "+path)
		require.FileExists(t, path)

		cfg, err := config.Load(path)
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		defaults := config.DefaultConfig()
		assert.Equal(t, defaults.Input, cfg.Input)
		assert.Equal(t, defaults.Protocol, cfg.Protocol)
		assert.Equal(t, defaults.Tool.Command, cfg.Tool.Command)
		assert.Equal(t, defaults.Tool.Transport, cfg.Tool.Transport)
		assert.Equal(t, defaults.Logging.Level, cfg.Logging.Level)
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pairmerge.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"tool":{"command":"mine"}}`), 0644))

		_, err := executeCommand(t, "config", "init", "--config", path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfigExists)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "mine")
	})

	t.Run("force overwrites", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pairmerge.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"tool":{"command":"mine"}}`), 0644))

		_, err := executeCommand(t, "config", "init", "--config", path, "--force")
		require.NoError(t, err)

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, config.DefaultConfig().Tool.Command, cfg.Tool.Command)
	})

	t.Run("default location", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		_, err := executeCommand(t, "config", "init")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(home, ".pairmerge", "pairmerge.json"))
	})
}
