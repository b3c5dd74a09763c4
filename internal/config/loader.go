package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. PAIRMERGE_TOOL_TRANSPORT
const EnvPrefix = "PAIRMERGE"

// ErrConfigNotFound is returned when an explicitly named config file is missing
var ErrConfigNotFound = errors.New("config file not found")

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load loads the configuration from file and environment. When no path was
// given and the default file is missing, the defaults apply with environment
// overrides. A missing explicit path is an error.
func (l *Loader) Load() (*Config, error) {
	configPath := l.GetConfigPath()

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		_, err := os.Stat(configPath)
		switch {
		case err == nil:
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		case l.configPath != "":
			// Only the implicit default location may be absent.
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to the config path; the format follows the file extension
func (l *Loader) Save(cfg *Config) error {
	configPath := l.GetConfigPath()
	if configPath == "" {
		return fmt.Errorf("failed to determine config path")
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	setDefaults(v, cfg)

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pairmerge", "pairmerge.json")
}

// setDefaults registers every key so environment overrides apply even when
// the key is absent from the file
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("input.path", cfg.Input.Path)
	v.SetDefault("input.delimiter", cfg.Input.Delimiter)
	v.SetDefault("input.from_field", cfg.Input.FromField)
	v.SetDefault("input.to_field", cfg.Input.ToField)

	v.SetDefault("tool.command", cfg.Tool.Command)
	v.SetDefault("tool.args", cfg.Tool.Args)
	v.SetDefault("tool.elevate_with", cfg.Tool.ElevateWith)
	v.SetDefault("tool.transport", cfg.Tool.Transport)
	v.SetDefault("tool.dir", cfg.Tool.Dir)
	v.SetDefault("tool.env", cfg.Tool.Env)

	v.SetDefault("protocol.from_prompt", cfg.Protocol.FromPrompt)
	v.SetDefault("protocol.to_prompt", cfg.Protocol.ToPrompt)
	v.SetDefault("protocol.error_markers", cfg.Protocol.ErrorMarkers)
	v.SetDefault("protocol.sentinel", cfg.Protocol.Sentinel)
	v.SetDefault("protocol.input_delay", cfg.Protocol.InputDelay.String())
	v.SetDefault("protocol.turn_timeout", cfg.Protocol.TurnTimeout.String())
	v.SetDefault("protocol.exit_timeout", cfg.Protocol.ExitTimeout.String())

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.console", cfg.Logging.Console)
	v.SetDefault("logging.pretty", cfg.Logging.Pretty)
	v.SetDefault("logging.max_size", cfg.Logging.MaxSize)
	v.SetDefault("logging.max_age", cfg.Logging.MaxAge)
	v.SetDefault("logging.compress", cfg.Logging.Compress)

	v.SetDefault("metrics.textfile", cfg.Metrics.Textfile)
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	loader := NewLoader(configPath)
	return loader.Load()
}
