package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harun/pairmerge/internal/logger"
	"github.com/harun/pairmerge/pkg/session"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Default prompts match a line ending in "...fromid...:" or "...toid...:"
// that is still the last output of the tool, i.e. an open input prompt.
const (
	DefaultFromPrompt = `(?i)fromid[^\n]*:[ \t]*$`
	DefaultToPrompt   = `(?i)toid[^\n]*:[ \t]*$`
)

// Config represents the main pairmerge configuration
type Config struct {
	// Input source of pairs
	Input InputConfig `json:"input" mapstructure:"input"`

	// Target tool launch settings
	Tool ToolConfig `json:"tool" mapstructure:"tool"`

	// Conversation protocol with the tool
	Protocol ProtocolConfig `json:"protocol" mapstructure:"protocol"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Metrics export
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
}

// InputConfig describes the delimited pairs file
type InputConfig struct {
	Path      string `json:"path" mapstructure:"path"`
	Delimiter string `json:"delimiter" mapstructure:"delimiter"`
	FromField string `json:"from_field" mapstructure:"from_field"`
	ToField   string `json:"to_field" mapstructure:"to_field"`
}

// ToolConfig describes how the target tool is launched
type ToolConfig struct {
	Command     string            `json:"command" mapstructure:"command"`
	Args        []string          `json:"args" mapstructure:"args"`
	ElevateWith []string          `json:"elevate_with" mapstructure:"elevate_with"`
	Transport   string            `json:"transport" mapstructure:"transport"` // pipe, pty
	Dir         string            `json:"dir" mapstructure:"dir"`
	Env         map[string]string `json:"env" mapstructure:"env"` // viper lower-cases the keys
}

// ProtocolConfig holds the output cues and timeouts of a turn
type ProtocolConfig struct {
	// FromPrompt signals that the tool is ready for a fromid. It is matched
	// against the unconsumed output, so anchor it to the end ($) to avoid
	// matching banner or help text. Empty disables the wait; a tool that never
	// prompts needs both prompts set to "".
	FromPrompt string `json:"from_prompt" mapstructure:"from_prompt"`

	// ToPrompt signals that the fromid was accepted. Empty falls back to InputDelay.
	ToPrompt string `json:"to_prompt" mapstructure:"to_prompt"`

	// ErrorMarkers are patterns that mark a failed merge
	ErrorMarkers []string `json:"error_markers" mapstructure:"error_markers"`

	// Sentinel is the line sent to stop the tool in pipe mode
	Sentinel string `json:"sentinel" mapstructure:"sentinel"`

	InputDelay  time.Duration `json:"input_delay" mapstructure:"input_delay"`
	TurnTimeout time.Duration `json:"turn_timeout" mapstructure:"turn_timeout"` // 0 disables
	ExitTimeout time.Duration `json:"exit_timeout" mapstructure:"exit_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `json:"level" mapstructure:"level"`
	File     string `json:"file" mapstructure:"file"`
	Console  bool   `json:"console" mapstructure:"console"`
	Pretty   bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize  int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge   int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress bool   `json:"compress" mapstructure:"compress"`
}

// MetricsConfig holds metrics export configuration
type MetricsConfig struct {
	// Textfile is written at the end of the run when set
	Textfile string `json:"textfile" mapstructure:"textfile"`
}

// DefaultConfig returns a config with default values for the Moodle
// mergeusers CLI
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Path:      "users_to_merge.csv",
			Delimiter: ";",
			FromField: "fromid",
			ToField:   "toid",
		},
		Tool: ToolConfig{
			Command:     "php",
			Args:        []string{"/var/www/html/moodle/admin/tool/mergeusers/cli/climerger.php"},
			ElevateWith: []string{"sudo"},
			Transport:   string(session.TransportPipe),
		},
		Protocol: ProtocolConfig{
			FromPrompt:   DefaultFromPrompt,
			ToPrompt:     DefaultToPrompt,
			ErrorMarkers: []string{`Error`, `Ошибка`},
			Sentinel:     session.DefaultSentinel,
			InputDelay:   time.Second,
			TurnTimeout:  2 * time.Minute,
			ExitTimeout:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			File:     "merge_users.log",
			Console:  true,
			Pretty:   true,
			MaxSize:  100,
			MaxAge:   30,
			Compress: true,
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// SessionSpec returns the launch spec of the target tool
func (c *Config) SessionSpec() session.Spec {
	return session.Spec{
		Command:     c.Tool.Command,
		Args:        c.Tool.Args,
		ElevateWith: c.Tool.ElevateWith,
		Dir:         c.Tool.Dir,
		Env:         c.Tool.Env,
		Transport:   session.Transport(c.Tool.Transport),
		Sentinel:    c.Protocol.Sentinel,
	}
}

// LoggerConfig returns the logger settings
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:    c.Logging.Level,
		File:     c.Logging.File,
		Console:  c.Logging.Console,
		Pretty:   c.Logging.Pretty,
		MaxSize:  c.Logging.MaxSize,
		MaxAge:   c.Logging.MaxAge,
		Compress: c.Logging.Compress,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	v := NewValidator()

	if c.Input.Path == "" {
		return fmt.Errorf("%w: input path is required", ErrInvalidConfig)
	}
	if err := v.ValidateDelimiter(c.Input.Delimiter); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Input.FromField == "" || c.Input.ToField == "" {
		return fmt.Errorf("%w: input field names are required", ErrInvalidConfig)
	}
	if c.Input.FromField == c.Input.ToField {
		return fmt.Errorf("%w: input field names must differ", ErrInvalidConfig)
	}

	if err := c.SessionSpec().Validate(); err != nil {
		return fmt.Errorf("%w: tool: %w", ErrInvalidConfig, err)
	}

	if err := v.ValidatePattern("from_prompt", c.Protocol.FromPrompt); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := v.ValidatePattern("to_prompt", c.Protocol.ToPrompt); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if len(c.Protocol.ErrorMarkers) == 0 {
		return fmt.Errorf("%w: at least one error marker is required", ErrInvalidConfig)
	}
	for i, marker := range c.Protocol.ErrorMarkers {
		if marker == "" {
			return fmt.Errorf("%w: error marker %d is empty", ErrInvalidConfig, i)
		}
		if err := v.ValidatePattern(fmt.Sprintf("error_markers[%d]", i), marker); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if err := v.ValidateSentinel(c.Protocol.Sentinel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Protocol.InputDelay < 0 {
		return fmt.Errorf("%w: input_delay must be >= 0", ErrInvalidConfig)
	}
	if c.Protocol.TurnTimeout < 0 {
		return fmt.Errorf("%w: turn_timeout must be >= 0", ErrInvalidConfig)
	}
	if c.Protocol.ExitTimeout <= 0 {
		return fmt.Errorf("%w: exit_timeout must be > 0", ErrInvalidConfig)
	}

	if err := v.ValidateLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Logging.MaxSize < 0 || c.Logging.MaxAge < 0 {
		return fmt.Errorf("%w: logging max_size and max_age must be >= 0", ErrInvalidConfig)
	}

	return nil
}
