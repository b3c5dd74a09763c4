package config

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateDelimiter requires a single character
func (v *Validator) ValidateDelimiter(delim string) error {
	if utf8.RuneCountInString(delim) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", delim)
	}
	if delim == "\n" || delim == "\r" || delim == `"` {
		return fmt.Errorf("delimiter %q is not allowed", delim)
	}
	return nil
}

// ValidatePattern checks that a regular expression compiles. Empty is allowed.
func (v *Validator) ValidatePattern(name, pattern string) error {
	if pattern == "" {
		return nil
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("%s: invalid pattern: %w", name, err)
	}
	return nil
}

// ValidateSentinel checks the termination line
func (v *Validator) ValidateSentinel(sentinel string) error {
	if sentinel == "" {
		return fmt.Errorf("sentinel cannot be empty")
	}
	if strings.ContainsAny(sentinel, "\r\n") {
		return fmt.Errorf("sentinel must be a single line")
	}
	return nil
}

// ValidateLogLevel checks a zerolog level name
func (v *Validator) ValidateLogLevel(level string) error {
	if level == "" {
		return nil
	}
	if _, err := zerolog.ParseLevel(level); err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	return nil
}
