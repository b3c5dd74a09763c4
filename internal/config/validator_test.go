package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDelimiter(t *testing.T) {
	v := NewValidator()

	t.Run("semicolon", func(t *testing.T) {
		assert.NoError(t, v.ValidateDelimiter(";"))
	})

	t.Run("multibyte rune", func(t *testing.T) {
		assert.NoError(t, v.ValidateDelimiter("§"))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Error(t, v.ValidateDelimiter(""))
	})

	t.Run("two characters", func(t *testing.T) {
		assert.Error(t, v.ValidateDelimiter(";;"))
	})

	t.Run("quote", func(t *testing.T) {
		assert.Error(t, v.ValidateDelimiter(`"`))
	})
}

func TestValidatePattern(t *testing.T) {
	v := NewValidator()

	t.Run("empty is allowed", func(t *testing.T) {
		assert.NoError(t, v.ValidatePattern("to_prompt", ""))
	})

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, v.ValidatePattern("to_prompt", `(?i)toid`))
	})

	t.Run("invalid", func(t *testing.T) {
		err := v.ValidatePattern("to_prompt", `(unclosed`)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "to_prompt")
	})
}

func TestValidateSentinel(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateSentinel("-1"))
	assert.Error(t, v.ValidateSentinel(""))
	assert.Error(t, v.ValidateSentinel("-1\n-1"))
}

func TestValidateLogLevel(t *testing.T) {
	v := NewValidator()

	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		assert.NoError(t, v.ValidateLogLevel(level), level)
	}
	assert.Error(t, v.ValidateLogLevel("verbose"))
}
