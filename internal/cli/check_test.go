package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/pairmerge/pkg/pairsource"
)

func TestCheckCommand(t *testing.T) {
	t.Run("help text", func(t *testing.T) {
		output, err := executeCommand(t, "check", "--help")
		require.NoError(t, err)
		assert.Contains(t, output, "scan the input file without starting")
		assert.Equal(t, "Validate the configuration and input file", checkCmd.Short)
	})

	t.Run("counts accepted and skipped pairs", func(t *testing.T) {
		f := newFixture(t, "fromid;toid\n5;9\n5;9\n7;7\nx;2\n8;2\n")

		output, err := executeCommand(t, "check", "--config", f.config)
		require.NoError(t, err)

		assert.Contains(t, output, "Accepted: 2")
		assert.Contains(t, output, "Skipped: 3 (malformed: 1, self-merge: 1, duplicate: 1)")
		assert.Contains(t, output, `record 2: skipped (duplicate): "5" -> "9"`)
		assert.Contains(t, output, "Command: sh -c")
	})

	t.Run("missing header field", func(t *testing.T) {
		f := newFixture(t, "from;to\n1;2\n")

		_, err := executeCommand(t, "check", "--config", f.config)
		require.Error(t, err)
		assert.ErrorIs(t, err, pairsource.ErrMissingField)
	})

	t.Run("input flag", func(t *testing.T) {
		f := newFixture(t, "fromid;toid\n1;2\n")

		_, err := executeCommand(t, "check", "--config", f.config, "-i", filepath.Join(f.dir, "missing.csv"))
		assert.Error(t, err)
	})
}
