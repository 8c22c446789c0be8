package cli

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestCommandError(t *testing.T) {
	t.Run("implements error interface", func(t *testing.T) {
		err := NewCommandError(ExitFailed)
		assert.EqualError(t, err, "command failed")
	})

	t.Run("returns exit code", func(t *testing.T) {
		err := NewCommandError(42)
		assert.Equal(t, err.ExitCode(), 42)
	})

	t.Run("supports type assertion", func(t *testing.T) {
		var err error = NewCommandError(ExitUsage)
		cmdErr, ok := err.(*CommandError)
		assert.True(t, ok)
		assert.Equal(t, cmdErr.ExitCode(), 2)
	})
}
