//go:build !treeguides_debug

package assert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThat_ReleaseBuildDoesNotPanic(t *testing.T) {
	t.Parallel()

	assert.True(t, That(true, "never shown"))
	assert.NotPanics(t, func() {
		assert.False(t, That(false, "value %d out of range", 7))
	})
}
