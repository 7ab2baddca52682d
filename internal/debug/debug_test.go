//go:build !release

package debug

import (
	"testing"

	"github.com/zeebo/assert"
)

func TestAssert(t *testing.T) {
	t.Run("Pass", func(t *testing.T) {
		Assert("true", func() bool { return true })
	})

	t.Run("Fail", func(t *testing.T) {
		defer func() {
			assert.Equal(t, recover(), "assertion failed: false")
		}()
		Assert("false", func() bool { return false })
		t.Fatal("expected panic")
	})
}
