package memsrc

import (
	"errors"
	"testing"

	"github.com/zeebo/assert"

	"github.com/zeebo/seqio/internal/buffer"
)

func TestSource(t *testing.T) {
	t.Run("Sequential", func(t *testing.T) {
		src := New([]byte("hello world"), 1, false)

		p := make([]byte, 5)
		n, err := src.Read(p)
		assert.NoError(t, err)
		assert.Equal(t, string(p[:n]), "hello")

		assert.NoError(t, src.Skip(1))
		n, err = src.Read(make([]byte, 100))
		assert.NoError(t, err)
		assert.Equal(t, n, 5)

		n, err = src.Read(p)
		assert.NoError(t, err)
		assert.Equal(t, n, 0)

		assert.Equal(t, src.Stats(), Stats{Reads: 3, Skips: 1})
		assert.DeepEqual(t, src.Reads(), []Range{{0, 5}, {6, 100}, {11, 5}})
	})

	t.Run("Positioned", func(t *testing.T) {
		src := New([]byte("hello world"), 1, false)

		p := make([]byte, 5)
		n, err := src.PositionedRead(p, 6)
		assert.NoError(t, err)
		assert.Equal(t, string(p[:n]), "world")
		assert.Equal(t, src.Pos(), int64(0))

		n, err = src.PositionedRead(p, 20)
		assert.NoError(t, err)
		assert.Equal(t, n, 0)
	})

	t.Run("Direct", func(t *testing.T) {
		src := New(make([]byte, 4096), 512, true)

		_, err := src.PositionedRead(make([]byte, 512), 100)
		assert.That(t, Error.Has(err))

		_, err = src.PositionedRead(make([]byte, 100), 0)
		assert.That(t, Error.Has(err))

		buf, err := buffer.New(512)
		assert.NoError(t, err)
		buf.Allocate(1024)

		n, err := src.PositionedRead(buf.Bytes(), 512)
		assert.NoError(t, err)
		assert.Equal(t, n, 1024)

		_, err = src.PositionedRead(buf.Bytes()[1:513], 512)
		assert.That(t, Error.Has(err))
	})

	t.Run("Failures", func(t *testing.T) {
		src := New([]byte("hello"), 1, false)
		injected := errors.New("injected")

		src.FailNext(OpRead, injected)
		src.FailNext(OpSkip, injected)
		src.FailNext(OpPositionedRead, injected)
		src.FailNext(OpInvalidateCache, injected)

		_, err := src.Read(make([]byte, 1))
		assert.Equal(t, err, injected)
		assert.Equal(t, src.Skip(1), injected)
		_, err = src.PositionedRead(make([]byte, 1), 0)
		assert.Equal(t, err, injected)
		assert.Equal(t, src.InvalidateCache(0, 0), injected)

		n, err := src.Read(make([]byte, 5))
		assert.NoError(t, err)
		assert.Equal(t, n, 5)
	})
}
