// Package readahead provides a sequential source decorator that prefetches
// more data than requested and serves subsequent small reads from memory.
package readahead

import (
	"sync"

	"github.com/zeebo/errs"

	"github.com/zeebo/seqio/internal/buffer"
	"github.com/zeebo/seqio/internal/debug"
	"github.com/zeebo/seqio/io"
)

// Error is the class of errors returned by this package.
var Error = errs.Class("readahead")

// T wraps a source with a single readahead buffer. It implements the same
// interface it wraps. Reads, skips and invalidations are serialized by a
// mutex; positioned reads bypass the buffer and the mutex.
type T struct {
	src       io.Source
	alignment int
	size      int // readahead size, a multiple of alignment

	mu  sync.Mutex
	buf *buffer.T
	// bufOff is the stream offset of the first byte in buf.
	bufOff int64
	// readOff is the stream offset of the next byte to return. It can be
	// past the end of the stream since Skip does not report how far it
	// actually moved. It never decreases and is only used to decide if the
	// next bytes come from buf or src.
	readOff int64
}

var _ io.Source = (*T)(nil)

// New returns a source that reads ahead size bytes at a time from src. If
// the alignment of src is at least size there is nothing to gain, and src is
// returned unchanged. Otherwise the returned source takes ownership of src.
func New(src io.Source, size int) (io.Source, error) {
	if src.Alignment() >= size {
		return src, nil
	}
	t, err := newT(src, size)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// newT constructs the decorator with the readahead size rounded up to the
// alignment of src.
func newT(src io.Source, size int) (*T, error) {
	alignment := src.Alignment()
	buf, err := buffer.New(alignment)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	size = int(buffer.Roundup(int64(size), int64(alignment)))
	buf.Allocate(size)

	return &T{
		src:       src,
		alignment: alignment,
		size:      size,
		buf:       buf,
	}, nil
}

// Size returns the readahead size.
func (t *T) Size() int { return t.size }

// Read implements io.Source.
func (t *T) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// if [readOff, readOff + len(p)) is entirely buffered, or partially
	// buffered and the buffer was filled up to the end of the stream, we are
	// done.
	cached, hit := t.readFromBuffer(p)
	if hit && (cached == len(p) || t.buf.Size() < t.size) {
		return cached, nil
	}
	rem := p[cached:]

	// reading ahead only makes sense if there is slack left in the buffer
	// after serving the request.
	if len(rem)+t.alignment >= t.size {
		n, err := t.src.Read(rem)
		t.buf.Clear()
		if err != nil {
			return 0, err
		}
		t.readOff += int64(n)
		return cached + n, nil
	}

	if err := t.fill(); err != nil {
		return 0, err
	}
	n, _ := t.readFromBuffer(rem)
	return cached + n, nil
}

// readFromBuffer copies as much of p as possible out of the buffer starting
// at readOff and advances readOff past it. It reports false if readOff is
// outside of the buffered range. It must be called with mu held.
func (t *T) readFromBuffer(p []byte) (int, bool) {
	if t.readOff < t.bufOff || t.readOff >= t.bufOff+int64(t.buf.Size()) {
		return 0, false
	}
	n := t.buf.Read(p, int(t.readOff-t.bufOff), len(p))
	t.readOff += int64(n)
	return n, true
}

// fill replaces the buffer with the next readahead size bytes of src. The
// buffer holds fewer bytes if the end of the stream is reached. It must be
// called with mu held.
func (t *T) fill() error {
	n := t.size
	if c := t.buf.Capacity(); n > c {
		n = c
	}
	debug.Assert("readahead fill is aligned", func() bool {
		return buffer.IsAligned(int64(n), int64(t.alignment))
	})

	got, err := t.src.Read(t.buf.Bytes()[:n])
	if err != nil {
		return err
	}
	t.bufOff = t.readOff
	t.buf.SetSize(got)
	return nil
}

// Skip implements io.Source.
func (t *T) Skip(n int64) error {
	if n < 0 {
		return Error.New("negative skip %d", n)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	debug.Assert("read offset not before buffer", func() bool { return t.bufOff <= t.readOff })

	// consume whatever part of the skip is already buffered.
	if size := int64(t.buf.Size()); size > 0 {
		if end := t.bufOff + size; t.readOff+n >= end {
			n -= end - t.readOff
			t.readOff = end
		} else {
			t.readOff += n
			n = 0
		}
	}
	if n == 0 {
		return nil
	}

	err := t.src.Skip(n)
	if err == nil {
		t.readOff += n
	}
	t.buf.Clear()
	return err
}

// PositionedRead implements io.Source. It does not use the buffer.
func (t *T) PositionedRead(p []byte, off int64) (int, error) {
	return t.src.PositionedRead(p, off)
}

// InvalidateCache implements io.Source. It drops the buffer before passing
// the call on. The stream position does not change.
func (t *T) InvalidateCache(off, length int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf.Clear()
	return t.src.InvalidateCache(off, length)
}

// Alignment implements io.Source.
func (t *T) Alignment() int { return t.alignment }

// DirectIO implements io.Source.
func (t *T) DirectIO() bool { return t.src.DirectIO() }
