// Package direct adapts a sequential source so that callers may issue
// arbitrary unaligned reads against a file opened for direct I/O.
package direct

import (
	"sync/atomic"

	"github.com/zeebo/errs"

	"github.com/zeebo/seqio/internal/buffer"
	"github.com/zeebo/seqio/internal/mon"
	"github.com/zeebo/seqio/io"
)

// Error is the class of errors returned by this package.
var Error = errs.Class("direct")

// T wraps a source. When the source uses direct I/O, each Read is turned
// into a single positioned read of the smallest aligned range that covers
// the request. Otherwise calls pass through untouched. It is safe for
// concurrent use: concurrent Reads each claim a disjoint range of the
// stream and may hit the source in parallel.
type T struct {
	src       io.Source
	alignment int
	direct    bool
	offset    atomic.Int64 // next unread logical byte, direct mode only
}

var _ io.Source = (*T)(nil)

// New takes ownership of src and returns an adapter for it.
func New(src io.Source) (*T, error) {
	t := &T{
		src:       src,
		alignment: src.Alignment(),
		direct:    src.DirectIO(),
	}
	if t.direct && !buffer.PowerOfTwo(t.alignment) {
		return nil, Error.New("alignment %d is not a power of two", t.alignment)
	}
	return t, nil
}

// Source returns the wrapped source.
func (t *T) Source() io.Source { return t.src }

// Offset returns the logical stream position. It is only tracked when the
// source uses direct I/O.
func (t *T) Offset() int64 { return t.offset.Load() }

// Read implements io.Source.
func (t *T) Read(p []byte) (int, error) {
	if !t.direct {
		n, err := t.src.Read(p)
		if err != nil {
			return 0, err
		}
		mon.AddBytesRead(n)
		return n, nil
	}

	// reserve our range up front so that concurrent readers do not overlap.
	n := int64(len(p))
	offset := t.offset.Add(n) - n
	return t.readAligned(p, offset)
}

// readAligned reads len(p) bytes at offset by issuing one aligned positioned
// read into a scratch buffer and copying out the requested range.
func (t *T) readAligned(p []byte, offset int64) (int, error) {
	alignment := int64(t.alignment)
	alignedOffset := buffer.TruncateToPageBoundary(alignment, offset)
	offsetAdvance := int(offset - alignedOffset)
	size := buffer.Roundup(offset+int64(len(p)), alignment) - alignedOffset

	buf, err := buffer.New(t.alignment)
	if err != nil {
		return 0, Error.Wrap(err)
	}
	buf.Allocate(int(size))

	got, err := t.src.PositionedRead(buf.Bytes()[:size], alignedOffset)
	if err != nil {
		return 0, err
	}

	r := 0
	if offsetAdvance < got {
		buf.SetSize(got)
		r = buf.Read(p, offsetAdvance, len(p))
	}
	mon.AddBytesRead(r)
	return r, nil
}

// Skip implements io.Source. Under direct I/O only the logical position
// moves; alignment is dealt with by the next Read.
func (t *T) Skip(n int64) error {
	if n < 0 {
		return Error.New("negative skip %d", n)
	}
	if t.direct {
		t.offset.Add(n)
		return nil
	}
	return t.src.Skip(n)
}

// PositionedRead implements io.Source. Under direct I/O the read is widened
// to an aligned range like Read, but the logical position is unaffected.
func (t *T) PositionedRead(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, Error.New("negative offset %d", off)
	}
	if t.direct {
		return t.readAligned(p, off)
	}
	n, err := t.src.PositionedRead(p, off)
	if err != nil {
		return 0, err
	}
	mon.AddBytesRead(n)
	return n, nil
}

// InvalidateCache implements io.Source.
func (t *T) InvalidateCache(off, length int64) error {
	return t.src.InvalidateCache(off, length)
}

// Alignment implements io.Source.
func (t *T) Alignment() int { return t.alignment }

// DirectIO implements io.Source.
func (t *T) DirectIO() bool { return t.direct }
