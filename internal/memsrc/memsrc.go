// Package memsrc provides an in-memory io.Source that records how it is
// called and can inject failures. It exists for tests.
package memsrc

import (
	"sync"

	"github.com/zeebo/errs"

	"github.com/zeebo/seqio/internal/buffer"
	"github.com/zeebo/seqio/io"
)

// Error is the class of errors returned by this package.
var Error = errs.Class("memsrc")

// Op names a Source method for fault injection.
type Op int

const (
	OpRead Op = iota
	OpSkip
	OpPositionedRead
	OpInvalidateCache
)

// Range is a byte range requested from the source.
type Range struct {
	Off int64
	Len int
}

// Stats counts calls made against the source.
type Stats struct {
	Reads           int
	Skips           int
	PositionedReads int
	Invalidations   int
}

// T is an in-memory sequential source. When created in direct mode every
// Read and PositionedRead must use an aligned offset, length and buffer
// address, like a file opened for direct I/O. It is safe for concurrent use.
type T struct {
	data      []byte
	alignment int
	direct    bool

	mu     sync.Mutex
	pos    int64
	stats  Stats
	reads  []Range
	preads []Range
	fail   map[Op][]error
}

// New constructs a source over data. The data is not copied.
func New(data []byte, alignment int, direct bool) *T {
	return &T{
		data:      data,
		alignment: alignment,
		direct:    direct,
		fail:      make(map[Op][]error),
	}
}

var _ io.Source = (*T)(nil)

// FailNext arranges for the next call of op to fail with err. Calls queue up
// in order.
func (t *T) FailNext(op Op, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fail[op] = append(t.fail[op], err)
}

// nextFailure pops a queued failure for op. It must be called with mu held.
func (t *T) nextFailure(op Op) error {
	queued := t.fail[op]
	if len(queued) == 0 {
		return nil
	}
	t.fail[op] = queued[1:]
	return queued[0]
}

// checkAligned returns an error if direct mode is enabled and any of the
// offset, length or buffer address is misaligned.
func (t *T) checkAligned(p []byte, off int64) error {
	if !t.direct {
		return nil
	}
	a := int64(t.alignment)
	switch {
	case !buffer.IsAligned(off, a):
		return Error.New("misaligned offset %d", off)
	case !buffer.IsAligned(int64(len(p)), a):
		return Error.New("misaligned length %d", len(p))
	case buffer.Addr(p, t.alignment) != 0:
		return Error.New("misaligned buffer")
	}
	return nil
}

// copyAt copies data starting at off into p.
func (t *T) copyAt(p []byte, off int64) int {
	if off >= int64(len(t.data)) {
		return 0
	}
	return copy(p, t.data[off:])
}

// Read implements io.Source.
func (t *T) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Reads++
	t.reads = append(t.reads, Range{Off: t.pos, Len: len(p)})
	if err := t.nextFailure(OpRead); err != nil {
		return 0, err
	}
	if err := t.checkAligned(p, t.pos); err != nil {
		return 0, err
	}

	n := t.copyAt(p, t.pos)
	t.pos += int64(n)
	return n, nil
}

// Skip implements io.Source.
func (t *T) Skip(n int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Skips++
	if err := t.nextFailure(OpSkip); err != nil {
		return err
	}
	if n < 0 {
		return Error.New("negative skip %d", n)
	}
	t.pos += n
	return nil
}

// PositionedRead implements io.Source.
func (t *T) PositionedRead(p []byte, off int64) (int, error) {
	t.mu.Lock()
	t.stats.PositionedReads++
	t.preads = append(t.preads, Range{Off: off, Len: len(p)})
	err := t.nextFailure(OpPositionedRead)
	t.mu.Unlock()

	if err != nil {
		return 0, err
	}
	if err := t.checkAligned(p, off); err != nil {
		return 0, err
	}
	return t.copyAt(p, off), nil
}

// InvalidateCache implements io.Source.
func (t *T) InvalidateCache(off, length int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Invalidations++
	return t.nextFailure(OpInvalidateCache)
}

// Alignment implements io.Source.
func (t *T) Alignment() int { return t.alignment }

// DirectIO implements io.Source.
func (t *T) DirectIO() bool { return t.direct }

// Pos returns the current sequential position.
func (t *T) Pos() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos
}

// Stats returns the call counts so far.
func (t *T) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Reads returns every range requested through Read.
func (t *T) Reads() []Range {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Range(nil), t.reads...)
}

// PositionedReads returns every range requested through PositionedRead.
func (t *T) PositionedReads() []Range {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Range(nil), t.preads...)
}
