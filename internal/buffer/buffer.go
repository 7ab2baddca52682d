package buffer

import (
	"unsafe"

	"github.com/zeebo/errs"

	"github.com/zeebo/seqio/internal/debug"
)

// Error is the class of errors returned by this package.
var Error = errs.Class("buffer")

// T is a growable byte buffer whose storage starts at an address aligned to
// some power of two. It keeps track of how many of its bytes are valid. It
// is not thread safe.
type T struct {
	alignment int
	buf       []byte // len(buf) == capacity
	size      int
}

// New constructs an empty buffer with the given alignment, which must be a
// power of two.
func New(alignment int) (*T, error) {
	if !PowerOfTwo(alignment) {
		return nil, Error.New("alignment %d is not a power of two", alignment)
	}
	return &T{alignment: alignment}, nil
}

// Alignment returns the alignment of the buffer.
func (t *T) Alignment() int { return t.alignment }

// Capacity returns the number of bytes allocated.
func (t *T) Capacity() int { return len(t.buf) }

// Size returns the number of valid bytes.
func (t *T) Size() int { return t.size }

// SetSize updates the number of valid bytes. It must not exceed the capacity.
func (t *T) SetSize(n int) {
	debug.Assert("buffer size within capacity", func() bool { return 0 <= n && n <= len(t.buf) })
	t.size = n
}

// Clear marks every byte as invalid without releasing the storage.
func (t *T) Clear() { t.size = 0 }

// Bytes returns the entire allocated region, including bytes past Size. The
// first byte is aligned.
func (t *T) Bytes() []byte { return t.buf }

// Valid returns the valid bytes of the buffer.
func (t *T) Valid() []byte { return t.buf[:t.size] }

// Allocate replaces the storage with a fresh region of at least capacity
// bytes, rounded up to the alignment. The contents are discarded.
func (t *T) Allocate(capacity int) {
	capacity = int(Roundup(int64(capacity), int64(t.alignment)))
	t.buf = alignedBlock(capacity, t.alignment)
	t.size = 0
}

// Read copies up to n valid bytes starting at off into dst, returning how
// many bytes were copied. Fewer bytes are copied if dst is shorter.
func (t *T) Read(dst []byte, off, n int) int {
	if off >= t.size {
		return 0
	}
	if rem := t.size - off; n > rem {
		n = rem
	}
	return copy(dst, t.buf[off:off+n])
}

// alignedBlock returns a slice of length size whose first byte is at an
// address that is a multiple of alignment.
func alignedBlock(size, alignment int) []byte {
	block := make([]byte, size+alignment)
	off := 0
	if a := addrMod(block, alignment); a != 0 {
		off = alignment - a
	}
	block = block[off : off+size : off+size]

	debug.Assert("aligned block", func() bool { return size == 0 || addrMod(block, alignment) == 0 })
	return block
}

// addrMod returns the address of the first byte of block modulo alignment.
// The address of a zero length block is unavailable, so it is reported as
// aligned.
func addrMod(block []byte, alignment int) int {
	if cap(block) == 0 {
		return 0
	}
	return int(uintptr(unsafe.Pointer(unsafe.SliceData(block))) & uintptr(alignment-1))
}

// Addr returns the address of the first byte of p modulo alignment. It is
// used to check that buffers handed to direct I/O are aligned.
func Addr(p []byte, alignment int) int { return addrMod(p, alignment) }
