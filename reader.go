package seqio

import (
	stdio "io"

	"github.com/zeebo/seqio/io"
)

// Reader adapts a source to the standard library io.Reader, reporting
// io.EOF once the source returns a short read.
type Reader struct {
	src io.Source
	eof bool
}

// NewReader returns a Reader that reads from src.
func NewReader(src io.Source) *Reader {
	return &Reader{src: src}
}

var _ stdio.Reader = (*Reader)(nil)

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if r.eof {
		return 0, stdio.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := r.src.Read(p)
	if err != nil {
		return 0, err
	}
	if n < len(p) {
		r.eof = true
		if n == 0 {
			return 0, stdio.EOF
		}
	}
	return n, nil
}
