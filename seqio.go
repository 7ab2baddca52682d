// Package seqio reads files sequentially through optional direct I/O and
// readahead layers. Every layer implements io.Source, so callers do not
// need to know which layers are in use.
package seqio

import (
	"github.com/zeebo/errs"

	"github.com/zeebo/seqio/caches/readahead"
	"github.com/zeebo/seqio/direct"
	"github.com/zeebo/seqio/io"
)

// Error is the class of errors returned by this package.
var Error = errs.Class("seqio")

// New takes ownership of src and wraps it so that arbitrary reads work when
// src uses direct I/O. If size is positive, reads are also served from a
// readahead buffer of that many bytes, unless size is too small relative to
// the alignment of src to be useful.
func New(src io.Source, size int) (io.Source, error) {
	d, err := direct.New(src)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if size <= 0 {
		return d, nil
	}
	ra, err := readahead.New(d, size)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return ra, nil
}
