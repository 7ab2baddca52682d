// Package osfile implements io.Source on top of an operating system file,
// optionally opened for direct I/O.
package osfile

import (
	"errors"
	stdio "io"
	"os"

	"github.com/ncw/directio"
	"github.com/zeebo/errs"

	"github.com/zeebo/seqio/internal/buffer"
	"github.com/zeebo/seqio/internal/mon"
	"github.com/zeebo/seqio/io"
)

// Error is the class of errors returned by this package.
var Error = errs.Class("osfile")

var (
	readThunk  = mon.NewThunk("osfile_read")
	preadThunk = mon.NewThunk("osfile_positioned_read")
)

// Options control how a file is opened.
type Options struct {
	// DirectIO opens the file so that reads bypass the page cache. Reads
	// must then be aligned, which the direct package takes care of.
	DirectIO bool
}

// File is an io.Source reading from an *os.File.
type File struct {
	f         *os.File
	direct    bool
	alignment int
}

var _ io.Source = (*File)(nil)

// Open opens the named file for reading.
func Open(path string, opts Options) (*File, error) {
	var fh *os.File
	var err error
	if opts.DirectIO {
		fh, err = directio.OpenFile(path, os.O_RDONLY, 0)
	} else {
		fh, err = os.Open(path)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}

	alignment := os.Getpagesize()
	if opts.DirectIO {
		alignment = deviceAlignment(fh)
	}
	if !buffer.PowerOfTwo(alignment) {
		_ = fh.Close()
		return nil, Error.New("%s: alignment %d is not a power of two", path, alignment)
	}

	return &File{
		f:         fh,
		direct:    opts.DirectIO,
		alignment: alignment,
	}, nil
}

// defaultAlignment is used when the device does not report a sector size.
func defaultAlignment() int {
	if directio.AlignSize > 0 {
		return directio.AlignSize
	}
	return directio.BlockSize
}

// Name returns the name the file was opened with.
func (f *File) Name() string { return f.f.Name() }

// Size returns the size of the file in bytes.
func (f *File) Size() (int64, error) {
	fi, err := f.f.Stat()
	if err != nil {
		return 0, Error.Wrap(err)
	}
	return fi.Size(), nil
}

// Close closes the file.
func (f *File) Close() error { return Error.Wrap(f.f.Close()) }

// checkAligned validates a direct I/O request. The kernel rejects
// misaligned requests with an opaque EINVAL; this reports what was wrong.
func (f *File) checkAligned(p []byte, off int64) error {
	if !f.direct {
		return nil
	}
	a := int64(f.alignment)
	switch {
	case !buffer.IsAligned(off, a):
		return Error.New("direct read at misaligned offset %d", off)
	case !buffer.IsAligned(int64(len(p)), a):
		return Error.New("direct read of misaligned length %d", len(p))
	case buffer.Addr(p, f.alignment) != 0:
		return Error.New("direct read into misaligned buffer")
	}
	return nil
}

// Read implements io.Source. It keeps reading until p is full or the end
// of the file is reached.
func (f *File) Read(p []byte) (n int, err error) {
	if err := f.checkAligned(p, 0); err != nil {
		return 0, err
	}
	defer readThunk.Start().Stop()

	n, err = stdio.ReadFull(f.f, p)
	if errors.Is(err, stdio.EOF) || errors.Is(err, stdio.ErrUnexpectedEOF) {
		err = nil
	}
	if err != nil {
		return 0, Error.Wrap(err)
	}
	return n, nil
}

// Skip implements io.Source.
func (f *File) Skip(n int64) error {
	if n < 0 {
		return Error.New("negative skip %d", n)
	}
	_, err := f.f.Seek(n, stdio.SeekCurrent)
	return Error.Wrap(err)
}

// PositionedRead implements io.Source.
func (f *File) PositionedRead(p []byte, off int64) (n int, err error) {
	if err := f.checkAligned(p, off); err != nil {
		return 0, err
	}
	defer preadThunk.Start().Stop()

	n, err = f.f.ReadAt(p, off)
	if errors.Is(err, stdio.EOF) {
		err = nil
	}
	if err != nil {
		return 0, Error.Wrap(err)
	}
	return n, nil
}

// InvalidateCache implements io.Source. It asks the kernel to drop cached
// pages for the range. Files opened for direct I/O have none.
func (f *File) InvalidateCache(off, length int64) error {
	if f.direct {
		return nil
	}
	return Error.Wrap(dropCache(f.f, off, length))
}

// Alignment implements io.Source.
func (f *File) Alignment() int { return f.alignment }

// DirectIO implements io.Source.
func (f *File) DirectIO() bool { return f.direct }
