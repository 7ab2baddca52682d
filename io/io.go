package io

// Source is an interface abstracting a sequential byte stream, such as an
// open file. Every layer in this module both consumes and implements it, so
// sources can be stacked in any order.
type Source interface {
	// Read fills p with the next bytes of the stream and advances the
	// stream position. It only returns fewer than len(p) bytes when the end
	// of the stream is reached, which is not an error. On error no bytes
	// are returned.
	Read(p []byte) (int, error)

	// Skip advances the stream position by n bytes without returning them.
	// Skipping past the end of the stream is not an error.
	Skip(n int64) error

	// PositionedRead reads len(p) bytes starting at off. It does not use or
	// modify the stream position. Like Read, a short count with a nil error
	// means the end of the stream.
	PositionedRead(p []byte, off int64) (int, error)

	// InvalidateCache drops any cached data for the byte range
	// [off, off+length). A length of zero means until the end.
	InvalidateCache(off, length int64) error

	// Alignment returns the required alignment, in bytes, of offsets,
	// lengths and buffer addresses when DirectIO is true. It is always a
	// power of two.
	Alignment() int

	// DirectIO reports if reads bypass the operating system page cache.
	DirectIO() bool
}
