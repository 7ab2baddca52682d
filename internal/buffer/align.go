package buffer

// TruncateToPageBoundary returns the largest multiple of alignment that is
// less than or equal to n.
func TruncateToPageBoundary(alignment, n int64) int64 {
	return n - n%alignment
}

// Roundup returns the smallest multiple of alignment that is greater than
// or equal to n.
func Roundup(n, alignment int64) int64 {
	return (n + alignment - 1) / alignment * alignment
}

// IsAligned reports if n is a multiple of alignment.
func IsAligned(n, alignment int64) bool {
	return n%alignment == 0
}

// PowerOfTwo reports if n is a positive power of two.
func PowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
