package mon

import "sync/atomic"

// bytesRead is the process wide count of bytes delivered to callers of
// sequential reads.
var bytesRead int64

// AddBytesRead adds n to the process wide bytes read counter.
func AddBytesRead(n int) {
	if n > 0 {
		atomic.AddInt64(&bytesRead, int64(n))
	}
}

// BytesRead returns the process wide bytes read counter.
func BytesRead() int64 { return atomic.LoadInt64(&bytesRead) }
