package osfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// deviceAlignment returns the logical sector size of the block device
// backing fh when fh is itself a block device. Regular files use the
// default.
func deviceAlignment(fh *os.File) int {
	var st unix.Stat_t
	if err := unix.Fstat(int(fh.Fd()), &st); err != nil {
		return defaultAlignment()
	}
	if st.Mode&unix.S_IFMT != unix.S_IFBLK {
		return defaultAlignment()
	}
	size, err := unix.IoctlGetInt(int(fh.Fd()), unix.BLKSSZGET)
	if err != nil || size <= 0 {
		return defaultAlignment()
	}
	return size
}

// dropCache advises the kernel that the range will not be needed.
func dropCache(fh *os.File, off, length int64) error {
	return unix.Fadvise(int(fh.Fd()), off, length, unix.FADV_DONTNEED)
}
