//go:build !linux

package osfile

import "os"

func deviceAlignment(fh *os.File) int { return defaultAlignment() }

func dropCache(fh *os.File, off, length int64) error { return nil }
