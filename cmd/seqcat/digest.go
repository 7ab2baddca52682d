package main

import (
	"fmt"
	"hash"

	"github.com/cespare/xxhash"
	"github.com/minio/highwayhash"
)

// highwayKey keys the highway digest. Digests are only compared against
// each other, so a fixed key is fine.
var highwayKey = []byte("seqcat highwayhash digest key 32")

// newHash returns the named hash, or nil for "none".
func newHash(name string) (hash.Hash64, error) {
	switch name {
	case "xxhash":
		return xxhash.New(), nil
	case "highway":
		return highwayhash.New64(highwayKey)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown hash %q", name)
	}
}

// segmentHasher digests a stream in fixed size segments so that segments
// can be checked independently later.
type segmentHasher struct {
	name    string
	size    int
	cur     hash.Hash64
	curLen  int
	digests []uint64
}

func newSegmentHasher(name string, size int) *segmentHasher {
	return &segmentHasher{name: name, size: size}
}

// Write implements io.Writer.
func (s *segmentHasher) Write(p []byte) (int, error) {
	written := len(p)
	for len(p) > 0 {
		if s.cur == nil {
			h, err := newHash(s.name)
			if err != nil {
				return 0, err
			}
			s.cur, s.curLen = h, 0
		}

		n := s.size - s.curLen
		if n > len(p) {
			n = len(p)
		}
		_, _ = s.cur.Write(p[:n])
		s.curLen += n
		p = p[n:]

		if s.curLen == s.size {
			s.digests = append(s.digests, s.cur.Sum64())
			s.cur = nil
		}
	}
	return written, nil
}

// Digests returns the digest of every segment, including a trailing
// partial one.
func (s *segmentHasher) Digests() []uint64 {
	if s.cur != nil {
		s.digests = append(s.digests, s.cur.Sum64())
		s.cur = nil
	}
	return s.digests
}
