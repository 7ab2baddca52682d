package main

import (
	"context"
	"fmt"
	stdio "io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/natefinch/atomic"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/zeebo/seqio"
	"github.com/zeebo/seqio/internal/mon"
	"github.com/zeebo/seqio/io"
	"github.com/zeebo/seqio/osfile"
)

// Result summarizes a run.
type Result struct {
	Bytes    int64
	Digest   uint64
	Segments int
}

// run streams the file at path through the configured stack.
func run(ctx context.Context, cfg Config, path string, logger log.Logger) (Result, error) {
	f, err := osfile.Open(path, osfile.Options{DirectIO: cfg.DirectIO})
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = f.Close() }()

	src, err := seqio.New(f, cfg.Readahead)
	if err != nil {
		return Result{}, err
	}
	level.Debug(logger).Log(
		"msg", "opened",
		"path", path,
		"direct", src.DirectIO(),
		"alignment", src.Alignment(),
		"readahead", cfg.Readahead,
	)

	if cfg.Skip > 0 {
		if err := src.Skip(cfg.Skip); err != nil {
			return Result{}, err
		}
	}

	digest, err := newHash(cfg.Hash)
	if err != nil {
		return Result{}, err
	}

	var counter countWriter
	writers := []stdio.Writer{&counter}
	if digest != nil {
		writers = append(writers, digest)
	}
	var segments *segmentHasher
	if cfg.Verify {
		segments = newSegmentHasher(cfg.Hash, cfg.Segment)
		writers = append(writers, segments)
	}

	r := stdio.TeeReader(&chunkReader{
		ctx:   ctx,
		r:     seqio.NewReader(src),
		chunk: cfg.Chunk,
	}, stdio.MultiWriter(writers...))

	if cfg.Out != "" {
		err = atomic.WriteFile(cfg.Out, r)
	} else {
		err = drain(r, cfg.Chunk)
	}
	if err != nil {
		return Result{}, err
	}

	res := Result{Bytes: int64(counter)}
	if digest != nil {
		res.Digest = digest.Sum64()
	}

	if segments != nil {
		digests := segments.Digests()
		if err := verify(ctx, src, cfg, res.Bytes, digests); err != nil {
			return Result{}, err
		}
		res.Segments = len(digests)
	}

	if cfg.DropCache {
		if err := src.InvalidateCache(cfg.Skip, res.Bytes); err != nil {
			return Result{}, err
		}
	}

	return res, nil
}

// verify re-reads the streamed range with positioned reads and checks it
// against the digests recorded for every segment.
func verify(ctx context.Context, src io.Source, cfg Config, total int64, digests []uint64) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for i, want := range digests {
		off := int64(i) * int64(cfg.Segment)
		length := min(int64(cfg.Segment), total-off)

		g.Go(func() error {
			h, err := newHash(cfg.Hash)
			if err != nil {
				return err
			}

			buf := make([]byte, cfg.Chunk)
			for done := int64(0); done < length; {
				if err := ctx.Err(); err != nil {
					return err
				}
				n := int(min(int64(len(buf)), length-done))
				got, err := src.PositionedRead(buf[:n], cfg.Skip+off+done)
				if err != nil {
					return err
				}
				if got < n {
					return fmt.Errorf("segment %d: short read at %d", i, cfg.Skip+off+done+int64(got))
				}
				_, _ = h.Write(buf[:n])
				done += int64(n)
			}

			if got := h.Sum64(); got != want {
				return fmt.Errorf("segment %d: digest mismatch: %016x != %016x", i, got, want)
			}
			return nil
		})
	}

	return g.Wait()
}

// report logs every metric gathered from a registry holding the mon
// collector.
func report(logger log.Logger) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(mon.NewCollector()); err != nil {
		return err
	}
	mfs, err := reg.Gather()
	if err != nil {
		return err
	}

	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			keyvals := []interface{}{"metric", mf.GetName()}
			for _, lp := range m.GetLabel() {
				keyvals = append(keyvals, lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				keyvals = append(keyvals, "value", m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				keyvals = append(keyvals, "value", m.GetGauge().GetValue())
			}
			level.Debug(logger).Log(keyvals...)
		}
	}
	return nil
}

// drain reads r to the end in chunk sized calls.
func drain(r stdio.Reader, chunk int) error {
	buf := make([]byte, chunk)
	for {
		_, err := r.Read(buf)
		if err == stdio.EOF {
			return nil
		} else if err != nil {
			return err
		}
	}
}

// chunkReader caps every read at chunk bytes and stops when ctx is done.
type chunkReader struct {
	ctx   context.Context
	r     stdio.Reader
	chunk int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	if len(p) > c.chunk {
		p = p[:c.chunk]
	}
	return c.r.Read(p)
}

type countWriter int64

func (c *countWriter) Write(p []byte) (int, error) {
	*c += countWriter(len(p))
	return len(p), nil
}
