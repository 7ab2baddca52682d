package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash"
	"github.com/go-kit/log"
	"github.com/minio/highwayhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeebo/seqio/internal/pcg"
)

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestParseConfig(t *testing.T) {
	t.Run("JSONC", func(t *testing.T) {
		cfg, err := parseConfig([]byte(`{
			// bigger reads
			"readahead": 1048576,
			"hash": "highway",
			"verify": true,
		}`), DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, 1<<20, cfg.Readahead)
		assert.Equal(t, "highway", cfg.Hash)
		assert.True(t, cfg.Verify)
		assert.Equal(t, DefaultConfig().Chunk, cfg.Chunk)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := parseConfig([]byte(`{"readahead": }`), DefaultConfig())
		require.Error(t, err)

		_, err = parseConfig([]byte(`{"readahead": "big"}`), DefaultConfig())
		require.Error(t, err)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := loadConfigFile(filepath.Join(t.TempDir(), "nope.jsonc"), DefaultConfig())
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"no readahead", func(c *Config) { c.Readahead = 0 }, false},
		{"negative readahead", func(c *Config) { c.Readahead = -1 }, true},
		{"zero chunk", func(c *Config) { c.Chunk = 0 }, true},
		{"negative skip", func(c *Config) { c.Skip = -5 }, true},
		{"unknown hash", func(c *Config) { c.Hash = "md5" }, true},
		{"verify without hash", func(c *Config) { c.Verify, c.Hash = true, "none" }, true},
		{"verify zero segment", func(c *Config) { c.Verify, c.Segment = true, 0 }, true},
		{"verify zero workers", func(c *Config) { c.Verify, c.Workers = true, 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseArgs(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, path, err := parseArgs([]string{"file"})
		require.NoError(t, err)
		assert.Equal(t, "file", path)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("FlagsOverrideConfig", func(t *testing.T) {
		conf := writeTemp(t, []byte(`{"chunk": 1000, "hash": "highway", "skip": 7}`))
		cfg, _, err := parseArgs([]string{"--config", conf, "--chunk", "4096", "--verify", "file"})
		require.NoError(t, err)
		assert.Equal(t, 4096, cfg.Chunk)
		assert.Equal(t, "highway", cfg.Hash)
		assert.Equal(t, int64(7), cfg.Skip)
		assert.True(t, cfg.Verify)
	})

	t.Run("NoFile", func(t *testing.T) {
		_, _, err := parseArgs(nil)
		require.Error(t, err)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, _, err := parseArgs([]string{"--hash", "crc", "file"})
		require.Error(t, err)
	})
}

func TestSegmentHasher(t *testing.T) {
	gen := pcg.New(5, 5)
	data := gen.Bytes(2500)

	s := newSegmentHasher("xxhash", 1000)
	for rem := data; len(rem) > 0; {
		n := min(len(rem), 300)
		_, err := s.Write(rem[:n])
		require.NoError(t, err)
		rem = rem[n:]
	}

	assert.Equal(t, []uint64{
		xxhash.Sum64(data[:1000]),
		xxhash.Sum64(data[1000:2000]),
		xxhash.Sum64(data[2000:]),
	}, s.Digests())
}

func TestRun(t *testing.T) {
	gen := pcg.New(9, 9)
	data := gen.Bytes(300000)
	path := writeTemp(t, data)
	ctx := context.Background()

	t.Run("XXHash", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Readahead = 64 << 10
		cfg.Chunk = 1000

		res, err := run(ctx, cfg, path, log.NewNopLogger())
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), res.Bytes)
		assert.Equal(t, xxhash.Sum64(data), res.Digest)
	})

	t.Run("Highway", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Hash = "highway"
		cfg.Skip = 12345

		res, err := run(ctx, cfg, path, log.NewNopLogger())
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)-12345), res.Bytes)
		assert.Equal(t, highwayhash.Sum64(data[12345:], highwayKey), res.Digest)
	})

	t.Run("NoReadahead", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Readahead = 0
		cfg.Hash = "none"

		res, err := run(ctx, cfg, path, log.NewNopLogger())
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), res.Bytes)
		assert.Zero(t, res.Digest)
	})

	t.Run("Out", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Skip = 100
		cfg.Chunk = 777
		cfg.Out = filepath.Join(t.TempDir(), "copy")

		_, err := run(ctx, cfg, path, log.NewNopLogger())
		require.NoError(t, err)

		got, err := os.ReadFile(cfg.Out)
		require.NoError(t, err)
		assert.Equal(t, data[100:], got)
	})

	t.Run("Verify", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Verify = true
		cfg.Segment = 64 << 10
		cfg.Skip = 3
		cfg.DropCache = true

		res, err := run(ctx, cfg, path, log.NewNopLogger())
		require.NoError(t, err)
		assert.Equal(t, 5, res.Segments)
	})

	t.Run("Empty", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Verify = true

		res, err := run(ctx, cfg, writeTemp(t, nil), log.NewNopLogger())
		require.NoError(t, err)
		assert.Zero(t, res.Bytes)
		assert.Zero(t, res.Segments)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := run(ctx, DefaultConfig(), filepath.Join(t.TempDir(), "nope"), log.NewNopLogger())
		require.Error(t, err)
	})

	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := run(ctx, DefaultConfig(), path, log.NewNopLogger())
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestReport(t *testing.T) {
	require.NoError(t, report(log.NewNopLogger()))
}
