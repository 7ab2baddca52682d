// Command seqcat streams a file through the seqio stack, digests it and
// optionally copies it somewhere else.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	flag "github.com/spf13/pflag"
)

func main() {
	if err := realMain(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "seqcat:", err)
		os.Exit(1)
	}
}

func realMain(args []string) error {
	cfg, path, err := parseArgs(args)
	if err != nil {
		return err
	}

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = level.NewFilter(logger, level.Allow(level.ParseDefault(cfg.LogLevel, level.InfoValue())))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	res, err := run(ctx, cfg, path, logger)
	if err != nil {
		level.Error(logger).Log("msg", "failed", "path", path, "err", err)
		return err
	}

	keyvals := []interface{}{"msg", "done", "path", path, "bytes", res.Bytes}
	if cfg.Hash != "none" {
		keyvals = append(keyvals, "hash", cfg.Hash, "digest", fmt.Sprintf("%016x", res.Digest))
	}
	if cfg.Verify {
		keyvals = append(keyvals, "verified_segments", res.Segments)
	}
	if cfg.Out != "" {
		keyvals = append(keyvals, "out", cfg.Out)
	}
	level.Info(logger).Log(keyvals...)

	return report(logger)
}

// parseArgs builds the configuration from the defaults, an optional config
// file and the flags, in increasing order of precedence.
func parseArgs(args []string) (Config, string, error) {
	def := DefaultConfig()
	fs := flag.NewFlagSet("seqcat", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: seqcat [flags] <file>")
		fs.PrintDefaults()
	}

	var (
		configPath = fs.String("config", "", "path to a JSONC config file")
		direct     = fs.Bool("direct", def.DirectIO, "open the file for direct I/O")
		readahead  = fs.Int("readahead", def.Readahead, "readahead buffer size in bytes (0 disables)")
		chunk      = fs.Int("chunk", def.Chunk, "size of each sequential read")
		skip       = fs.Int64("skip", def.Skip, "bytes to skip before reading")
		hashName   = fs.String("hash", def.Hash, "digest to compute: xxhash, highway or none")
		out        = fs.StringP("out", "o", def.Out, "copy the streamed bytes to this path atomically")
		verify     = fs.Bool("verify", def.Verify, "re-read the range with parallel positioned reads and compare")
		segment    = fs.Int("segment", def.Segment, "segment size used by --verify")
		workers    = fs.Int("workers", def.Workers, "parallel readers used by --verify")
		dropCache  = fs.Bool("drop-cache", def.DropCache, "drop cached pages for the range when done")
		logLevel   = fs.String("log-level", def.LogLevel, "log level: debug, info, warn or error")
	)
	if err := fs.Parse(args); err != nil {
		return Config{}, "", err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return Config{}, "", fmt.Errorf("expected exactly one file, got %d", fs.NArg())
	}

	cfg := def
	if *configPath != "" {
		var err error
		cfg, err = loadConfigFile(*configPath, def)
		if err != nil {
			return Config{}, "", err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "direct":
			cfg.DirectIO = *direct
		case "readahead":
			cfg.Readahead = *readahead
		case "chunk":
			cfg.Chunk = *chunk
		case "skip":
			cfg.Skip = *skip
		case "hash":
			cfg.Hash = *hashName
		case "out":
			cfg.Out = *out
		case "verify":
			cfg.Verify = *verify
		case "segment":
			cfg.Segment = *segment
		case "workers":
			cfg.Workers = *workers
		case "drop-cache":
			cfg.DropCache = *dropCache
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, fs.Arg(0), nil
}
