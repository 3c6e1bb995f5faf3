// Command podsync syncs a podcast's audio library from an RSS feed to a local
// directory. Flag parsing, process wiring, and exit-code discipline live here only;
// everything else is a library call into internal/engine. The slog JSON handler and
// the signal-aware context are set up here.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"podsync/internal/config"
	"podsync/internal/engine"
	"podsync/internal/feed"
	"podsync/internal/progress"
	"podsync/internal/transport"
)

func main() {
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(jsonHandler))

	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("podsync", flag.ContinueOnError)
	concurrent := fs.Int("concurrent", config.DefaultMaxConcurrent, "number of episodes to download at once")
	fs.IntVar(concurrent, "c", config.DefaultMaxConcurrent, "shorthand for -concurrent")
	var limit int
	fs.IntVar(&limit, "limit", -1, "maximum number of episodes to download this run")
	fs.IntVar(&limit, "l", -1, "shorthand for -limit")
	quiet := fs.Bool("quiet", false, "suppress progress output")
	fs.BoolVar(quiet, "q", false, "shorthand for -quiet")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: podsync [-c N] [-l N] [-q] <feed-url-or-path> <output-dir>")
		return 1
	}

	opts := config.SyncOptions{
		Source:        fs.Arg(0),
		OutputDir:     fs.Arg(1),
		MaxConcurrent: *concurrent,
		Quiet:         *quiet,
	}
	if limit >= 0 {
		opts.Limit = &limit
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sink progress.Sink = progress.NoopSink{}
	if !opts.Quiet {
		sink = progress.NewSlogSink(slog.Default())
	}

	result, err := engine.Sync(ctx, opts, feed.Load, transport.NewHTTPTransport(), sink)
	if err != nil {
		slog.Error("sync failed", "error", err)
		return 1
	}

	if result.Downloaded == 0 && result.Failed > 0 {
		return 1
	}
	return 0
}
