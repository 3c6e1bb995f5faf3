package feed

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"podsync/internal/progress"
	"podsync/internal/transport"
)

// Kind classifies a feed-loading failure.
type Kind int

const (
	Fetch Kind = iota
	Io
	Parse
)

// Error is the feed package's error taxonomy: a single exported type carrying a Kind
// field callers can branch on via errors.As, with its message built lazily in Error().
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	var kind string
	switch e.Kind {
	case Fetch:
		kind = "fetch"
	case Io:
		kind = "io"
	case Parse:
		kind = "parse"
	}
	return fmt.Sprintf("feed: %s: %v", kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Load obtains feed bytes and parses them into a Podcast. source is treated as a
// filesystem path if it names an existing file, otherwise as an absolute URL —
// file-existence wins; when source also parses as an absolute URL, a diagnostic is
// reported via sink rather than silently picking one. The returned dropped count
// carries parse's pre-planning drop count (missing enclosure, duplicate identity
// within the feed) so the caller can fold it into the sync's skipped count.
func Load(ctx context.Context, source string, t transport.Transport, sink progress.Sink) (Podcast, int, error) {
	sink.Report(progress.Fetching(source))

	info, statErr := os.Stat(source)
	isFile := statErr == nil && !info.IsDir()

	if isFile {
		if u, err := url.ParseRequestURI(source); err == nil && u.IsAbs() {
			sink.Report(progress.Diagnostic(fmt.Sprintf("%q is both an existing file and a valid absolute URL; reading it as a file", source)))
		}
		data, err := os.ReadFile(source)
		if err != nil {
			return Podcast{}, 0, &Error{Kind: Io, Err: fmt.Errorf("read %s: %w", source, err)}
		}
		feedURL := "file://" + source
		podcast, diagnostics, dropped, perr := parse(data, feedURL)
		reportDiagnostics(sink, diagnostics)
		if perr != nil {
			return Podcast{}, 0, perr
		}
		return podcast, dropped, nil
	}

	data, err := t.GetBytes(ctx, source)
	if err != nil {
		return Podcast{}, 0, &Error{Kind: Fetch, Err: err}
	}
	podcast, diagnostics, dropped, perr := parse(data, source)
	reportDiagnostics(sink, diagnostics)
	if perr != nil {
		return Podcast{}, 0, perr
	}
	return podcast, dropped, nil
}

func reportDiagnostics(sink progress.Sink, diagnostics []string) {
	for _, d := range diagnostics {
		sink.Report(progress.Diagnostic(d))
	}
}
