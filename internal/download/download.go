// Package download drives the per-episode OPEN -> STREAMING -> FINALIZE -> DONE state
// machine: stream to a temp file, hash while writing, atomically commit, write the
// sidecar. The stream-to-file shape, the counting-writer progress-while-copying idiom,
// and the typed Kind-tagged error style all follow patterns already used elsewhere in
// this codebase for exactly this kind of download machinery.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"podsync/internal/config"
	"podsync/internal/feed"
	"podsync/internal/filename"
	"podsync/internal/progress"
	"podsync/internal/state"
	"podsync/internal/transport"
)

// Kind classifies a download failure.
type Kind int

const (
	BadStatus Kind = iota
	Transport
	Io
	RenameFailed
	Metadata
)

// Error is the download package's error taxonomy.
type Error struct {
	Kind       Kind
	StatusCode int // set only when Kind == BadStatus
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case BadStatus:
		return fmt.Sprintf("download: bad status %d", e.StatusCode)
	case Transport:
		return fmt.Sprintf("download: transport: %v", e.Err)
	case Io:
		return fmt.Sprintf("download: io: %v", e.Err)
	case RenameFailed:
		return fmt.Sprintf("download: rename failed: %v", e.Err)
	case Metadata:
		return fmt.Sprintf("download: sidecar write failed: %v", e.Err)
	}
	return fmt.Sprintf("download: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Result is what a successful Episode call reports back to the orchestrator.
type Result struct {
	AudioPath       string
	SidecarPath     string
	BytesDownloaded int64
	ContentHash     string
}

// progressInterval throttles DownloadProgress to a handful of emissions per second per
// slot, the way rate.Sometimes is built for.
const progressInterval = 200 * time.Millisecond

// Episode runs the full per-episode state machine for ep into outputDir, reporting
// progress against slotID. base is the episode's planner-assigned base filename
// (already disambiguated against sibling collisions). A non-nil error is always a
// *Error.
func Episode(ctx context.Context, t transport.Transport, ep feed.Episode, base string, slotID int, outputDir string, sink progress.Sink) (Result, error) {
	title := displayTitle(ep.Title)

	ext := filename.Extension(ep)
	audioPath := filepath.Join(outputDir, fmt.Sprintf("%s.%s", base, ext))
	partialPath := audioPath + config.PartialSuffix
	sidecarPath := filepath.Join(outputDir, base+config.SidecarExt)

	// OPEN
	body, totalBytes, err := t.OpenStream(ctx, ep.Enclosure.URL)
	if err != nil {
		var terr *transport.Error
		var derr *Error
		if errors.As(err, &terr) && terr.StatusCode != 0 {
			derr = &Error{Kind: BadStatus, StatusCode: terr.StatusCode}
		} else {
			derr = &Error{Kind: Transport, Err: err}
		}
		sink.Report(progress.DownloadFailed(slotID, title, derr.Error()))
		return Result{}, derr
	}
	defer body.Close()

	sink.Report(progress.DownloadStarting(slotID, title, totalBytes))

	// STREAMING
	hash, downloaded, err := stream(ctx, body, partialPath, slotID, totalBytes, sink)
	if err != nil {
		os.Remove(partialPath)
		derr := toIOError(err)
		sink.Report(progress.DownloadFailed(slotID, title, derr.Error()))
		return Result{}, derr
	}

	// FINALIZE
	sink.Report(progress.Finalizing(slotID, title))

	if err := os.Rename(partialPath, audioPath); err != nil {
		os.Remove(partialPath)
		derr := &Error{Kind: RenameFailed, Err: err}
		sink.Report(progress.DownloadFailed(slotID, title, derr.Error()))
		return Result{}, derr
	}

	sidecar := buildSidecar(ep, base+"."+ext, hash)
	if err := writeSidecar(sidecarPath, sidecar); err != nil {
		derr := &Error{Kind: Metadata, Err: err}
		sink.Report(progress.DownloadFailed(slotID, title, derr.Error()))
		return Result{}, derr
	}

	sink.Report(progress.DownloadCompleted(slotID, title, downloaded))

	return Result{
		AudioPath:       audioPath,
		SidecarPath:     sidecarPath,
		BytesDownloaded: downloaded,
		ContentHash:     hash,
	}, nil
}

// streamReadError wraps a failure reading from the response body, as distinct from a
// failure writing/flushing the partial file — the two map to different download.Kinds.
type streamReadError struct{ err error }

func (e streamReadError) Error() string { return e.err.Error() }
func (e streamReadError) Unwrap() error { return e.err }

func stream(ctx context.Context, body io.Reader, partialPath string, slotID int, total *int64, sink progress.Sink) (hash string, downloaded int64, err error) {
	f, err := os.Create(partialPath)
	if err != nil {
		return "", 0, fmt.Errorf("create partial file: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	counter := &countingWriter{}
	dest := io.MultiWriter(f, hasher, counter)

	limiter := rate.Sometimes{Interval: progressInterval}
	buf := make([]byte, 64*1024)
	for {
		if err := ctx.Err(); err != nil {
			return "", 0, streamReadError{err}
		}
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := dest.Write(buf[:n]); werr != nil {
				return "", 0, fmt.Errorf("write partial file: %w", werr)
			}
			limiter.Do(func() {
				sink.Report(progress.DownloadProgress(slotID, counter.n, total))
			})
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", 0, streamReadError{fmt.Errorf("read stream: %w", rerr)}
		}
	}

	if err := f.Sync(); err != nil {
		return "", 0, fmt.Errorf("flush partial file: %w", err)
	}

	sink.Report(progress.DownloadProgress(slotID, counter.n, total))

	return "sha256:" + hex.EncodeToString(hasher.Sum(nil)), counter.n, nil
}

type countingWriter struct{ n int64 }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

func buildSidecar(ep feed.Episode, audioFilename, hash string) state.EpisodeSidecar {
	sidecar := state.EpisodeSidecar{
		Title:         displayTitle(ep.Title),
		Description:   ep.Description,
		GUID:          ep.GUID,
		OriginalURL:   ep.Enclosure.URL,
		DownloadedAt:  time.Now().UTC().Format(time.RFC3339),
		Duration:      ep.Duration,
		EpisodeNumber: ep.EpisodeNumber,
		SeasonNumber:  ep.SeasonNumber,
		AudioFilename: audioFilename,
		ContentHash:   hash,
	}
	if ep.PubDate != nil {
		s := ep.PubDate.UTC().Format(time.RFC3339)
		sidecar.PubDate = &s
	}
	return sidecar
}

func writeSidecar(path string, sidecar state.EpisodeSidecar) error {
	data, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

func displayTitle(title string) string {
	if title == "" {
		return "Untitled"
	}
	return title
}

// toIOError classifies a stream() failure. A read-path failure (context cancellation
// or an error from the response body itself, both wrapped as streamReadError) is a
// Transport error; only a write or flush failure against the partial file on disk is Io.
func toIOError(err error) *Error {
	var rerr streamReadError
	if errors.As(err, &rerr) {
		return &Error{Kind: Transport, Err: rerr.err}
	}
	return &Error{Kind: Io, Err: err}
}
