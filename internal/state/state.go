// Package state scans the sync engine's sole persistent state — the output
// directory — into an OutputState, and defines the on-disk EpisodeSidecar record that
// both this scanner and internal/download read and write. There is deliberately no
// separate index or database: the directory listing plus its sidecars is the entire
// source of truth.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"podsync/internal/config"
	"podsync/internal/progress"
)

// EpisodeSidecar is the on-disk record written alongside each downloaded audio file.
// Optional fields are omitted from JSON when absent.
type EpisodeSidecar struct {
	Title         string  `json:"title"`
	Description   *string `json:"description,omitempty"`
	PubDate       *string `json:"pub_date,omitempty"`
	GUID          *string `json:"guid,omitempty"`
	OriginalURL   string  `json:"original_url"`
	DownloadedAt  string  `json:"downloaded_at"`
	Duration      *string `json:"duration,omitempty"`
	EpisodeNumber *int    `json:"episode_number,omitempty"`
	SeasonNumber  *int    `json:"season_number,omitempty"`
	AudioFilename string  `json:"audio_filename"`
	ContentHash   string  `json:"content_hash"`
}

// Record is one OutputState entry: what the scanner learned about a single
// already-downloaded episode.
type Record struct {
	SidecarPath   string
	AudioFilename string
	GUID          *string
}

// OutputState maps an episode's identity key (GUID, or enclosure URL when absent) to
// what the scanner found on disk for it.
type OutputState map[string]Record

// Kind classifies a state-layer failure.
type Kind int

const (
	Io Kind = iota
	SidecarCorrupt
)

// Error is the state package's error taxonomy.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	kind := "io"
	if e.Kind == SidecarCorrupt {
		kind = "sidecar_corrupt"
	}
	return fmt.Sprintf("state: %s: %s: %v", kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Scan enumerates outputDir non-recursively, deleting stale *.partial files and
// reading episode sidecars into an OutputState. A malformed sidecar is a diagnostic,
// not a scan failure; only directory-level I/O failures are fatal.
func Scan(outputDir string, sink progress.Sink) (OutputState, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, &Error{Kind: Io, Path: outputDir, Err: fmt.Errorf("create output directory: %w", err)}
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, &Error{Kind: Io, Path: outputDir, Err: fmt.Errorf("read output directory: %w", err)}
	}

	sink.Report(progress.ScanStarted(len(entries)))

	out := make(OutputState)
	partialsRemoved := 0

	for i, entry := range entries {
		name := entry.Name()
		full := filepath.Join(outputDir, name)

		switch {
		case !entry.Type().IsRegular() && entry.Type() != 0:
			// directories and other non-regular entries carry no sidecar/partial meaning
		case strings.HasSuffix(name, config.PartialSuffix):
			if err := os.Remove(full); err == nil {
				partialsRemoved++
			}
		case strings.HasSuffix(name, config.SidecarExt) && name != config.PodcastMetadataFile:
			identity, record, err := readSidecar(full)
			if err != nil {
				sink.Report(progress.Diagnostic(fmt.Sprintf("skipping corrupt sidecar %s: %v", name, err)))
				continue
			}
			out[identity] = record
		}

		sink.Report(progress.ScanProgress(i + 1))
	}

	if partialsRemoved > 0 {
		sink.Report(progress.PartialFilesCleanedUp(partialsRemoved))
	}
	sink.Report(progress.ScanCompleted(len(out)))

	return out, nil
}

// readSidecar reads and validates a single sidecar file, returning the identity key it
// should be filed under in OutputState (its GUID when present, else its original
// enclosure URL — mirroring feed.IdentityKey so a scanned record and a freshly parsed
// episode always agree on identity).
func readSidecar(path string) (string, Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", Record{}, fmt.Errorf("read: %w", err)
	}
	var sidecar EpisodeSidecar
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return "", Record{}, fmt.Errorf("unmarshal: %w", err)
	}
	if sidecar.AudioFilename == "" {
		return "", Record{}, fmt.Errorf("missing audio_filename")
	}

	identity := sidecar.OriginalURL
	if sidecar.GUID != nil && *sidecar.GUID != "" {
		identity = *sidecar.GUID
	}
	if identity == "" {
		return "", Record{}, fmt.Errorf("sidecar has neither guid nor original_url")
	}

	return identity, Record{
		SidecarPath:   path,
		AudioFilename: sidecar.AudioFilename,
		GUID:          sidecar.GUID,
	}, nil
}
