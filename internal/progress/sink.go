package progress

import (
	"log/slog"

	"github.com/dustin/go-humanize"
)

// SlogSink is the default non-quiet Sink: structured log lines via slog, with byte
// counts formatted the way a terminal progress display would (humanize.Bytes). This is
// NOT a colored/emoji terminal renderer — just enough to make the module runnable
// without one.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink returns a SlogSink writing through logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

// Report implements Sink.
func (s *SlogSink) Report(e Event) {
	switch e.Kind {
	case KindFetchingFeed:
		s.logger.Info("fetching feed", "source", e.Source)
	case KindFeedParsed:
		s.logger.Info("feed parsed", "title", e.PodcastTitle, "total_episodes", e.TotalEpisode, "new_episodes", e.NewEpisodes)
	case KindScanStarted:
		s.logger.Info("scan started", "total_files", e.TotalFiles)
	case KindScanProgress:
		// High-volume; only surfaced at debug level.
		s.logger.Debug("scan progress", "processed", e.Processed)
	case KindScanCompleted:
		s.logger.Info("scan completed", "known_episodes", e.KnownEpisodes)
	case KindPartialFilesCleanedUp:
		s.logger.Info("cleaned up partial files", "count", e.Count)
	case KindDownloadStarting:
		attrs := []any{"slot", e.SlotID, "title", e.EpisodeTitle}
		if e.TotalBytes != nil {
			attrs = append(attrs, "total", humanize.Bytes(uint64(*e.TotalBytes)))
		}
		s.logger.Info("download starting", attrs...)
	case KindDownloadProgress:
		s.logger.Debug("download progress", "slot", e.SlotID, "downloaded", humanize.Bytes(uint64(e.BytesDownloaded)))
	case KindFinalizing:
		s.logger.Info("finalizing", "slot", e.SlotID, "title", e.EpisodeTitle)
	case KindDownloadCompleted:
		s.logger.Info("download completed", "slot", e.SlotID, "title", e.EpisodeTitle, "downloaded", humanize.Bytes(uint64(e.BytesDownloaded)))
	case KindDownloadFailed:
		s.logger.Warn("download failed", "slot", e.SlotID, "title", e.EpisodeTitle, "error", e.ErrorMessage)
	case KindSyncCompleted:
		s.logger.Info("sync completed", "downloaded", e.Downloaded, "skipped", e.Skipped, "failed", e.Failed)
	case KindDiagnostic:
		s.logger.Warn("diagnostic", "message", e.Message)
	}
}
