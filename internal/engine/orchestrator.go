package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"podsync/internal/config"
	"podsync/internal/download"
	"podsync/internal/feed"
	"podsync/internal/progress"
	"podsync/internal/state"
	"podsync/internal/transport"
)

// FeedLoader matches feed.Load's signature; Sync takes it as a parameter rather than
// calling feed.Load directly so tests can substitute a fixed Podcast without a real
// transport round trip. The int result is the number of items feed.Load dropped before
// they ever reached planning (missing enclosure, duplicate identity within the feed).
type FeedLoader func(context.Context, string, transport.Transport, progress.Sink) (feed.Podcast, int, error)

// FailedEpisode is one entry of Result.FailedEpisodes.
type FailedEpisode struct {
	Title   string
	Message string
}

// Result is what Sync returns: counts plus enough detail on each failure to report it.
type Result struct {
	Downloaded     int
	Skipped        int
	Failed         int
	FailedEpisodes []FailedEpisode
}

// podcastMetadata is the on-disk podcast.json shape, written fresh every run.
type podcastMetadata struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Link        *string `json:"link"`
	Author      *string `json:"author"`
	ImageURL    *string `json:"image_url"`
	FeedURL     string  `json:"feed_url"`
	UpdatedAt   string  `json:"updated_at"`
}

// Sync runs one full phased sync: fetch feed, write podcast metadata, scan, plan,
// download with bounded concurrency, summarize. All dependencies are explicit
// parameters — there is no package-level global state.
func Sync(ctx context.Context, opts config.SyncOptions, loadFeed FeedLoader, t transport.Transport, sink progress.Sink) (Result, error) {
	opts = opts.WithDefaults()
	runID := uuid.New().String()
	logger := slog.With("run_id", runID)

	// 1. Fetch feed.
	podcast, droppedBeforePlanning, err := loadFeed(ctx, opts.Source, t, sink)
	if err != nil {
		logger.Error("feed fetch failed", "error", err)
		return Result{}, fmt.Errorf("fetch feed: %w", err)
	}
	logger.Info("feed fetched", "title", podcast.Title, "episodes", len(podcast.Episodes))

	// 2. Write podcast metadata.
	if err := writePodcastMetadata(opts.OutputDir, podcast); err != nil {
		logger.Error("writing podcast metadata failed", "error", err)
		return Result{}, fmt.Errorf("write podcast metadata: %w", err)
	}

	// 3. Scan.
	existing, err := state.Scan(opts.OutputDir, sink)
	if err != nil {
		logger.Error("scan failed", "error", err)
		return Result{}, fmt.Errorf("scan output directory: %w", err)
	}

	// 4. Plan.
	plan := CreateSyncPlan(podcast.Episodes, existing, opts.Limit)
	baseNames := BaseNames(plan.ToDownload)
	sink.Report(progress.Parsed(podcast.Title, len(podcast.Episodes), len(plan.ToDownload)))
	logger.Info("plan created", "to_download", len(plan.ToDownload), "already_present", plan.AlreadyPresent)

	// 5. Download, bounded by a semaphore of opts.MaxConcurrent permits. Skipped counts
	// episodes already present on disk plus items dropped before planning ever saw them.
	result := Result{Skipped: plan.AlreadyPresent + droppedBeforePlanning}

	if len(plan.ToDownload) > 0 {
		poolSize := opts.MaxConcurrent
		if poolSize > len(plan.ToDownload) {
			poolSize = len(plan.ToDownload)
		}

		sem := semaphore.NewWeighted(int64(poolSize))
		slots := newSlotPool(poolSize)

		var mu sync.Mutex
		var wg sync.WaitGroup

		for _, ep := range plan.ToDownload {
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			slot := slots.acquire()
			wg.Add(1)

			go func(ep feed.Episode, slot int) {
				defer wg.Done()
				defer sem.Release(1)
				defer slots.release(slot)

				base := baseNames[feed.IdentityKey(ep)]
				_, derr := download.Episode(ctx, t, ep, base, slot, opts.OutputDir, sink)

				mu.Lock()
				defer mu.Unlock()
				if derr != nil {
					result.Failed++
					result.FailedEpisodes = append(result.FailedEpisodes, FailedEpisode{
						Title:   displayTitle(ep.Title),
						Message: derr.Error(),
					})
					logger.Warn("episode download failed", "title", ep.Title, "error", derr)
				} else {
					result.Downloaded++
				}
			}(ep, slot)
		}

		wg.Wait()
	}

	// 6. Summarize.
	sink.Report(progress.SyncCompleted(result.Downloaded, result.Skipped, result.Failed))
	logger.Info("sync completed", "downloaded", result.Downloaded, "skipped", result.Skipped, "failed", result.Failed)

	return result, nil
}

func writePodcastMetadata(outputDir string, podcast feed.Podcast) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	meta := podcastMetadata{
		Title:       podcast.Title,
		Description: podcast.Description,
		Link:        podcast.Link,
		Author:      podcast.Author,
		ImageURL:    podcast.ImageURL,
		FeedURL:     podcast.FeedURL,
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal podcast metadata: %w", err)
	}
	path := filepath.Join(outputDir, config.PodcastMetadataFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func displayTitle(title string) string {
	if title == "" {
		return "Untitled"
	}
	return title
}

// slotPool hands out stable indices in [0, size) — a worker's slot is reused by the
// next scheduled worker as soon as it's released.
type slotPool struct {
	mu   sync.Mutex
	free []int
}

func newSlotPool(size int) *slotPool {
	free := make([]int, size)
	for i := range free {
		free[i] = i
	}
	return &slotPool{free: free}
}

func (p *slotPool) acquire() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.free) - 1
	slot := p.free[n]
	p.free = p.free[:n]
	return slot
}

func (p *slotPool) release(slot int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, slot)
}
