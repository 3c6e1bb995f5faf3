package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopSinkDiscardsEvents(t *testing.T) {
	var sink Sink = NoopSink{}
	assert.NotPanics(t, func() {
		sink.Report(Fetching("source"))
		sink.Report(SyncCompleted(1, 2, 3))
	})
}

func TestConstructors(t *testing.T) {
	cases := []struct {
		name  string
		event Event
		kind  Kind
	}{
		{"Fetching", Fetching("http://x"), KindFetchingFeed},
		{"Parsed", Parsed("Show", 10, 3), KindFeedParsed},
		{"ScanStarted", ScanStarted(5), KindScanStarted},
		{"ScanProgress", ScanProgress(2), KindScanProgress},
		{"ScanCompleted", ScanCompleted(4), KindScanCompleted},
		{"PartialFilesCleanedUp", PartialFilesCleanedUp(1), KindPartialFilesCleanedUp},
		{"DownloadStarting", DownloadStarting(0, "Ep", nil), KindDownloadStarting},
		{"DownloadProgress", DownloadProgress(0, 100, nil), KindDownloadProgress},
		{"Finalizing", Finalizing(0, "Ep"), KindFinalizing},
		{"DownloadCompleted", DownloadCompleted(0, "Ep", 100), KindDownloadCompleted},
		{"DownloadFailed", DownloadFailed(0, "Ep", "boom"), KindDownloadFailed},
		{"SyncCompleted", SyncCompleted(1, 2, 3), KindSyncCompleted},
		{"Diagnostic", Diagnostic("hello"), KindDiagnostic},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, tc.event.Kind)
		})
	}
}

func TestParsedCarriesCounts(t *testing.T) {
	e := Parsed("Show", 10, 3)
	assert.Equal(t, "Show", e.PodcastTitle)
	assert.Equal(t, 10, e.TotalEpisode)
	assert.Equal(t, 3, e.NewEpisodes)
}

func TestDownloadStartingCarriesTotalBytes(t *testing.T) {
	total := int64(1024)
	e := DownloadStarting(3, "Ep Title", &total)
	assert.Equal(t, 3, e.SlotID)
	assert.Equal(t, "Ep Title", e.EpisodeTitle)
	assert.EqualValues(t, total, *e.TotalBytes)
}

func TestSyncCompletedCarriesCounts(t *testing.T) {
	e := SyncCompleted(4, 5, 6)
	assert.Equal(t, 4, e.Downloaded)
	assert.Equal(t, 5, e.Skipped)
	assert.Equal(t, 6, e.Failed)
}

func TestDiagnosticCarriesMessage(t *testing.T) {
	e := Diagnostic("skipped corrupt sidecar")
	assert.Equal(t, "skipped corrupt sidecar", e.Message)
}
