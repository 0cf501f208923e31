package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perseid/argos/ai/mock"
	"github.com/perseid/argos/core"
	"github.com/perseid/argos/storage"
	badgerstore "github.com/perseid/argos/storage/badger"
)

// recordingMonitor captures monitor callbacks for assertions.
type recordingMonitor struct {
	degraded   bool
	candidates int
	cutoff     float32
	kept       int
}

func (m *recordingMonitor) Start(_ string)                {}
func (m *recordingMonitor) AfterEmbedding(_ int)          {}
func (m *recordingMonitor) EmbeddingDegraded(_ error)     { m.degraded = true }
func (m *recordingMonitor) AfterCandidateRetrieval(n int) { m.candidates = n }
func (m *recordingMonitor) AfterScoring(_ []float32)      {}
func (m *recordingMonitor) AfterThreshold(c float32, k int) {
	m.cutoff = c
	m.kept = k
}
func (m *recordingMonitor) Finish(_ []*core.SearchResult) {}

func newSearchEnv(t *testing.T) (storage.ItemRepository, *mock.MockEmbedder, *Searcher) {
	t.Helper()
	items, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		items.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedder()
	provider := mock.NewMockProviderWithServices(mock.NewMockAnalyzer(), embedder)
	searcher, err := NewSearcher(items, provider)
	require.NoError(t, err)
	return items, embedder, searcher
}

func addItem(t *testing.T, items storage.ItemRepository, item *core.MediaItem) *core.MediaItem {
	t.Helper()
	if item.FileRef == "" {
		item.FileRef = "photos/x.jpg"
	}
	added, err := items.AddItems(context.Background(), item)
	require.NoError(t, err)
	return added[0]
}

func TestSearchEmptyQueryRejected(t *testing.T) {
	_, _, searcher := newSearchEnv(t)

	for _, text := range []string{"", "   ", "the a of"} {
		_, err := searcher.Search(context.Background(), Query{Text: text})
		assert.ErrorIs(t, err, ErrEmptyQuery, "query %q", text)
	}
}

func TestSearchMatchesTextFields(t *testing.T) {
	items, _, searcher := newSearchEnv(t)
	ctx := context.Background()

	hit := addItem(t, items, &core.MediaItem{
		Kind:  core.KindPhoto,
		Title: "Sunset at the beach",
	})
	addItem(t, items, &core.MediaItem{
		Kind:  core.KindPhoto,
		Title: "Office party",
	})

	results, err := searcher.Search(ctx, Query{Text: "sunset beach"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, hit.Id, results[0].Item.Id)
	assert.Equal(t, float32(1.0), results[0].TextScore)
	assert.Zero(t, results[0].SemanticScore, "pending items carry no vector")
}

func TestSearchBlendsSemanticScoreForCompletedItems(t *testing.T) {
	items, embedder, searcher := newSearchEnv(t)
	ctx := context.Background()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	// Same caption text, but only the completed item has a vector.
	completed := addItem(t, items, &core.MediaItem{
		Kind:    core.KindPhoto,
		Caption: "a dog running",
		Status:  core.StatusCompleted,
		Vector:  []float32{1, 0},
	})
	pending := addItem(t, items, &core.MediaItem{
		Kind:  core.KindPhoto,
		Title: "a dog sitting",
	})

	results, err := searcher.Search(ctx, Query{Text: "dog"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, completed.Id, results[0].Item.Id)
	assert.InDelta(t, 1.0, results[0].SemanticScore, 1e-6)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6, "0.5*text + 0.5*semantic")

	assert.Equal(t, pending.Id, results[1].Item.Id)
	assert.Zero(t, results[1].SemanticScore)
	assert.InDelta(t, 1.0, results[1].Score, 1e-6, "text-only items keep full text weight")
}

func TestSearchDegradesToTextOnlyWhenEmbeddingFails(t *testing.T) {
	items, embedder, searcher := newSearchEnv(t)
	ctx := context.Background()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("inference service down")
	}

	addItem(t, items, &core.MediaItem{
		Kind:    core.KindPhoto,
		Caption: "a dog running",
		Status:  core.StatusCompleted,
		Vector:  []float32{1, 0},
	})

	monitor := &recordingMonitor{}
	results, err := searcher.SearchWithMonitor(ctx, Query{Text: "dog"}, monitor)
	require.NoError(t, err, "embedding failure must not fail the search")
	require.Len(t, results, 1)
	assert.True(t, monitor.degraded)
	assert.Zero(t, results[0].SemanticScore)
	assert.Equal(t, float32(1.0), results[0].Score)
}

func TestSearchAdaptiveCutoffDropsWeakMatches(t *testing.T) {
	items, _, searcher := newSearchEnv(t)
	ctx := context.Background()

	addItem(t, items, &core.MediaItem{Kind: core.KindPhoto, Title: "sunset beach"})
	addItem(t, items, &core.MediaItem{Kind: core.KindPhoto, Title: "beach sunset panorama"})
	weak := addItem(t, items, &core.MediaItem{Kind: core.KindPhoto, Title: "beach volleyball"})

	monitor := &recordingMonitor{}
	results, err := searcher.SearchWithMonitor(ctx, Query{Text: "sunset beach"}, monitor)
	require.NoError(t, err)

	// Scores 1.0, 1.0, 0.5: the cutoff lands above 0.5.
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEqual(t, weak.Id, r.Item.Id)
	}
	assert.Greater(t, monitor.cutoff, float32(0.5))
	assert.Equal(t, 2, monitor.kept)
}

func TestSearchTieBreaksByRecency(t *testing.T) {
	items, _, searcher := newSearchEnv(t)
	ctx := context.Background()

	older := addItem(t, items, &core.MediaItem{
		Kind:       core.KindPhoto,
		Title:      "sunset",
		UploadedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	newer := addItem(t, items, &core.MediaItem{
		Kind:       core.KindPhoto,
		Title:      "sunset",
		UploadedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})

	results, err := searcher.Search(ctx, Query{Text: "sunset"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, newer.Id, results[0].Item.Id)
	assert.Equal(t, older.Id, results[1].Item.Id)
}

func TestSearchFiltersByAlbumAndKind(t *testing.T) {
	items, _, searcher := newSearchEnv(t)
	ctx := context.Background()

	inAlbum := addItem(t, items, &core.MediaItem{AlbumId: 1, Kind: core.KindPhoto, Title: "sunset"})
	addItem(t, items, &core.MediaItem{AlbumId: 2, Kind: core.KindPhoto, Title: "sunset"})
	addItem(t, items, &core.MediaItem{AlbumId: 1, Kind: core.KindVideo, Title: "sunset", ThumbRef: "t.jpg"})

	results, err := searcher.Search(ctx, Query{Text: "sunset", AlbumId: 1, Kind: core.KindPhoto})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, inAlbum.Id, results[0].Item.Id)
}

func TestSearchPagination(t *testing.T) {
	items, _, searcher := newSearchEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		addItem(t, items, &core.MediaItem{
			Kind:       core.KindPhoto,
			Title:      "sunset",
			UploadedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	page1, err := searcher.Search(ctx, Query{Text: "sunset", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)

	page2, err := searcher.Search(ctx, Query{Text: "sunset", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.NotEqual(t, page1[0].Item.Id, page2[0].Item.Id)

	page3, err := searcher.Search(ctx, Query{Text: "sunset", Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, page3, 1)

	empty, err := searcher.Search(ctx, Query{Text: "sunset", Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
