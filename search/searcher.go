package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/perseid/argos/ai"
	"github.com/perseid/argos/core"
	"github.com/perseid/argos/storage"
)

const defaultLimit = 20

// Query describes one search request.
type Query struct {
	Text    string
	AlbumId core.ID        // 0 = all albums
	Kind    core.MediaKind // 0 = all kinds
	Limit   int            // 0 = defaultLimit
	Offset  int
}

// Searcher provides hybrid text and semantic search over media items.
type Searcher struct {
	items    storage.ItemRepository
	embedder ai.Embedder
	minScore float32
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinScore sets the floor below which results are never returned.
func WithMinScore(min float32) Option {
	return func(s *Searcher) error {
		s.minScore = min
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(items storage.ItemRepository, provider ai.Provider, opts ...Option) (*Searcher, error) {
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		items:    items,
		embedder: provider.Embedder(),
		minScore: defaultMinScore,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Search runs a query and returns ranked results.
func (s *Searcher) Search(ctx context.Context, query Query) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, nil)
}

// SearchWithMonitor runs a query with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query Query, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query.Text)

	queryWords := tokenizeAndFilter(query.Text)
	if len(queryWords) == 0 {
		return nil, ErrEmptyQuery
	}

	// Embedding failure degrades to text-only scoring. A slow or down
	// inference service must not take search down with it.
	queryVector := s.embedQuery(ctx, query.Text, monitor)

	candidates, err := s.items.ListItems(ctx, storage.ItemFilter{
		AlbumId: query.AlbumId,
		Kind:    query.Kind,
	})
	if err != nil {
		s.logger.Error("error listing search candidates", "err", err)
		return nil, err
	}
	monitor.AfterCandidateRetrieval(len(candidates))

	results := make([]*core.SearchResult, 0, len(candidates))
	for _, item := range candidates {
		result := s.score(item, queryWords, queryVector)
		if result.Score > 0 {
			results = append(results, result)
		}
	}

	scores := make([]float32, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	monitor.AfterScoring(scores)

	cutoff := adaptiveCutoff(scores, s.minScore)
	kept := results[:0]
	for _, r := range results {
		if r.Score >= cutoff {
			kept = append(kept, r)
		}
	}
	results = kept
	monitor.AfterThreshold(cutoff, len(results))

	// Rank by score; ties go to the most recent upload.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].Item.UploadedAt.Equal(results[j].Item.UploadedAt) {
			return results[i].Item.UploadedAt.After(results[j].Item.UploadedAt)
		}
		return results[i].Item.Id > results[j].Item.Id
	})

	results = paginate(results, query.Offset, query.Limit)
	monitor.Finish(results)
	return results, nil
}

// embedQuery returns the normalized query embedding, or nil when the
// embedding service fails.
func (s *Searcher) embedQuery(ctx context.Context, text string, monitor SearchMonitor) []float32 {
	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		s.logger.Warn("query embedding failed, degrading to text-only search", "err", err)
		monitor.EmbeddingDegraded(err)
		return nil
	}
	if len(vector) == 0 {
		return nil
	}
	monitor.AfterEmbedding(len(vector))
	return core.NormalizeVector(vector)
}

// score computes the combined relevance of one item. Items with a
// stored vector blend text and semantic scores equally; items without
// one (analysis pending or failed) are scored on text alone, as is
// everything when the query could not be embedded.
func (s *Searcher) score(item *core.MediaItem, queryWords []string, queryVector []float32) *core.SearchResult {
	result := &core.SearchResult{Item: item}
	result.TextScore = textScore(queryWords, item.SearchText())

	if queryVector != nil && item.Status == core.StatusCompleted && len(item.Vector) > 0 {
		similarity := core.CosineSimilarity(queryVector, item.Vector)
		if similarity > 0 {
			result.SemanticScore = similarity
		}
		result.Score = 0.5*result.TextScore + 0.5*result.SemanticScore
	} else {
		result.Score = result.TextScore
	}
	return result
}

func paginate(results []*core.SearchResult, offset, limit int) []*core.SearchResult {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []*core.SearchResult{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}
