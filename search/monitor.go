package search

import "github.com/perseid/argos/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterEmbedding(dimensions int)
	EmbeddingDegraded(err error)
	AfterCandidateRetrieval(count int)
	AfterScoring(scores []float32)
	AfterThreshold(cutoff float32, kept int)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                  {}
func (n *noopMonitor) AfterEmbedding(_ int)            {}
func (n *noopMonitor) EmbeddingDegraded(_ error)       {}
func (n *noopMonitor) AfterCandidateRetrieval(_ int)   {}
func (n *noopMonitor) AfterScoring(_ []float32)        {}
func (n *noopMonitor) AfterThreshold(_ float32, _ int) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)   {}
