// Package search implements hybrid text and semantic search over media items.
//
// A query is scored against each candidate item two ways: a text score
// measuring how many query words appear in the item's title, caption
// and tags, and a semantic score from cosine similarity between the
// query embedding and the item's stored vector. Items carry a vector
// only once analysis has completed; unanalyzed items compete on their
// text score alone.
//
// The result set is cut off adaptively. Instead of a fixed relevance
// threshold, the cutoff is derived from the score distribution of the
// candidate set (one standard deviation below the mean, with a fixed
// floor), so a query with uniformly weak matches still returns its best
// few and a query with strong matches drops the stragglers.
//
// When the embedding service is unavailable the search degrades to
// text-only scoring rather than failing; the degradation is logged and
// reported to the monitor.
package search
