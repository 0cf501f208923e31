// Package orchestrate selects media items for analysis and enqueues them.
//
// A batch run is permission gated: the caller's grant determines which
// albums may be processed and how large the batch may grow. Site
// administrators are bounded only by the configured batch size and any
// explicit limit; album administrators are additionally capped by the
// per-role limit and must name one of their albums.
//
// Runs are idempotent with respect to the queue. Items that already
// have a live job are counted rather than re-enqueued, so a nervous
// operator clicking the button twice does not double the work.
package orchestrate
