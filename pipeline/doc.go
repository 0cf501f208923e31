// Package pipeline runs the analysis workers.
//
// A Pool hosts a fixed set of workers on a shared goroutine pool. Each
// worker repeatedly leases a job from the queue, reads the item's media
// content, runs vision captioning and text embedding, and acknowledges
// the job with the combined result. Failures are reported back to the
// queue, which decides between retry with backoff and dead-lettering
// based on whether the failure was permanent.
//
// Workers reload the processing settings on every lease so an operator
// change to the per-item timeout takes effect without a restart. Each
// analysis runs under a context bounded by that timeout.
//
// Videos are analyzed through their thumbnail frame. An item whose
// media content is missing fails permanently; there is no point
// retrying a read that cannot succeed.
package pipeline
