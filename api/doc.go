// Package api exposes the processing and search operations over HTTP.
//
// The server is intentionally thin: handlers translate between JSON and
// the orchestrator, searcher, queue and repositories, and map domain
// errors onto status codes. Caller identity is taken from the
// X-Argos-Caller header; resolving it to a grant is the orchestrator's
// job, not the transport's.
package api
