// Copyright 2025 Perseid Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package queue implements the durable analysis job queue.
//
// Jobs are stored in BadgerDB alongside the media items they reference,
// so a process restart loses no queued work. The queue maintains one job
// per media item: enqueueing an item that already has a live job returns
// the existing job instead of creating a duplicate.
//
// # Lifecycle
//
// A job moves through three states. Enqueue creates it queued with a
// not-before time; Lease atomically claims the oldest ready job within
// the highest ready priority band and stamps a lease expiry; Ack removes
// the job and writes the analysis results to the item in one step; Fail
// either requeues the job with exponential backoff or, once the attempt
// budget is exhausted, moves it to the dead-letter set and marks the
// item failed.
//
// Leases are time bounded. A sweeper scans for expired leases and
// returns their jobs to the queue without consuming a retry attempt,
// so work lost to a crashed worker is retried rather than dropped.
//
// # Ordering
//
// Ready jobs are indexed by priority, then not-before time, then item
// ID. High-priority jobs (on-demand batches) are always leased before
// normal-priority jobs (scheduled runs) regardless of age.
package queue
