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


package queue

import "errors"

var (
	// ErrNoJobReady indicates no queued job has reached its not-before time.
	ErrNoJobReady = errors.New("no job ready")

	// ErrJobNotFound indicates the job ID does not correspond to a live job.
	ErrJobNotFound = errors.New("job not found")

	// ErrNotLeased indicates an ack or fail was attempted on a job that is
	// not currently leased.
	ErrNotLeased = errors.New("job not leased")

	// ErrQueueConflict indicates a transaction conflict persisted across retries.
	ErrQueueConflict = errors.New("queue transaction conflict")
)
