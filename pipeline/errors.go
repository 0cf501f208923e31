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


package pipeline

import "errors"

var (
	// ErrQueueRequired indicates a nil queue was passed to NewPool.
	ErrQueueRequired = errors.New("queue is required")

	// ErrItemRepositoryRequired indicates a nil item repository was passed to NewPool.
	ErrItemRepositoryRequired = errors.New("item repository is required")

	// ErrSettingsRepositoryRequired indicates a nil settings repository was passed to NewPool.
	ErrSettingsRepositoryRequired = errors.New("settings repository is required")

	// ErrMediaStoreRequired indicates a nil media store was passed to NewPool.
	ErrMediaStoreRequired = errors.New("media store is required")

	// ErrAIProviderRequired indicates a nil AI provider was passed to NewPool.
	ErrAIProviderRequired = errors.New("AI provider is required")

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("pool already started")
)
