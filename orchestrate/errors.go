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


package orchestrate

import "errors"

var (
	// ErrPermissionDenied indicates the caller's role does not allow the
	// requested batch.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrSettingsUnavailable indicates the processing settings could not
	// be loaded; a run never proceeds on guessed configuration.
	ErrSettingsUnavailable = errors.New("settings unavailable")

	// ErrResolverUnavailable indicates the caller's grant could not be
	// resolved for infrastructure reasons. It is distinct from
	// ErrPermissionDenied: the caller was not refused, the scope could
	// not be determined.
	ErrResolverUnavailable = errors.New("permission resolution unavailable")

	// ErrItemRepositoryRequired indicates a nil item repository was passed
	// to NewOrchestrator.
	ErrItemRepositoryRequired = errors.New("item repository is required")

	// ErrSettingsRepositoryRequired indicates a nil settings repository
	// was passed to NewOrchestrator.
	ErrSettingsRepositoryRequired = errors.New("settings repository is required")

	// ErrQueueRequired indicates a nil queue was passed to NewOrchestrator.
	ErrQueueRequired = errors.New("queue is required")

	// ErrResolverRequired indicates a nil access resolver was passed to
	// NewOrchestrator.
	ErrResolverRequired = errors.New("access resolver is required")

	// ErrMediaStoreRequired indicates a nil media store was passed to
	// NewOrchestrator.
	ErrMediaStoreRequired = errors.New("media store is required")
)
