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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidMediaItem indicates a MediaItem failed validation.
	ErrInvalidMediaItem = errors.New("invalid media item")

	// ErrInvalidSettings indicates ProcessingSettings failed validation.
	ErrInvalidSettings = errors.New("invalid processing settings")

	// ErrEmptyFileRef indicates the FileRef field is empty.
	ErrEmptyFileRef = errors.New("file reference cannot be empty")

	// ErrInvalidMediaKind indicates an invalid MediaKind value.
	ErrInvalidMediaKind = errors.New("invalid media kind")

	// ErrInvalidStatus indicates an invalid ProcessingStatus value.
	ErrInvalidStatus = errors.New("invalid processing status")

	// ErrInvalidConfidence indicates a confidence value outside [0,1].
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrInvalidLength indicates a stored record carries a collection
	// length that cannot describe the remaining data.
	ErrInvalidLength = errors.New("invalid collection length")
)
