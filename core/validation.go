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

import (
	"fmt"
	"time"
)

// ValidateMediaItem validates a MediaItem according to domain rules.
//
// Validation rules:
//   - FileRef must not be empty
//   - Kind must be valid (Photo or Video)
//   - Status must be valid if set
//   - Confidence must be within [0,1]
//   - UploadedAt must not be in the future
//
// NOT validated (populated by workers):
//   - Caption, AITags, Vector (empty until a job completes)
//   - ID (0 is valid from database sequences)
func ValidateMediaItem(item *MediaItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidMediaItem)
	}

	if item.FileRef == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMediaItem, ErrEmptyFileRef)
	}

	if err := ValidateMediaKind(item.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMediaItem, err)
	}

	if item.Status != 0 {
		if err := ValidateStatus(item.Status); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMediaItem, err)
		}
	}

	if item.Confidence < 0 || item.Confidence > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidMediaItem, ErrInvalidConfidence)
	}

	if !IsValidTimestamp(item.UploadedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidMediaItem, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateMediaKind validates that a MediaKind has a valid value.
func ValidateMediaKind(kind MediaKind) error {
	if kind != KindPhoto && kind != KindVideo {
		return fmt.Errorf("%w: value %d", ErrInvalidMediaKind, kind)
	}
	return nil
}

// ValidateStatus validates that a ProcessingStatus has a valid value.
func ValidateStatus(status ProcessingStatus) error {
	switch status {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return nil
	}
	return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
}

// ValidateProcessingSettings validates settings values before they are saved.
func ValidateProcessingSettings(settings *ProcessingSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: settings is nil", ErrInvalidSettings)
	}
	if settings.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidSettings)
	}
	if settings.ProcessingTimeout <= 0 {
		return fmt.Errorf("%w: processing timeout must be positive", ErrInvalidSettings)
	}
	if settings.AlbumAdminLimit <= 0 {
		return fmt.Errorf("%w: album admin limit must be positive", ErrInvalidSettings)
	}
	if settings.ScheduleHour < 0 || settings.ScheduleHour > 23 {
		return fmt.Errorf("%w: schedule hour must be between 0 and 23", ErrInvalidSettings)
	}
	if settings.ScheduleMinute < 0 || settings.ScheduleMinute > 59 {
		return fmt.Errorf("%w: schedule minute must be between 0 and 59", ErrInvalidSettings)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
// Zero timestamps are valid; they are filled in by the repository.
func IsValidTimestamp(ts time.Time) bool {
	if ts.IsZero() {
		return true
	}
	return !ts.After(time.Now())
}
