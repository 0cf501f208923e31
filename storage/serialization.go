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


package storage

import (
	"github.com/perseid/argos/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalMediaItem serializes a MediaItem to bytes.
func MarshalMediaItem(item *core.MediaItem) []byte {
	buf := make([]byte, core.MediaItemMUS.Size(*item))
	core.MediaItemMUS.Marshal(*item, buf)
	return buf
}

// UnmarshalMediaItem deserializes a MediaItem from bytes.
func UnmarshalMediaItem(data []byte) (*core.MediaItem, error) {
	item, _, err := core.MediaItemMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// MarshalJob serializes a Job to bytes.
func MarshalJob(job *core.Job) []byte {
	buf := make([]byte, core.JobMUS.Size(*job))
	core.JobMUS.Marshal(*job, buf)
	return buf
}

// UnmarshalJob deserializes a Job from bytes.
func UnmarshalJob(data []byte) (*core.Job, error) {
	job, _, err := core.JobMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// MarshalProcessingSettings serializes ProcessingSettings to bytes.
func MarshalProcessingSettings(settings *core.ProcessingSettings) []byte {
	buf := make([]byte, core.ProcessingSettingsMUS.Size(*settings))
	core.ProcessingSettingsMUS.Marshal(*settings, buf)
	return buf
}

// UnmarshalProcessingSettings deserializes ProcessingSettings from bytes.
func UnmarshalProcessingSettings(data []byte) (*core.ProcessingSettings, error) {
	settings, _, err := core.ProcessingSettingsMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}
