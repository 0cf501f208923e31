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
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the domain types stored in BadgerDB.
// Fields are written in declaration order; changing an existing field's
// position or type breaks compatibility with stored data.
var (
	IDMUS                 = idMUS{}
	MediaItemMUS          = mediaItemMUS{}
	JobMUS                = jobMUS{}
	ProcessingSettingsMUS = processingSettingsMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type mediaItemMUS struct{}

func (mediaItemMUS) Marshal(item MediaItem, bs []byte) (n int) {
	n = IDMUS.Marshal(item.Id, bs)
	n += IDMUS.Marshal(item.AlbumId, bs[n:])
	n += varint.Int.Marshal(int(item.Kind), bs[n:])
	n += ord.String.Marshal(item.FileRef, bs[n:])
	n += ord.String.Marshal(item.ThumbRef, bs[n:])
	n += ord.String.Marshal(item.Title, bs[n:])
	n += ord.String.Marshal(item.Description, bs[n:])
	n += marshalStrings(item.Tags, bs[n:])
	n += varint.Int.Marshal(int(item.Status), bs[n:])
	n += ord.String.Marshal(item.Caption, bs[n:])
	n += marshalStrings(item.AITags, bs[n:])
	n += raw.Float32.Marshal(item.Confidence, bs[n:])
	n += marshalFloats(item.Vector, bs[n:])
	n += ord.String.Marshal(item.FailureReason, bs[n:])
	n += marshalTime(item.UploadedAt, bs[n:])
	n += marshalTime(item.InsertedAt, bs[n:])
	n += marshalTime(item.UpdatedAt, bs[n:])
	n += marshalTime(item.ProcessedAt, bs[n:])
	return n
}

func (mediaItemMUS) Unmarshal(bs []byte) (item MediaItem, n int, err error) {
	var n1 int
	if item.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if item.AlbumId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var kind int
	if kind, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	item.Kind = MediaKind(kind)
	if item.FileRef, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.ThumbRef, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.Description, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.Tags, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return
	}
	n += n1
	var status int
	if status, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	item.Status = ProcessingStatus(status)
	if item.Caption, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.AITags, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.Confidence, n1, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.Vector, n1, err = unmarshalFloats(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.FailureReason, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.UploadedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if item.ProcessedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (mediaItemMUS) Size(item MediaItem) (size int) {
	size = IDMUS.Size(item.Id)
	size += IDMUS.Size(item.AlbumId)
	size += varint.Int.Size(int(item.Kind))
	size += ord.String.Size(item.FileRef)
	size += ord.String.Size(item.ThumbRef)
	size += ord.String.Size(item.Title)
	size += ord.String.Size(item.Description)
	size += sizeStrings(item.Tags)
	size += varint.Int.Size(int(item.Status))
	size += ord.String.Size(item.Caption)
	size += sizeStrings(item.AITags)
	size += raw.Float32.Size(item.Confidence)
	size += sizeFloats(item.Vector)
	size += ord.String.Size(item.FailureReason)
	size += sizeTime(item.UploadedAt)
	size += sizeTime(item.InsertedAt)
	size += sizeTime(item.UpdatedAt)
	size += sizeTime(item.ProcessedAt)
	return size
}

func (m mediaItemMUS) Skip(bs []byte) (int, error) {
	_, n, err := m.Unmarshal(bs)
	return n, err
}

type jobMUS struct{}

func (jobMUS) Marshal(job Job, bs []byte) (n int) {
	n = ord.String.Marshal(job.Id, bs)
	n += IDMUS.Marshal(job.ItemId, bs[n:])
	n += varint.Int.Marshal(int(job.State), bs[n:])
	n += varint.Int.Marshal(int(job.Priority), bs[n:])
	n += varint.Int.Marshal(job.Attempts, bs[n:])
	n += marshalTime(job.NotBefore, bs[n:])
	n += marshalTime(job.LeaseExpiry, bs[n:])
	n += ord.String.Marshal(job.WorkerId, bs[n:])
	n += marshalTime(job.EnqueuedAt, bs[n:])
	n += ord.String.Marshal(job.LastError, bs[n:])
	return n
}

func (jobMUS) Unmarshal(bs []byte) (job Job, n int, err error) {
	var n1 int
	if job.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if job.ItemId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var state int
	if state, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	job.State = JobState(state)
	var priority int
	if priority, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	job.Priority = Priority(priority)
	if job.Attempts, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if job.NotBefore, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if job.LeaseExpiry, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if job.WorkerId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if job.EnqueuedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if job.LastError, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (jobMUS) Size(job Job) (size int) {
	size = ord.String.Size(job.Id)
	size += IDMUS.Size(job.ItemId)
	size += varint.Int.Size(int(job.State))
	size += varint.Int.Size(int(job.Priority))
	size += varint.Int.Size(job.Attempts)
	size += sizeTime(job.NotBefore)
	size += sizeTime(job.LeaseExpiry)
	size += ord.String.Size(job.WorkerId)
	size += sizeTime(job.EnqueuedAt)
	size += ord.String.Size(job.LastError)
	return size
}

func (j jobMUS) Skip(bs []byte) (int, error) {
	_, n, err := j.Unmarshal(bs)
	return n, err
}

type processingSettingsMUS struct{}

func (processingSettingsMUS) Marshal(s ProcessingSettings, bs []byte) (n int) {
	n = ord.Bool.Marshal(s.AutoProcessOnUpload, bs)
	n += ord.Bool.Marshal(s.ScheduledProcessing, bs[n:])
	n += varint.Int.Marshal(s.BatchSize, bs[n:])
	n += varint.Int64.Marshal(int64(s.ProcessingTimeout), bs[n:])
	n += varint.Int.Marshal(s.AlbumAdminLimit, bs[n:])
	n += varint.Int.Marshal(s.ScheduleHour, bs[n:])
	n += varint.Int.Marshal(s.ScheduleMinute, bs[n:])
	n += marshalTime(s.UpdatedAt, bs[n:])
	return n
}

func (processingSettingsMUS) Unmarshal(bs []byte) (s ProcessingSettings, n int, err error) {
	var n1 int
	if s.AutoProcessOnUpload, n, err = ord.Bool.Unmarshal(bs); err != nil {
		return
	}
	if s.ScheduledProcessing, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if s.BatchSize, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var timeout int64
	if timeout, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	s.ProcessingTimeout = time.Duration(timeout)
	if s.AlbumAdminLimit, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if s.ScheduleHour, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if s.ScheduleMinute, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if s.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (processingSettingsMUS) Size(s ProcessingSettings) (size int) {
	size = ord.Bool.Size(s.AutoProcessOnUpload)
	size += ord.Bool.Size(s.ScheduledProcessing)
	size += varint.Int.Size(s.BatchSize)
	size += varint.Int64.Size(int64(s.ProcessingTimeout))
	size += varint.Int.Size(s.AlbumAdminLimit)
	size += varint.Int.Size(s.ScheduleHour)
	size += varint.Int.Size(s.ScheduleMinute)
	size += sizeTime(s.UpdatedAt)
	return size
}

func (p processingSettingsMUS) Skip(bs []byte) (int, error) {
	_, n, err := p.Unmarshal(bs)
	return n, err
}

// Timestamps are stored as microseconds since the Unix epoch.
// The zero time is stored as 0 and restored as the zero time.

func marshalTime(t time.Time, bs []byte) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Marshal(micros, bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micros == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Size(micros)
}

func marshalStrings(values []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(values), bs)
	for _, v := range values {
		n += ord.String.Marshal(v, bs[n:])
	}
	return n
}

func unmarshalStrings(bs []byte) (values []string, n int, err error) {
	var length int
	if length, n, err = varint.Int.Unmarshal(bs); err != nil {
		return
	}
	if length == 0 {
		return
	}
	// Every string costs at least its one-byte length prefix, so a
	// count beyond the remaining bytes can only come from corruption.
	// Checked before allocating.
	if length < 0 || length > len(bs)-n {
		err = ErrInvalidLength
		return
	}
	values = make([]string, length)
	var n1 int
	for i := 0; i < length; i++ {
		if values[i], n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += n1
	}
	return
}

func sizeStrings(values []string) (size int) {
	size = varint.Int.Size(len(values))
	for _, v := range values {
		size += ord.String.Size(v)
	}
	return size
}

func marshalFloats(values []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(values), bs)
	for _, v := range values {
		n += raw.Float32.Marshal(v, bs[n:])
	}
	return n
}

func unmarshalFloats(bs []byte) (values []float32, n int, err error) {
	var length int
	if length, n, err = varint.Int.Unmarshal(bs); err != nil {
		return
	}
	if length == 0 {
		return
	}
	if length < 0 || length > (len(bs)-n)/4 {
		err = ErrInvalidLength
		return
	}
	values = make([]float32, length)
	var n1 int
	for i := 0; i < length; i++ {
		if values[i], n1, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += n1
	}
	return
}

func sizeFloats(values []float32) (size int) {
	size = varint.Int.Size(len(values))
	for _, v := range values {
		size += raw.Float32.Size(v)
	}
	return size
}
