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


package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/perseid/argos/core"
	"github.com/perseid/argos/storage"
)

// SettingsRepository implements storage.SettingsRepository for BadgerDB.
// Settings are held in a single record; Load falls back to defaults when
// nothing has been saved yet.
type SettingsRepository struct {
	backend *Backend
}

var _ storage.SettingsRepository = (*SettingsRepository)(nil)

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(backend *Backend) *SettingsRepository {
	return &SettingsRepository{
		backend: backend,
	}
}

// Load retrieves the current settings, or defaults if none are stored.
func (r *SettingsRepository) Load(ctx context.Context) (*core.ProcessingSettings, error) {
	var settings *core.ProcessingSettings
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSettingsKey())
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			settings, unmarshalErr = storage.UnmarshalProcessingSettings(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, err
	}

	if settings == nil {
		settings = core.DefaultProcessingSettings()
	}
	return settings, nil
}

// Save validates and persists settings.
func (r *SettingsRepository) Save(ctx context.Context, settings *core.ProcessingSettings) error {
	if err := core.ValidateProcessingSettings(settings); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		settings.UpdatedAt = time.Now().UTC()
		value := storage.MarshalProcessingSettings(settings)
		if err := tx.Set(makeSettingsKey(), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
