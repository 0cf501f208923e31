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


// Package argos bundles the album analysis system behind one handle.
//
// Open builds the storage backend, repositories, job queue and AI
// provider together, so embedding applications do not have to wire the
// pieces by hand. The factory methods hand out the pipeline pool,
// orchestrator, scheduler and searcher already bound to the shared
// services.
package argos

import (
	"log/slog"

	"github.com/perseid/argos/access"
	"github.com/perseid/argos/ai"
	"github.com/perseid/argos/ai/openai"
	"github.com/perseid/argos/media"
	"github.com/perseid/argos/orchestrate"
	"github.com/perseid/argos/pipeline"
	"github.com/perseid/argos/queue"
	"github.com/perseid/argos/schedule"
	"github.com/perseid/argos/search"
	"github.com/perseid/argos/storage"
	badgerstore "github.com/perseid/argos/storage/badger"
)

// System owns the shared services of one album analysis deployment.
type System struct {
	backend  *badgerstore.Backend
	items    storage.ItemRepository
	settings storage.SettingsRepository
	queue    *queue.Queue
	store    media.Store
	resolver *access.StaticResolver
	provider ai.Provider
	logger   *slog.Logger
}

// SystemOption configures Open.
type SystemOption func(*systemOptions)

type systemOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
}

// WithAIConfig sets the AI endpoint configuration.
func WithAIConfig(config *ai.Config) SystemOption {
	return func(o *systemOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a ready-made AI provider instead of building
// one from configuration. Used with mocks in tests.
func WithProvider(provider ai.Provider) SystemOption {
	return func(o *systemOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the storage backend in memory. The media store is
// in-memory as well; mediaRoot is ignored.
func WithInMemory() SystemOption {
	return func(o *systemOptions) {
		o.inMemory = true
	}
}

// Open builds a System over the database at dbPath and the media
// content under mediaRoot.
func Open(dbPath, mediaRoot string, opts ...SystemOption) (*System, error) {
	options := &systemOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badgerstore.OpenBackend(dbPath, options.inMemory)
	if err != nil {
		return nil, err
	}

	items, err := badgerstore.NewItemRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	settings := badgerstore.NewSettingsRepository(backend)

	q, err := queue.NewQueue(backend, items)
	if err != nil {
		items.Close()
		backend.Close()
		return nil, err
	}

	var store media.Store
	if options.inMemory {
		store = media.NewMemStore()
	} else {
		store, err = media.NewFSStore(mediaRoot)
		if err != nil {
			items.Close()
			backend.Close()
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			items.Close()
			backend.Close()
			return nil, err
		}
	}

	return &System{
		backend:  backend,
		items:    items,
		settings: settings,
		queue:    q,
		store:    store,
		resolver: access.NewStaticResolver(),
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

// Close releases the AI provider, repositories and storage backend.
func (s *System) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.items.Close(); err != nil {
		s.logger.Error("error closing item repository", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Items returns the media item repository.
func (s *System) Items() storage.ItemRepository {
	return s.items
}

// Settings returns the processing settings repository.
func (s *System) Settings() storage.SettingsRepository {
	return s.settings
}

// Queue returns the analysis job queue.
func (s *System) Queue() *queue.Queue {
	return s.queue
}

// MediaStore returns the media content store.
func (s *System) MediaStore() media.Store {
	return s.store
}

// Resolver returns the access grant resolver.
func (s *System) Resolver() *access.StaticResolver {
	return s.resolver
}

// NewPool creates an analysis worker pool bound to the system services.
func (s *System) NewPool(opts ...pipeline.Option) (*pipeline.Pool, error) {
	return pipeline.NewPool(s.queue, s.items, s.settings, s.store, s.provider, opts...)
}

// NewOrchestrator creates a batch orchestrator bound to the system services.
func (s *System) NewOrchestrator() (*orchestrate.Orchestrator, error) {
	return orchestrate.NewOrchestrator(s.items, s.settings, s.queue, s.resolver, s.store)
}

// NewScheduler creates a nightly run scheduler driving the given orchestrator.
func (s *System) NewScheduler(orch *orchestrate.Orchestrator, opts ...schedule.Option) *schedule.Scheduler {
	return schedule.NewScheduler(orch, s.settings, opts...)
}

// NewSearcher creates a hybrid searcher bound to the system services.
func (s *System) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(s.items, s.provider, opts...)
}
