package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/perseid/argos/ai"
	"github.com/perseid/argos/core"
	"github.com/perseid/argos/media"
	"github.com/perseid/argos/queue"
	"github.com/perseid/argos/storage"
)

const defaultPollInterval = time.Second

// leaseGrace pads the job lease beyond the per-attempt timeout. An
// attempt that uses its whole budget must still Ack or Fail before the
// sweeper can reclaim the job, or the item is reprocessed.
const leaseGrace = 30 * time.Second

// Pool runs analysis workers over a shared goroutine pool.
type Pool struct {
	queue    *queue.Queue
	items    storage.ItemRepository
	settings storage.SettingsRepository
	store    media.Store
	provider ai.Provider

	pool         *ants.Pool
	workers      int
	pollInterval time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

// Option configures a Pool.
type Option func(*Pool) error

// WithWorkers sets the number of concurrent workers.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(n int) Option {
	return func(p *Pool) error {
		if n < 1 {
			n = 1
		}
		p.workers = n
		return nil
	}
}

// WithPollInterval sets how long an idle worker waits between lease attempts.
func WithPollInterval(d time.Duration) Option {
	return func(p *Pool) error {
		if d <= 0 {
			return fmt.Errorf("poll interval must be positive, got %v", d)
		}
		p.pollInterval = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPool creates a worker pool over the given queue and services.
func NewPool(
	q *queue.Queue,
	items storage.ItemRepository,
	settings storage.SettingsRepository,
	store media.Store,
	provider ai.Provider,
	opts ...Option,
) (*Pool, error) {
	if q == nil {
		return nil, ErrQueueRequired
	}
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if settings == nil {
		return nil, ErrSettingsRepositoryRequired
	}
	if store == nil {
		return nil, ErrMediaStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}

	p := &Pool{
		queue:        q,
		items:        items,
		settings:     settings,
		store:        store,
		provider:     provider,
		workers:      workers,
		pollInterval: defaultPollInterval,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	antsPool, err := ants.NewPool(p.workers)
	if err != nil {
		return nil, err
	}
	p.pool = antsPool
	return p, nil
}

// Start launches the workers. They run until ctx is cancelled.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return ErrAlreadyStarted
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		workerID := fmt.Sprintf("worker-%d", i+1)
		p.wg.Add(1)
		err := p.pool.Submit(func() {
			defer p.wg.Done()
			p.runWorker(ctx, workerID)
		})
		if err != nil {
			p.wg.Done()
			return err
		}
	}
	p.logger.Info("analysis pool started", "workers", p.workers)
	return nil
}

// Wait blocks until all workers have exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Release stops accepting work and frees the underlying goroutine pool.
// Cancel the Start context and Wait before calling Release.
func (p *Pool) Release() {
	p.pool.Release()
}

func (p *Pool) runWorker(ctx context.Context, workerID string) {
	logger := p.logger.With("worker", workerID)
	logger.Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker stopped")
			return
		default:
		}

		// Settings are reloaded per lease so timeout changes apply
		// without a restart.
		settings, err := p.settings.Load(ctx)
		if err != nil {
			logger.Error("failed to load settings", "err", err)
			p.sleep(ctx, p.pollInterval)
			continue
		}

		job, err := p.queue.Lease(ctx, workerID, settings.ProcessingTimeout+leaseGrace)
		if errors.Is(err, queue.ErrNoJobReady) {
			p.sleep(ctx, p.pollInterval)
			continue
		}
		if err != nil {
			logger.Error("lease failed", "err", err)
			p.sleep(ctx, p.pollInterval)
			continue
		}

		p.process(ctx, logger, job, settings.ProcessingTimeout)
	}
}

// process runs a single analysis attempt for a leased job.
func (p *Pool) process(ctx context.Context, logger *slog.Logger, job *core.Job, timeout time.Duration) {
	item, err := p.items.GetItem(ctx, job.ItemId)
	if errors.Is(err, storage.ErrNotFound) {
		// Item deleted after enqueue; acking drops the job.
		if err := p.queue.Ack(ctx, job.Id, &queue.Result{}); err != nil {
			logger.Error("failed to drop orphaned job", "job", job.Id, "err", err)
		}
		return
	}
	if err != nil {
		p.fail(ctx, logger, job, err, true)
		return
	}

	content, err := p.store.Read(item.AnalysisRef())
	if err != nil {
		// Unreadable content never becomes readable by retrying.
		p.fail(ctx, logger, job, err, false)
		return
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	analysis, err := p.provider.Analyzer().Analyze(attemptCtx, content)
	if err != nil {
		p.fail(ctx, logger, job, err, !ai.IsPermanent(err))
		return
	}

	vector, err := p.provider.Embedder().EmbedText(attemptCtx, embeddingText(analysis))
	if err != nil {
		p.fail(ctx, logger, job, err, !ai.IsPermanent(err))
		return
	}

	result := &queue.Result{
		Caption:    analysis.Caption,
		Tags:       analysis.Tags,
		Confidence: analysis.Confidence,
		Vector:     core.NormalizeVector(vector),
	}
	if err := p.queue.Ack(ctx, job.Id, result); err != nil {
		logger.Error("ack failed", "job", job.Id, "item", job.ItemId, "err", err)
		return
	}
	logger.Info("item analyzed", "item", job.ItemId, "tags", len(analysis.Tags))
}

func (p *Pool) fail(ctx context.Context, logger *slog.Logger, job *core.Job, cause error, retryable bool) {
	if err := p.queue.Fail(ctx, job.Id, cause, retryable); err != nil {
		logger.Error("failed to record job failure", "job", job.Id, "err", err)
	}
}

func (p *Pool) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// embeddingText builds the text embedded for semantic search: the
// caption followed by the tags, sharing the embedding space queries
// are projected into.
func embeddingText(a *ai.Analysis) string {
	if len(a.Tags) == 0 {
		return a.Caption
	}
	return a.Caption + " " + strings.Join(a.Tags, " ")
}
