package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/perseid/argos/core"
	"github.com/perseid/argos/storage"
	badgerstore "github.com/perseid/argos/storage/badger"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 30 * time.Second
	defaultMaxDelay    = 10 * time.Minute

	// leaseRetries bounds the optimistic transaction retry loop when
	// multiple workers race for the same ready job.
	leaseRetries = 5
)

// Result carries the analysis output a worker acknowledges a job with.
// All fields are written to the media item in a single transaction.
type Result struct {
	Caption    string
	Tags       []string
	Confidence float32
	Vector     []float32
}

// Stats summarizes the queue's current population.
type Stats struct {
	Queued       int
	Leased       int
	DeadLettered int
}

// Queue is a durable job queue backed by BadgerDB.
// It shares a Backend with the item repository so job state and item
// state live in the same database.
type Queue struct {
	backend     *badgerstore.Backend
	items       storage.ItemRepository
	logger      *slog.Logger
	nowFn       func() time.Time
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// Option configures a Queue.
type Option func(*Queue) error

// WithNowFunc overrides the queue's clock. Intended for tests.
func WithNowFunc(fn func() time.Time) Option {
	return func(q *Queue) error {
		if fn == nil {
			return errors.New("now function cannot be nil")
		}
		q.nowFn = fn
		return nil
	}
}

// WithMaxAttempts sets the total attempt budget before dead-lettering.
func WithMaxAttempts(n int) Option {
	return func(q *Queue) error {
		if n < 1 {
			return fmt.Errorf("max attempts must be positive, got %d", n)
		}
		q.maxAttempts = n
		return nil
	}
}

// WithBaseDelay sets the backoff delay after the first failed attempt.
func WithBaseDelay(d time.Duration) Option {
	return func(q *Queue) error {
		if d <= 0 {
			return fmt.Errorf("base delay must be positive, got %v", d)
		}
		q.baseDelay = d
		return nil
	}
}

// WithMaxDelay caps the exponential backoff delay.
func WithMaxDelay(d time.Duration) Option {
	return func(q *Queue) error {
		if d <= 0 {
			return fmt.Errorf("max delay must be positive, got %v", d)
		}
		q.maxDelay = d
		return nil
	}
}

// NewQueue creates a queue over the given backend and item repository.
func NewQueue(backend *badgerstore.Backend, items storage.ItemRepository, opts ...Option) (*Queue, error) {
	q := &Queue{
		backend:     backend,
		items:       items,
		logger:      slog.Default().With("component", "queue"),
		nowFn:       time.Now,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
	}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// EnqueueOption configures a single Enqueue call.
type EnqueueOption func(*enqueueConfig)

type enqueueConfig struct {
	priority core.Priority
	reset    bool
}

// WithPriority sets the job's priority band.
func WithPriority(p core.Priority) EnqueueOption {
	return func(c *enqueueConfig) { c.priority = p }
}

// WithReset returns a previously completed or failed item to pending
// and clears any dead-letter record, giving it a fresh attempt budget.
func WithReset() EnqueueOption {
	return func(c *enqueueConfig) { c.reset = true }
}

// Enqueue creates a job for the item, or returns the existing live job.
// The boolean reports whether a new job was created.
func (q *Queue) Enqueue(ctx context.Context, itemID core.ID, opts ...EnqueueOption) (*core.Job, bool, error) {
	cfg := enqueueConfig{priority: core.PriorityNormal}
	for _, opt := range opts {
		opt(&cfg)
	}

	now := q.nowFn()
	var job *core.Job
	created := false

	err := q.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := readJob(tx, itemID)
		if err != nil {
			return err
		}
		if existing != nil {
			job = existing
			return nil
		}

		job = &core.Job{
			Id:         uuid.NewString(),
			ItemId:     itemID,
			State:      core.JobStateQueued,
			Priority:   cfg.priority,
			NotBefore:  now,
			EnqueuedAt: now,
		}
		if err := writeJob(tx, job); err != nil {
			return err
		}
		if err := tx.Set(makeJobIDKey(job.Id), storage.MarshalID(itemID)); err != nil {
			return err
		}
		if err := tx.Set(makeReadyKey(job.Priority, now.UnixMicro(), itemID), nil); err != nil {
			return err
		}
		if cfg.reset {
			if err := tx.Delete(makeDeadKey(itemID)); err != nil {
				return err
			}
		}
		created = true
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}

	if created && cfg.reset {
		// A forced re-run must not leave stale completed state visible
		// while the new job waits in the queue.
		if err := q.setItemStatus(ctx, itemID, core.StatusPending, ""); err != nil {
			return nil, false, err
		}
	}
	if created {
		q.logger.Debug("job enqueued", "job", job.Id, "item", itemID, "priority", job.Priority)
	}
	return job, created, nil
}

// Lease claims the oldest ready job in the highest ready priority band,
// stamping it with the worker ID and a lease expiry of now plus timeout.
// Returns ErrNoJobReady when nothing is claimable.
func (q *Queue) Lease(ctx context.Context, workerID string, timeout time.Duration) (*core.Job, error) {
	for i := 0; i < leaseRetries; i++ {
		job, err := q.tryLease(workerID, timeout)
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if job == nil {
			return nil, ErrNoJobReady
		}
		if err := q.setItemStatus(ctx, job.ItemId, core.StatusProcessing, ""); err != nil {
			q.logger.Warn("failed to mark item processing", "item", job.ItemId, "err", err)
		}
		return job, nil
	}
	return nil, ErrQueueConflict
}

func (q *Queue) tryLease(workerID string, timeout time.Duration) (*core.Job, error) {
	now := q.nowFn()
	nowMicro := now.UnixMicro()
	var job *core.Job

	err := q.backend.WithTx(func(tx *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.PrefetchValues = false
		itOpts.Prefix = []byte(readyPrefix)

		var readyKey []byte
		var itemID core.ID

		it := tx.NewIterator(itOpts)
		for it.Rewind(); it.Valid(); it.Next() {
			notBefore, id, ok := parseReadyKey(it.Item().Key())
			if !ok {
				continue
			}
			// Within a priority band keys sort by not-before time, so
			// entries with a future not-before hide nothing ready in
			// the same band.
			if notBefore > nowMicro {
				continue
			}
			readyKey = it.Item().KeyCopy(nil)
			itemID = id
			break
		}
		it.Close()

		if readyKey == nil {
			return nil
		}

		j, err := readJob(tx, itemID)
		if err != nil {
			return err
		}
		if j == nil {
			// Stale index entry for a removed job.
			if err := tx.Delete(readyKey); err != nil {
				return err
			}
			return tx.Commit()
		}

		j.State = core.JobStateLeased
		j.WorkerId = workerID
		j.LeaseExpiry = now.Add(timeout)
		if err := tx.Delete(readyKey); err != nil {
			return err
		}
		if err := tx.Set(makeLeaseKey(j.LeaseExpiry.UnixMicro(), itemID), nil); err != nil {
			return err
		}
		if err := writeJob(tx, j); err != nil {
			return err
		}
		job = j
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Ack completes a leased job. The caption, tags, confidence and vector
// are written to the item together with the completed status in one
// repository transaction, then the job is removed. Acking a job whose
// item was deleted removes the job and succeeds.
func (q *Queue) Ack(ctx context.Context, jobID string, result *Result) error {
	job, err := q.lookupJob(jobID)
	if err != nil {
		return err
	}
	if job.State != core.JobStateLeased {
		return fmt.Errorf("%w: job %s is not leased", ErrNotLeased, jobID)
	}

	item, err := q.items.GetItem(ctx, job.ItemId)
	if errors.Is(err, storage.ErrNotFound) {
		q.logger.Info("acked job for deleted item, dropping", "job", jobID, "item", job.ItemId)
		return q.removeJob(job)
	}
	if err != nil {
		return err
	}

	item.Caption = result.Caption
	item.AITags = result.Tags
	item.Confidence = result.Confidence
	item.Vector = result.Vector
	item.Status = core.StatusCompleted
	item.FailureReason = ""
	item.ProcessedAt = q.nowFn()
	if _, err := q.items.UpdateItems(ctx, item); err != nil {
		return err
	}

	if err := q.removeJob(job); err != nil {
		return err
	}
	q.logger.Debug("job acked", "job", jobID, "item", job.ItemId)
	return nil
}

// Fail records a failed attempt. Retryable failures requeue the job
// with exponential backoff until the attempt budget runs out; permanent
// failures and exhausted budgets dead-letter the job and mark the item
// failed.
func (q *Queue) Fail(ctx context.Context, jobID string, cause error, retryable bool) error {
	job, err := q.lookupJob(jobID)
	if err != nil {
		return err
	}
	if job.State != core.JobStateLeased {
		return fmt.Errorf("%w: job %s is not leased", ErrNotLeased, jobID)
	}

	now := q.nowFn()
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	oldLeaseKey := makeLeaseKey(job.LeaseExpiry.UnixMicro(), job.ItemId)

	job.Attempts++
	job.LastError = msg
	job.WorkerId = ""
	job.LeaseExpiry = time.Time{}

	if retryable && job.Attempts < q.maxAttempts {
		delay := q.backoff(job.Attempts)
		job.State = core.JobStateQueued
		job.NotBefore = now.Add(delay)

		err := q.backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Delete(oldLeaseKey); err != nil {
				return err
			}
			if err := tx.Set(makeReadyKey(job.Priority, job.NotBefore.UnixMicro(), job.ItemId), nil); err != nil {
				return err
			}
			if err := writeJob(tx, job); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
		}

		if err := q.setItemStatus(ctx, job.ItemId, core.StatusPending, msg); err != nil {
			q.logger.Warn("failed to reset item status after retryable failure", "item", job.ItemId, "err", err)
		}
		q.logger.Info("job requeued after failure",
			"job", jobID, "item", job.ItemId, "attempts", job.Attempts, "delay", delay, "err", msg)
		return nil
	}

	job.State = core.JobStateDeadLettered
	err = q.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeDeadKey(job.ItemId), storage.MarshalJob(job)); err != nil {
			return err
		}
		if err := tx.Delete(makeJobKey(job.ItemId)); err != nil {
			return err
		}
		if err := tx.Delete(makeJobIDKey(job.Id)); err != nil {
			return err
		}
		if err := tx.Delete(oldLeaseKey); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}

	if err := q.setItemStatus(ctx, job.ItemId, core.StatusFailed, msg); err != nil {
		return err
	}
	q.logger.Warn("job dead-lettered",
		"job", jobID, "item", job.ItemId, "attempts", job.Attempts, "err", msg)
	return nil
}

// Stats counts jobs by state, including the dead-letter set.
func (q *Queue) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Prefix = []byte(jobRecordPrefix)
		it := tx.NewIterator(itOpts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				job, err := storage.UnmarshalJob(val)
				if err != nil {
					return err
				}
				switch job.State {
				case core.JobStateLeased:
					stats.Leased++
				default:
					stats.Queued++
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	dead, err := q.DeadLetters(ctx)
	if err != nil {
		return nil, err
	}
	stats.DeadLettered = len(dead)
	return stats, nil
}

// DeadLetters returns all dead-lettered jobs for inspection.
func (q *Queue) DeadLetters(ctx context.Context) ([]*core.Job, error) {
	var jobs []*core.Job
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Prefix = []byte(deadPrefix)
		it := tx.NewIterator(itOpts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				job, err := storage.UnmarshalJob(val)
				if err != nil {
					return err
				}
				jobs = append(jobs, job)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// backoff returns the delay before the next attempt. Delays double with
// each failed attempt and are capped at the configured maximum.
func (q *Queue) backoff(attempts int) time.Duration {
	delay := q.baseDelay << (attempts - 1)
	if delay <= 0 || delay > q.maxDelay {
		delay = q.maxDelay
	}
	return delay
}

// lookupJob resolves a job UUID to its current record.
func (q *Queue) lookupJob(jobID string) (*core.Job, error) {
	var job *core.Job
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeJobIDKey(jobID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		if err != nil {
			return err
		}
		var itemID core.ID
		err = item.Value(func(val []byte) error {
			id, err := storage.UnmarshalID(val)
			itemID = id
			return err
		})
		if err != nil {
			return err
		}
		job, err = readJob(tx, itemID)
		if err != nil {
			return err
		}
		if job == nil || job.Id != jobID {
			return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// removeJob deletes a job record, its UUID mapping, and any index entries.
func (q *Queue) removeJob(job *core.Job) error {
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeJobKey(job.ItemId)); err != nil {
			return err
		}
		if err := tx.Delete(makeJobIDKey(job.Id)); err != nil {
			return err
		}
		if !job.LeaseExpiry.IsZero() {
			if err := tx.Delete(makeLeaseKey(job.LeaseExpiry.UnixMicro(), job.ItemId)); err != nil {
				return err
			}
		}
		if err := tx.Delete(makeReadyKey(job.Priority, job.NotBefore.UnixMicro(), job.ItemId)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	return nil
}

// setItemStatus updates an item's processing status and failure reason.
// A missing item is not an error; orphaned jobs resolve themselves.
func (q *Queue) setItemStatus(ctx context.Context, itemID core.ID, status core.ProcessingStatus, reason string) error {
	item, err := q.items.GetItem(ctx, itemID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	item.Status = status
	item.FailureReason = reason
	_, err = q.items.UpdateItems(ctx, item)
	return err
}

func readJob(tx *badger.Txn, itemID core.ID) (*core.Job, error) {
	item, err := tx.Get(makeJobKey(itemID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var job *core.Job
	err = item.Value(func(val []byte) error {
		job, err = storage.UnmarshalJob(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func writeJob(tx *badger.Txn, job *core.Job) error {
	return tx.Set(makeJobKey(job.ItemId), storage.MarshalJob(job))
}
