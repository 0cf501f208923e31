package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perseid/argos/core"
	"github.com/perseid/argos/storage"
	badgerstore "github.com/perseid/argos/storage/badger"
)

// testClock is a controllable clock for queue tests.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestQueue(t *testing.T, clock *testClock, opts ...Option) (*Queue, storage.ItemRepository) {
	t.Helper()
	items, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		items.Close()
		backend.Close()
	})

	opts = append([]Option{WithNowFunc(clock.Now)}, opts...)
	q, err := NewQueue(backend, items, opts...)
	require.NoError(t, err)
	return q, items
}

func addItem(t *testing.T, items storage.ItemRepository, album core.ID) *core.MediaItem {
	t.Helper()
	added, err := items.AddItems(context.Background(), &core.MediaItem{
		AlbumId: album,
		Kind:    core.KindPhoto,
		FileRef: "photos/test.jpg",
	})
	require.NoError(t, err)
	return added[0]
}

func TestEnqueueIsIdempotent(t *testing.T) {
	clock := newTestClock()
	q, items := newTestQueue(t, clock)
	ctx := context.Background()
	item := addItem(t, items, 1)

	first, created, err := q.Enqueue(ctx, item.Id)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.Id)
	assert.Equal(t, core.JobStateQueued, first.State)

	second, created, err := q.Enqueue(ctx, item.Id)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Id, second.Id)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Queued)
}

func TestLeaseClaimsOldestReadyJob(t *testing.T) {
	clock := newTestClock()
	q, items := newTestQueue(t, clock)
	ctx := context.Background()

	first := addItem(t, items, 1)
	_, _, err := q.Enqueue(ctx, first.Id)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	second := addItem(t, items, 1)
	_, _, err = q.Enqueue(ctx, second.Id)
	require.NoError(t, err)

	job, err := q.Lease(ctx, "worker-1", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, first.Id, job.ItemId)
	assert.Equal(t, core.JobStateLeased, job.State)
	assert.Equal(t, "worker-1", job.WorkerId)

	// Leased item transitions to processing.
	got, err := items.GetItem(ctx, first.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessing, got.Status)

	job2, err := q.Lease(ctx, "worker-2", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, second.Id, job2.ItemId)

	_, err = q.Lease(ctx, "worker-3", 30*time.Second)
	assert.ErrorIs(t, err, ErrNoJobReady)
}

func TestLeaseHighPriorityFirst(t *testing.T) {
	clock := newTestClock()
	q, items := newTestQueue(t, clock)
	ctx := context.Background()

	normal := addItem(t, items, 1)
	_, _, err := q.Enqueue(ctx, normal.Id)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	high := addItem(t, items, 1)
	_, _, err = q.Enqueue(ctx, high.Id, WithPriority(core.PriorityHigh))
	require.NoError(t, err)

	// The high-priority job is newer but leases first.
	job, err := q.Lease(ctx, "worker-1", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, high.Id, job.ItemId)
}

func TestAckWritesResultsAndItemTogether(t *testing.T) {
	clock := newTestClock()
	q, items := newTestQueue(t, clock)
	ctx := context.Background()
	item := addItem(t, items, 1)

	_, _, err := q.Enqueue(ctx, item.Id)
	require.NoError(t, err)
	job, err := q.Lease(ctx, "worker-1", 30*time.Second)
	require.NoError(t, err)

	err = q.Ack(ctx, job.Id, &Result{
		Caption:    "a dog on a beach",
		Tags:       []string{"dog", "beach"},
		Confidence: 0.85,
		Vector:     []float32{0.6, 0.8},
	})
	require.NoError(t, err)

	got, err := items.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, got.Status)
	assert.Equal(t, "a dog on a beach", got.Caption)
	assert.Equal(t, []string{"dog", "beach"}, got.AITags)
	assert.InDelta(t, 0.85, got.Confidence, 1e-6)
	assert.Equal(t, []float32{0.6, 0.8}, got.Vector)
	assert.False(t, got.ProcessedAt.IsZero())

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Queued)
	assert.Equal(t, 0, stats.Leased)

	// Acking again reports the job gone.
	err = q.Ack(ctx, job.Id, &Result{})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestAckForDeletedItemDropsJob(t *testing.T) {
	clock := newTestClock()
	q, items := newTestQueue(t, clock)
	ctx := context.Background()
	item := addItem(t, items, 1)

	_, _, err := q.Enqueue(ctx, item.Id)
	require.NoError(t, err)
	job, err := q.Lease(ctx, "worker-1", 30*time.Second)
	require.NoError(t, err)

	require.NoError(t, items.DeleteItems(ctx, item.Id))

	err = q.Ack(ctx, job.Id, &Result{Caption: "gone"})
	require.NoError(t, err)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Queued+stats.Leased)
}

func TestFailBackoffIsExponentialAndIncreasing(t *testing.T) {
	clock := newTestClock()
	base := 30 * time.Second
	q, items := newTestQueue(t, clock, WithBaseDelay(base))
	ctx := context.Background()
	item := addItem(t, items, 1)

	_, _, err := q.Enqueue(ctx, item.Id)
	require.NoError(t, err)

	// First failure: delay = base.
	job, err := q.Lease(ctx, "worker-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, q.Fail(ctx, job.Id, errors.New("timeout"), true))

	_, err = q.Lease(ctx, "worker-1", time.Minute)
	assert.ErrorIs(t, err, ErrNoJobReady, "job must not be ready before the backoff elapses")

	clock.Advance(base)
	job, err = q.Lease(ctx, "worker-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, job.Attempts)

	// Second failure: delay = 2 * base.
	require.NoError(t, q.Fail(ctx, job.Id, errors.New("timeout"), true))

	// Item returns to pending with the failure reason between attempts.
	got, err := items.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, got.Status)
	assert.Equal(t, "timeout", got.FailureReason)

	clock.Advance(base)
	_, err = q.Lease(ctx, "worker-1", time.Minute)
	assert.ErrorIs(t, err, ErrNoJobReady, "second delay must exceed the first")

	clock.Advance(base)
	job, err = q.Lease(ctx, "worker-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, job.Attempts)
}

func TestFailDeadLettersAfterAttemptBudget(t *testing.T) {
	clock := newTestClock()
	q, items := newTestQueue(t, clock, WithBaseDelay(time.Second))
	ctx := context.Background()
	item := addItem(t, items, 1)

	_, _, err := q.Enqueue(ctx, item.Id)
	require.NoError(t, err)

	var lastJobID string
	for i := 0; i < 3; i++ {
		clock.Advance(time.Minute)
		job, err := q.Lease(ctx, "worker-1", time.Minute)
		require.NoError(t, err, "attempt %d", i+1)
		lastJobID = job.Id
		require.NoError(t, q.Fail(ctx, job.Id, errors.New("service unavailable"), true))
	}

	// Third failure exhausted the budget.
	clock.Advance(time.Hour)
	_, err = q.Lease(ctx, "worker-1", time.Minute)
	assert.ErrorIs(t, err, ErrNoJobReady)

	dead, err := q.DeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, lastJobID, dead[0].Id)
	assert.Equal(t, core.JobStateDeadLettered, dead[0].State)
	assert.Equal(t, 3, dead[0].Attempts)
	assert.Equal(t, "service unavailable", dead[0].LastError)

	got, err := items.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, got.Status)
	assert.Equal(t, "service unavailable", got.FailureReason)
}

func TestFailPermanentDeadLettersImmediately(t *testing.T) {
	clock := newTestClock()
	q, items := newTestQueue(t, clock)
	ctx := context.Background()
	item := addItem(t, items, 1)

	_, _, err := q.Enqueue(ctx, item.Id)
	require.NoError(t, err)
	job, err := q.Lease(ctx, "worker-1", time.Minute)
	require.NoError(t, err)

	require.NoError(t, q.Fail(ctx, job.Id, errors.New("unsupported content"), false))

	dead, err := q.DeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, 1, dead[0].Attempts)

	got, err := items.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, got.Status)
}

func TestEnqueueWithResetClearsDeadLetter(t *testing.T) {
	clock := newTestClock()
	q, items := newTestQueue(t, clock)
	ctx := context.Background()
	item := addItem(t, items, 1)

	_, _, err := q.Enqueue(ctx, item.Id)
	require.NoError(t, err)
	job, err := q.Lease(ctx, "worker-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, q.Fail(ctx, job.Id, errors.New("bad input"), false))

	fresh, created, err := q.Enqueue(ctx, item.Id, WithReset())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 0, fresh.Attempts)
	assert.NotEqual(t, job.Id, fresh.Id)

	dead, err := q.DeadLetters(ctx)
	require.NoError(t, err)
	assert.Empty(t, dead)
}

func TestEnqueueWithResetReturnsItemToPending(t *testing.T) {
	clock := newTestClock()
	q, items := newTestQueue(t, clock)
	ctx := context.Background()
	item := addItem(t, items, 1)

	item.Status = core.StatusCompleted
	item.Caption = "old caption"
	_, err := items.UpdateItems(ctx, item)
	require.NoError(t, err)

	_, created, err := q.Enqueue(ctx, item.Id, WithReset())
	require.NoError(t, err)
	require.True(t, created)

	// Stale completed state must not stay visible while the new job
	// waits in the queue.
	got, err := items.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, got.Status)
	assert.Empty(t, got.FailureReason)

	item.Status = core.StatusFailed
	item.FailureReason = "bad input"
	_, err = items.UpdateItems(ctx, item)
	require.NoError(t, err)

	// An existing job is returned untouched; no reset happens.
	_, created, err = q.Enqueue(ctx, item.Id, WithReset())
	require.NoError(t, err)
	assert.False(t, created)
	got, err = items.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, got.Status)
}

func TestFailOnUnleasedJobRejected(t *testing.T) {
	clock := newTestClock()
	q, items := newTestQueue(t, clock)
	ctx := context.Background()
	item := addItem(t, items, 1)

	job, _, err := q.Enqueue(ctx, item.Id)
	require.NoError(t, err)

	err = q.Fail(ctx, job.Id, errors.New("nope"), true)
	assert.ErrorIs(t, err, ErrNotLeased)

	err = q.Ack(ctx, job.Id, &Result{})
	assert.ErrorIs(t, err, ErrNotLeased)
}

func TestQueueSurvivesReload(t *testing.T) {
	// Jobs are durable: a second queue over the same backend sees them.
	clock := newTestClock()
	items, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		items.Close()
		backend.Close()
	})
	ctx := context.Background()

	q1, err := NewQueue(backend, items, WithNowFunc(clock.Now))
	require.NoError(t, err)
	added, err := items.AddItems(ctx, &core.MediaItem{Kind: core.KindPhoto, FileRef: "a.jpg"})
	require.NoError(t, err)
	_, _, err = q1.Enqueue(ctx, added[0].Id)
	require.NoError(t, err)

	q2, err := NewQueue(backend, items, WithNowFunc(clock.Now))
	require.NoError(t, err)
	job, err := q2.Lease(ctx, "worker-after-restart", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, added[0].Id, job.ItemId)
}
