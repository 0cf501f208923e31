package queue

import (
	"context"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/perseid/argos/core"
)

// ReclaimExpired returns jobs whose lease has expired to the queue.
// A reclaimed job keeps its attempt count; losing a worker is not the
// job's fault. Returns the number of jobs reclaimed.
func (q *Queue) ReclaimExpired(ctx context.Context) (int, error) {
	now := q.nowFn()
	nowMicro := now.UnixMicro()
	var reclaimed []core.ID

	err := q.backend.WithTx(func(tx *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.PrefetchValues = false
		itOpts.Prefix = []byte(leasePrefix)

		type expired struct {
			key    []byte
			itemID core.ID
		}
		var found []expired

		it := tx.NewIterator(itOpts)
		for it.Rewind(); it.Valid(); it.Next() {
			expiry, itemID, ok := parseLeaseKey(it.Item().Key())
			if !ok {
				continue
			}
			// Entries sort by expiry; the first live lease ends the scan.
			if expiry > nowMicro {
				break
			}
			found = append(found, expired{key: it.Item().KeyCopy(nil), itemID: itemID})
		}
		it.Close()

		if len(found) == 0 {
			return nil
		}

		for _, e := range found {
			if err := tx.Delete(e.key); err != nil {
				return err
			}
			job, err := readJob(tx, e.itemID)
			if err != nil {
				return err
			}
			if job == nil || job.State != core.JobStateLeased {
				continue
			}
			job.State = core.JobStateQueued
			job.WorkerId = ""
			job.LeaseExpiry = time.Time{}
			job.NotBefore = now
			if err := tx.Set(makeReadyKey(job.Priority, now.UnixMicro(), job.ItemId), nil); err != nil {
				return err
			}
			if err := writeJob(tx, job); err != nil {
				return err
			}
			reclaimed = append(reclaimed, job.ItemId)
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}

	for _, itemID := range reclaimed {
		if err := q.setItemStatus(ctx, itemID, core.StatusPending, ""); err != nil {
			q.logger.Warn("failed to reset item status after lease reclaim", "item", itemID, "err", err)
		}
	}
	if len(reclaimed) > 0 {
		q.logger.Info("reclaimed expired leases", "count", len(reclaimed))
	}
	return len(reclaimed), nil
}

// RunSweeper periodically reclaims expired leases until ctx is cancelled.
func (q *Queue) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	q.logger.Info("lease sweeper started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			q.logger.Info("lease sweeper stopped")
			return
		case <-ticker.C:
			if _, err := q.ReclaimExpired(ctx); err != nil {
				q.logger.Error("lease sweep failed", "err", err)
			}
		}
	}
}
