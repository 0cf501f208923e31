package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/perseid/argos/core"
	"github.com/perseid/argos/storage"
)

// ItemRepository implements storage.ItemRepository for BadgerDB.
type ItemRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(backend *Backend) (*ItemRepository, error) {
	idSeq, err := backend.GetSequence(mediaItemIDSeq)
	if err != nil {
		return nil, err
	}

	return &ItemRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ItemRepository) Close() error {
	return r.idSeq.Release()
}

// AddItems adds one or more media items to storage.
func (r *ItemRepository) AddItems(ctx context.Context, items ...*core.MediaItem) ([]*core.MediaItem, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, item := range items {
			// Always generate new ID from sequence
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			item.Id = core.ID(nextID)

			item.InsertedAt = time.Now().UTC()
			item.UpdatedAt = item.InsertedAt
			if item.UploadedAt.IsZero() {
				item.UploadedAt = item.InsertedAt
			}
			if item.Status == 0 {
				item.Status = core.StatusPending
			}

			// Store primary record
			key := makeMediaItemKey(item.Id)
			value := storage.MarshalMediaItem(item)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update album index
			if item.AlbumId != 0 {
				albumKey := makeAlbumIndexKey(item.AlbumId, item.Id)
				if err := tx.Set(albumKey, storage.MarshalID(item.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return items, err
}

// UpdateItems updates existing media items.
func (r *ItemRepository) UpdateItems(ctx context.Context, items ...*core.MediaItem) ([]*core.MediaItem, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, item := range items {
			key := makeMediaItemKey(item.Id)

			// Read old record to detect index changes
			old, err := r.readItem(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			item.UpdatedAt = time.Now().UTC()

			value := storage.MarshalMediaItem(item)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update album index if the item moved between albums
			if old.AlbumId != item.AlbumId {
				if old.AlbumId != 0 {
					if err := tx.Delete(makeAlbumIndexKey(old.AlbumId, old.Id)); err != nil {
						return err
					}
				}
				if item.AlbumId != 0 {
					if err := tx.Set(makeAlbumIndexKey(item.AlbumId, item.Id), storage.MarshalID(item.Id)); err != nil {
						return err
					}
				}
			}
		}
		return tx.Commit()
	}, true)

	return items, err
}

// DeleteItems removes media items by their IDs.
func (r *ItemRepository) DeleteItems(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeMediaItemKey(id)

			item, err := r.readItem(tx, key)
			if err != nil {
				return err
			}
			if item == nil {
				return storage.ErrNotFound
			}

			if item.AlbumId != 0 {
				if err := tx.Delete(makeAlbumIndexKey(item.AlbumId, item.Id)); err != nil {
					return err
				}
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetItem retrieves a single media item by ID.
func (r *ItemRepository) GetItem(ctx context.Context, id core.ID) (*core.MediaItem, error) {
	var result *core.MediaItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeMediaItemKey(id)
		var err error
		result, err = r.readItem(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetItems retrieves multiple media items by their IDs.
func (r *ItemRepository) GetItems(ctx context.Context, ids ...core.ID) ([]*core.MediaItem, error) {
	var result []*core.MediaItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeMediaItemKey(id)
			item, err := r.readItem(tx, key)
			if err != nil {
				return err
			}
			if item != nil {
				result = append(result, item)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListItems retrieves all items matching the filter.
// Uses the album index when an album scope is given, otherwise scans
// the primary item prefix.
func (r *ItemRepository) ListItems(ctx context.Context, filter storage.ItemFilter) ([]*core.MediaItem, error) {
	if filter.AlbumId != 0 {
		return r.listByAlbum(filter)
	}
	return r.listAll(filter)
}

func (r *ItemRepository) listByAlbum(filter storage.ItemFilter) ([]*core.MediaItem, error) {
	var results []*core.MediaItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialAlbumIndexKey(filter.AlbumId)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, startKey) {
				break
			}

			var itemID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				itemID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			item, err := r.readItem(tx, makeMediaItemKey(itemID))
			if err != nil {
				return err
			}
			if item != nil && filter.Matches(item) {
				results = append(results, item)
			}
		}
		return nil
	}, false)

	return results, err
}

func (r *ItemRepository) listAll(filter storage.ItemFilter) ([]*core.MediaItem, error) {
	var results []*core.MediaItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(mediaItemPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		recordPrefix := []byte(mediaItemPrefix + ":")

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()

			// Skip index keys and the sequence key
			if !bytes.HasPrefix(key, recordPrefix) {
				continue
			}

			var item *core.MediaItem
			err := iter.Item().Value(func(val []byte) error {
				var err error
				item, err = storage.UnmarshalMediaItem(val)
				return err
			})
			if err != nil {
				return err
			}
			if item != nil && filter.Matches(item) {
				results = append(results, item)
			}
		}
		return nil
	}, false)

	return results, err
}

// CountByStatus returns the number of items in each processing status.
func (r *ItemRepository) CountByStatus(ctx context.Context) (map[core.ProcessingStatus]int, error) {
	items, err := r.listAll(storage.ItemFilter{})
	if err != nil {
		return nil, err
	}
	counts := make(map[core.ProcessingStatus]int)
	for _, item := range items {
		counts[item.Status]++
	}
	return counts, nil
}

// readItem reads a media item from the transaction.
// Returns nil, nil when the key does not exist.
func (r *ItemRepository) readItem(tx *badger.Txn, key []byte) (*core.MediaItem, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.MediaItem
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalMediaItem(val)
		return unmarshalErr
	})
	return record, err
}
