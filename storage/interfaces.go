package storage

import (
	"context"

	"github.com/perseid/argos/core"
)

// ItemFilter narrows ListItems results. Zero values match everything.
type ItemFilter struct {
	AlbumId  core.ID                 // 0 = all albums
	Kind     core.MediaKind          // 0 = all kinds
	Statuses []core.ProcessingStatus // empty = all statuses
}

// Matches reports whether an item satisfies the filter.
func (f ItemFilter) Matches(item *core.MediaItem) bool {
	if f.AlbumId != 0 && item.AlbumId != f.AlbumId {
		return false
	}
	if f.Kind != 0 && item.Kind != f.Kind {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if item.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// ItemRepository provides operations for managing media items.
// Implementations must be thread-safe and support concurrent access.
type ItemRepository interface {
	// AddItems adds one or more media items to storage.
	// Generates new IDs from sequence and sets InsertedAt timestamps.
	// Returns the items with generated IDs and timestamps populated.
	AddItems(ctx context.Context, items ...*core.MediaItem) ([]*core.MediaItem, error)

	// UpdateItems updates existing media items.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any item doesn't exist.
	UpdateItems(ctx context.Context, items ...*core.MediaItem) ([]*core.MediaItem, error)

	// DeleteItems removes media items by their IDs.
	// Also removes associated indices.
	// Returns ErrNotFound if any item doesn't exist.
	DeleteItems(ctx context.Context, ids ...core.ID) error

	// GetItem retrieves a single media item by ID.
	// Returns ErrNotFound if the item doesn't exist.
	GetItem(ctx context.Context, id core.ID) (*core.MediaItem, error)

	// GetItems retrieves multiple media items by their IDs.
	// Returns only the items that exist (no error for missing items).
	GetItems(ctx context.Context, ids ...core.ID) ([]*core.MediaItem, error)

	// ListItems retrieves all items matching the filter.
	// Order is unspecified; callers sort as needed.
	ListItems(ctx context.Context, filter ItemFilter) ([]*core.MediaItem, error)

	// CountByStatus returns the number of items in each processing status.
	CountByStatus(ctx context.Context) (map[core.ProcessingStatus]int, error)

	// Close closes the repository and releases resources.
	Close() error
}

// SettingsRepository manages the single mutable processing configuration record.
type SettingsRepository interface {
	// Load retrieves the current settings.
	// Returns defaults if no settings record has been saved.
	Load(ctx context.Context) (*core.ProcessingSettings, error)

	// Save validates and persists settings, updating UpdatedAt.
	Save(ctx context.Context, settings *core.ProcessingSettings) error
}
