package badger

import (
	"context"
	"testing"
	"time"

	"github.com/perseid/argos/core"
	"github.com/perseid/argos/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (storage.ItemRepository, *Backend) {
	t.Helper()
	items, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		items.Close()
		backend.Close()
	})
	return items, backend
}

func testItem(album string, title string) *core.MediaItem {
	return &core.MediaItem{
		AlbumId:    core.IDFromContent(album),
		Kind:       core.KindPhoto,
		FileRef:    "photos/" + title + ".jpg",
		Title:      title,
		UploadedAt: time.Now().UTC().Add(-time.Hour),
	}
}

func TestItemRepository_AddAndGet(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddItems(ctx, testItem("Family", "beach"))
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.NotZero(t, added[0].Id)
	assert.False(t, added[0].InsertedAt.IsZero())
	assert.Equal(t, core.StatusPending, added[0].Status)

	got, err := repo.GetItem(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "beach", got.Title)
	assert.Equal(t, core.IDFromContent("Family"), got.AlbumId)
}

func TestItemRepository_GetMissing(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.GetItem(context.Background(), 9999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestItemRepository_Update(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddItems(ctx, testItem("Family", "beach"))
	require.NoError(t, err)

	item := added[0]
	item.Status = core.StatusCompleted
	item.Caption = "a sandy beach at sunset"
	item.Vector = []float32{0.5, 0.5}

	_, err = repo.UpdateItems(ctx, item)
	require.NoError(t, err)

	got, err := repo.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, got.Status)
	assert.Equal(t, "a sandy beach at sunset", got.Caption)
	assert.Equal(t, []float32{0.5, 0.5}, got.Vector)
	assert.True(t, got.UpdatedAt.After(got.InsertedAt) || got.UpdatedAt.Equal(got.InsertedAt))
}

func TestItemRepository_UpdateMissing(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.UpdateItems(context.Background(), &core.MediaItem{Id: 12345, Kind: core.KindPhoto, FileRef: "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestItemRepository_Delete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddItems(ctx, testItem("Family", "beach"))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteItems(ctx, added[0].Id))

	_, err = repo.GetItem(ctx, added[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Album index entry must be gone too
	items, err := repo.ListItems(ctx, storage.ItemFilter{AlbumId: core.IDFromContent("Family")})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestItemRepository_ListByAlbum(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddItems(ctx,
		testItem("Family", "beach"),
		testItem("Family", "cake"),
		testItem("Work", "office"),
	)
	require.NoError(t, err)

	family, err := repo.ListItems(ctx, storage.ItemFilter{AlbumId: core.IDFromContent("Family")})
	require.NoError(t, err)
	assert.Len(t, family, 2)

	all, err := repo.ListItems(ctx, storage.ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestItemRepository_ListByStatusAndKind(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	photo := testItem("Family", "beach")
	video := testItem("Family", "clip")
	video.Kind = core.KindVideo
	video.FileRef = "videos/clip.mp4"
	video.ThumbRef = "thumbs/clip.jpg"

	added, err := repo.AddItems(ctx, photo, video)
	require.NoError(t, err)

	added[0].Status = core.StatusCompleted
	_, err = repo.UpdateItems(ctx, added[0])
	require.NoError(t, err)

	pending, err := repo.ListItems(ctx, storage.ItemFilter{
		Statuses: []core.ProcessingStatus{core.StatusPending},
	})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, core.KindVideo, pending[0].Kind)

	videos, err := repo.ListItems(ctx, storage.ItemFilter{Kind: core.KindVideo})
	require.NoError(t, err)
	assert.Len(t, videos, 1)
}

func TestItemRepository_CountByStatus(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddItems(ctx,
		testItem("Family", "a"),
		testItem("Family", "b"),
		testItem("Family", "c"),
	)
	require.NoError(t, err)

	added[0].Status = core.StatusCompleted
	added[1].Status = core.StatusFailed
	_, err = repo.UpdateItems(ctx, added[0], added[1])
	require.NoError(t, err)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[core.StatusPending])
	assert.Equal(t, 1, counts[core.StatusCompleted])
	assert.Equal(t, 1, counts[core.StatusFailed])
}
