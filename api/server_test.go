package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perseid/argos/access"
	"github.com/perseid/argos/ai/mock"
	"github.com/perseid/argos/core"
	"github.com/perseid/argos/media"
	"github.com/perseid/argos/orchestrate"
	"github.com/perseid/argos/queue"
	"github.com/perseid/argos/search"
	"github.com/perseid/argos/storage"
	badgerstore "github.com/perseid/argos/storage/badger"
)

type apiEnv struct {
	server *Server
	items  storage.ItemRepository
	store  *media.MemStore
	queue  *queue.Queue
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	items, settings, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		items.Close()
		backend.Close()
	})

	q, err := queue.NewQueue(backend, items)
	require.NoError(t, err)

	resolver := access.NewStaticResolver()
	store := media.NewMemStore()
	orch, err := orchestrate.NewOrchestrator(items, settings, q, resolver, store)
	require.NoError(t, err)

	searcher, err := search.NewSearcher(items, mock.NewMockProvider())
	require.NoError(t, err)

	return &apiEnv{
		server: NewServer(orch, searcher, q, items, settings),
		items:  items,
		store:  store,
		queue:  q,
	}
}

func (e *apiEnv) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.server.Echo().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyzeRequiresCallerHeader(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(http.MethodPost, "/api/analyze", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeUnknownCallerForbidden(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(http.MethodPost, "/api/analyze", `{}`,
		map[string]string{CallerHeader: "stranger"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAnalyzeEnqueuesAndReports(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ref := fmt.Sprintf("photos/%d.jpg", i)
		env.store.Put(ref, []byte("jpeg"))
		_, err := env.items.AddItems(ctx, &core.MediaItem{
			AlbumId: 1, Kind: core.KindPhoto, FileRef: ref,
		})
		require.NoError(t, err)
	}

	rec := env.do(http.MethodPost, "/api/analyze", `{"album_id":1}`,
		map[string]string{CallerHeader: access.SystemCaller})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var report batchReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 3, report.Eligible)
	assert.Equal(t, 3, report.Enqueued)

	stats, err := env.queue.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Queued)
}

func TestAnalyzeRejectsBadKind(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(http.MethodPost, "/api/analyze", `{"kind":"hologram"}`,
		map[string]string{CallerHeader: access.SystemCaller})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()

	_, err := env.items.AddItems(ctx, &core.MediaItem{
		AlbumId: 1, Kind: core.KindPhoto, FileRef: "a.jpg", Title: "Sunset at the beach",
	})
	require.NoError(t, err)

	rec := env.do(http.MethodGet, "/api/search?q=sunset+beach", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var results []searchResultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Sunset at the beach", results[0].Title)
	assert.Equal(t, "photo", results[0].Kind)
	assert.Equal(t, "pending", results[0].Status)
	assert.Greater(t, results[0].Score, float32(0))
}

func TestSearchEmptyQueryRejected(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(http.MethodGet, "/api/search?q=", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestItemStatusEndpoint(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()

	added, err := env.items.AddItems(ctx, &core.MediaItem{
		AlbumId: 1, Kind: core.KindPhoto, FileRef: "a.jpg",
	})
	require.NoError(t, err)

	rec := env.do(http.MethodGet, fmt.Sprintf("/api/items/%d/status", added[0].Id), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status itemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "pending", status.Status)
	assert.Nil(t, status.ProcessedAt)

	rec = env.do(http.MethodGet, "/api/items/999999/status", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodGet, "/api/items/notanid/status", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueueStatsEndpoint(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(http.MethodGet, "/api/queue/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats["queued"])
	assert.Equal(t, 0, stats["dead_lettered"])
}

func TestDeadLettersEndpoint(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(http.MethodGet, "/api/queue/dead-letters", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(http.MethodGet, "/api/settings", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var settings settingsPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, 500, settings.BatchSize)
	assert.Equal(t, 2, settings.ScheduleHour)

	settings.BatchSize = 100
	settings.ScheduleHour = 4
	body, err := json.Marshal(settings)
	require.NoError(t, err)
	rec = env.do(http.MethodPut, "/api/settings", string(body), nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/settings", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, 100, settings.BatchSize)
	assert.Equal(t, 4, settings.ScheduleHour)
}

func TestSettingsValidationRejected(t *testing.T) {
	env := newAPIEnv(t)
	body := `{"auto_process_on_upload":true,"scheduled_processing":true,"batch_size":100,` +
		`"processing_timeout_seconds":30,"album_admin_limit":50,"schedule_hour":25,"schedule_minute":0}`
	rec := env.do(http.MethodPut, "/api/settings", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
