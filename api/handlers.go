package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/perseid/argos/core"
	"github.com/perseid/argos/orchestrate"
	"github.com/perseid/argos/search"
	"github.com/perseid/argos/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

type analyzeRequest struct {
	AlbumId uint64 `json:"album_id"`
	Kind    string `json:"kind"`
	Limit   int    `json:"limit"`
	Force   bool   `json:"force"`
}

type batchReportResponse struct {
	Eligible       int  `json:"eligible"`
	Enqueued       int  `json:"enqueued"`
	AlreadyQueued  int  `json:"already_queued"`
	SkippedOrphans int  `json:"skipped_orphans"`
	CappedByRole   bool `json:"capped_by_role"`
}

type searchResultResponse struct {
	Id            uint64   `json:"id"`
	AlbumId       uint64   `json:"album_id"`
	Kind          string   `json:"kind"`
	Title         string   `json:"title"`
	Caption       string   `json:"caption,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	AITags        []string `json:"ai_tags,omitempty"`
	Status        string   `json:"status"`
	FileRef       string   `json:"file_ref"`
	ThumbRef      string   `json:"thumb_ref,omitempty"`
	Score         float32  `json:"score"`
	TextScore     float32  `json:"text_score"`
	SemanticScore float32  `json:"semantic_score"`
}

type itemStatusResponse struct {
	Id            uint64     `json:"id"`
	Status        string     `json:"status"`
	FailureReason string     `json:"failure_reason,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

type deadLetterResponse struct {
	JobId      string    `json:"job_id"`
	ItemId     uint64    `json:"item_id"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

type settingsPayload struct {
	AutoProcessOnUpload      bool `json:"auto_process_on_upload"`
	ScheduledProcessing      bool `json:"scheduled_processing"`
	BatchSize                int  `json:"batch_size"`
	ProcessingTimeoutSeconds int  `json:"processing_timeout_seconds"`
	AlbumAdminLimit          int  `json:"album_admin_limit"`
	ScheduleHour             int  `json:"schedule_hour"`
	ScheduleMinute           int  `json:"schedule_minute"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(c echo.Context) error {
	caller := c.Request().Header.Get(CallerHeader)
	if caller == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "missing " + CallerHeader + " header"})
	}

	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	kind, err := parseKind(req.Kind)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	report, err := s.orch.Run(c.Request().Context(), orchestrate.Request{
		Caller:  caller,
		AlbumId: core.ID(req.AlbumId),
		Kind:    kind,
		Limit:   req.Limit,
		Force:   req.Force,
	})
	if err != nil {
		switch {
		case errors.Is(err, orchestrate.ErrPermissionDenied):
			return c.JSON(http.StatusForbidden, errorResponse{Error: err.Error()})
		case errors.Is(err, orchestrate.ErrSettingsUnavailable),
			errors.Is(err, orchestrate.ErrResolverUnavailable):
			return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		default:
			s.logger.Error("analyze request failed", "caller", caller, "err", err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
	}

	return c.JSON(http.StatusAccepted, batchReportResponse{
		Eligible:       report.Eligible,
		Enqueued:       report.Enqueued,
		AlreadyQueued:  report.AlreadyQueued,
		SkippedOrphans: report.SkippedOrphans,
		CappedByRole:   report.CappedByRole,
	})
}

func (s *Server) handleSearch(c echo.Context) error {
	text := c.QueryParam("q")
	kind, err := parseKind(c.QueryParam("kind"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	album, err := parseOptionalUint(c.QueryParam("album"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid album id"})
	}
	limit, err := parseOptionalInt(c.QueryParam("limit"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid limit"})
	}
	offset, err := parseOptionalInt(c.QueryParam("offset"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid offset"})
	}

	results, err := s.searcher.Search(c.Request().Context(), search.Query{
		Text:    text,
		AlbumId: core.ID(album),
		Kind:    kind,
		Limit:   limit,
		Offset:  offset,
	})
	if errors.Is(err, search.ErrEmptyQuery) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "query must contain at least one searchable word"})
	}
	if err != nil {
		s.logger.Error("search request failed", "query", text, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}

	out := make([]searchResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, searchResultResponse{
			Id:            uint64(r.Item.Id),
			AlbumId:       uint64(r.Item.AlbumId),
			Kind:          kindName(r.Item.Kind),
			Title:         r.Item.Title,
			Caption:       r.Item.Caption,
			Tags:          r.Item.Tags,
			AITags:        r.Item.AITags,
			Status:        r.Item.Status.String(),
			FileRef:       r.Item.FileRef,
			ThumbRef:      r.Item.ThumbRef,
			Score:         r.Score,
			TextScore:     r.TextScore,
			SemanticScore: r.SemanticScore,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleItemStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid item id"})
	}

	item, err := s.items.GetItem(c.Request().Context(), core.ID(id))
	if errors.Is(err, storage.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "item not found"})
	}
	if err != nil {
		s.logger.Error("item status lookup failed", "item", id, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}

	resp := itemStatusResponse{
		Id:            uint64(item.Id),
		Status:        item.Status.String(),
		FailureReason: item.FailureReason,
	}
	if !item.ProcessedAt.IsZero() {
		t := item.ProcessedAt
		resp.ProcessedAt = &t
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleQueueStats(c echo.Context) error {
	stats, err := s.queue.Stats(c.Request().Context())
	if err != nil {
		s.logger.Error("queue stats failed", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
	return c.JSON(http.StatusOK, map[string]int{
		"queued":        stats.Queued,
		"leased":        stats.Leased,
		"dead_lettered": stats.DeadLettered,
	})
}

func (s *Server) handleDeadLetters(c echo.Context) error {
	jobs, err := s.queue.DeadLetters(c.Request().Context())
	if err != nil {
		s.logger.Error("dead letter listing failed", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
	out := make([]deadLetterResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, deadLetterResponse{
			JobId:      job.Id,
			ItemId:     uint64(job.ItemId),
			Attempts:   job.Attempts,
			LastError:  job.LastError,
			EnqueuedAt: job.EnqueuedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetSettings(c echo.Context) error {
	settings, err := s.settings.Load(c.Request().Context())
	if err != nil {
		s.logger.Error("settings load failed", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
	return c.JSON(http.StatusOK, settingsPayload{
		AutoProcessOnUpload:      settings.AutoProcessOnUpload,
		ScheduledProcessing:      settings.ScheduledProcessing,
		BatchSize:                settings.BatchSize,
		ProcessingTimeoutSeconds: int(settings.ProcessingTimeout / time.Second),
		AlbumAdminLimit:          settings.AlbumAdminLimit,
		ScheduleHour:             settings.ScheduleHour,
		ScheduleMinute:           settings.ScheduleMinute,
	})
}

func (s *Server) handlePutSettings(c echo.Context) error {
	var payload settingsPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	settings := &core.ProcessingSettings{
		AutoProcessOnUpload: payload.AutoProcessOnUpload,
		ScheduledProcessing: payload.ScheduledProcessing,
		BatchSize:           payload.BatchSize,
		ProcessingTimeout:   time.Duration(payload.ProcessingTimeoutSeconds) * time.Second,
		AlbumAdminLimit:     payload.AlbumAdminLimit,
		ScheduleHour:        payload.ScheduleHour,
		ScheduleMinute:      payload.ScheduleMinute,
	}
	if err := s.settings.Save(c.Request().Context(), settings); err != nil {
		if errors.Is(err, core.ErrInvalidSettings) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		s.logger.Error("settings save failed", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}

func parseKind(raw string) (core.MediaKind, error) {
	switch raw {
	case "":
		return 0, nil
	case "photo":
		return core.KindPhoto, nil
	case "video":
		return core.KindVideo, nil
	default:
		return 0, fmt.Errorf("unknown media kind %q", raw)
	}
}

func kindName(kind core.MediaKind) string {
	switch kind {
	case core.KindPhoto:
		return "photo"
	case core.KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

func parseOptionalUint(raw string) (uint64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

func parseOptionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
