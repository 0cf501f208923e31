package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs. It is used for
// deriving stable album identifiers from album titles.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// MediaKind identifies the type of a media item.
type MediaKind int

const (
	// KindPhoto represents a still image.
	KindPhoto MediaKind = iota + 1
	// KindVideo represents a video clip. Videos are analyzed through
	// their thumbnail frame rather than the full file.
	KindVideo
)

// ProcessingStatus tracks where a media item sits in the analysis lifecycle.
type ProcessingStatus int

const (
	// StatusPending means the item has not been analyzed yet.
	StatusPending ProcessingStatus = iota + 1
	// StatusProcessing means a worker currently holds a lease on the item's job.
	StatusProcessing
	// StatusCompleted means analysis finished and caption, tags and vector are stored.
	StatusCompleted
	// StatusFailed means analysis exhausted its retries or hit a permanent error.
	StatusFailed
)

// String returns the lowercase status name used in APIs and logs.
func (s ProcessingStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MediaItem represents a single uploaded photo or video.
// AI fields (Caption, AITags, Confidence, Vector) are populated by workers
// when a job completes; they are set together or not at all.
type MediaItem struct {
	Id            ID
	AlbumId       ID
	Kind          MediaKind
	FileRef       string // Opaque handle resolved via the media store
	ThumbRef      string // Thumbnail handle; analysis input for videos
	Title         string
	Description   string
	Tags          []string // Manual tags supplied at upload time
	Status        ProcessingStatus
	Caption       string
	AITags        []string
	Confidence    float32
	Vector        []float32 // Normalized embedding for semantic search
	FailureReason string
	UploadedAt    time.Time
	InsertedAt    time.Time
	UpdatedAt     time.Time
	ProcessedAt   time.Time
}

// AnalysisRef returns the media store reference a worker should read for
// analysis: the thumbnail frame for videos, the file itself for photos.
func (m *MediaItem) AnalysisRef() string {
	if m.Kind == KindVideo && m.ThumbRef != "" {
		return m.ThumbRef
	}
	return m.FileRef
}

// SearchText returns the concatenated textual fields used for text scoring.
func (m *MediaItem) SearchText() string {
	parts := make([]string, 0, 4)
	if m.Title != "" {
		parts = append(parts, m.Title)
	}
	if m.Caption != "" {
		parts = append(parts, m.Caption)
	}
	if len(m.Tags) > 0 {
		parts = append(parts, strings.Join(m.Tags, " "))
	}
	if len(m.AITags) > 0 {
		parts = append(parts, strings.Join(m.AITags, " "))
	}
	return strings.Join(parts, " ")
}

// JobState tracks the lifecycle of an analysis job.
type JobState int

const (
	// JobStateQueued means the job is waiting for a worker.
	JobStateQueued JobState = iota + 1
	// JobStateLeased means a worker holds a time-bounded claim on the job.
	JobStateLeased
	// JobStateDeadLettered means the job exhausted its retry budget.
	JobStateDeadLettered
)

// Priority orders jobs within the queue. High-priority jobs are leased
// before normal ones regardless of enqueue time.
type Priority int

const (
	// PriorityHigh is used for on-demand batch triggers.
	PriorityHigh Priority = iota
	// PriorityNormal is used for scheduled runs.
	PriorityNormal
)

// Job represents a single analysis task for one media item.
// At most one job exists per item at any time.
type Job struct {
	Id          string // UUID assigned at enqueue time
	ItemId      ID
	State       JobState
	Priority    Priority
	Attempts    int
	NotBefore   time.Time // Earliest lease time; moved forward by backoff
	LeaseExpiry time.Time
	WorkerId    string
	EnqueuedAt  time.Time
	LastError   string
}

// ProcessingSettings is the single mutable configuration record consulted
// by the orchestrator and scheduler at the start of each run.
type ProcessingSettings struct {
	AutoProcessOnUpload bool
	ScheduledProcessing bool
	BatchSize           int
	ProcessingTimeout   time.Duration
	AlbumAdminLimit     int
	ScheduleHour        int
	ScheduleMinute      int
	UpdatedAt           time.Time
}

// DefaultProcessingSettings returns the settings used before an operator
// saves an explicit configuration.
func DefaultProcessingSettings() *ProcessingSettings {
	return &ProcessingSettings{
		AutoProcessOnUpload: true,
		ScheduledProcessing: true,
		BatchSize:           500,
		ProcessingTimeout:   30 * time.Second,
		AlbumAdminLimit:     50,
		ScheduleHour:        2,
		ScheduleMinute:      0,
	}
}

// Role identifies a caller's administrative level.
type Role int

const (
	// RoleNone means the caller may not trigger processing.
	RoleNone Role = iota
	// RoleAlbumAdmin may trigger processing for specific albums, subject
	// to the per-role batch limit.
	RoleAlbumAdmin
	// RoleSiteAdmin may trigger processing anywhere without a role cap.
	RoleSiteAdmin
)

// Grant is the resolved permission set for a caller.
type Grant struct {
	Role     Role
	AlbumIds []ID // Albums an AlbumAdmin may act on; unused for other roles
}

// AllowsAlbum reports whether the grant permits acting on the given album.
func (g Grant) AllowsAlbum(album ID) bool {
	switch g.Role {
	case RoleSiteAdmin:
		return true
	case RoleAlbumAdmin:
		for _, id := range g.AlbumIds {
			if id == album {
				return true
			}
		}
	}
	return false
}

// BatchReport summarizes a single orchestrator run.
type BatchReport struct {
	Eligible       int
	Enqueued       int
	AlreadyQueued  int
	SkippedOrphans int
	CappedByRole   bool
}

// SearchResult represents a scored media item returned from a search.
type SearchResult struct {
	Item          *MediaItem
	Score         float32
	TextScore     float32
	SemanticScore float32
}
