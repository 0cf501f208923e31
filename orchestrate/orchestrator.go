package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/perseid/argos/access"
	"github.com/perseid/argos/core"
	"github.com/perseid/argos/media"
	"github.com/perseid/argos/queue"
	"github.com/perseid/argos/storage"
)

// Request describes one batch processing trigger.
type Request struct {
	Caller    string
	AlbumId   core.ID        // 0 = all albums (site administrators only)
	Kind      core.MediaKind // 0 = all kinds
	Limit     int            // 0 = no explicit limit
	Force     bool           // Re-process completed and failed items
	Scheduled bool           // Scheduled runs enqueue at normal priority
}

// Orchestrator selects eligible items and enqueues analysis jobs for them.
type Orchestrator struct {
	items    storage.ItemRepository
	settings storage.SettingsRepository
	queue    *queue.Queue
	resolver access.Resolver
	store    media.Store
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator over the given services.
func NewOrchestrator(
	items storage.ItemRepository,
	settings storage.SettingsRepository,
	q *queue.Queue,
	resolver access.Resolver,
	store media.Store,
) (*Orchestrator, error) {
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if settings == nil {
		return nil, ErrSettingsRepositoryRequired
	}
	if q == nil {
		return nil, ErrQueueRequired
	}
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	if store == nil {
		return nil, ErrMediaStoreRequired
	}
	return &Orchestrator{
		items:    items,
		settings: settings,
		queue:    q,
		resolver: resolver,
		store:    store,
		logger:   slog.Default().With("component", "orchestrator"),
	}, nil
}

// Run executes one batch selection and returns a report of what happened.
//
// The run aborts before enqueueing anything if settings cannot be loaded
// or the caller's grant cannot be resolved. Items whose media content is
// missing are skipped and counted, even under force; a job for content
// that cannot be read would only burn retries.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*core.BatchReport, error) {
	settings, err := o.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSettingsUnavailable, err)
	}

	grant, err := o.resolver.Resolve(ctx, req.Caller)
	if errors.Is(err, access.ErrUnknownCaller) {
		return nil, fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolverUnavailable, err)
	}
	if err := checkGrant(grant, req); err != nil {
		return nil, err
	}

	candidates, err := o.items.ListItems(ctx, storage.ItemFilter{
		AlbumId:  req.AlbumId,
		Kind:     req.Kind,
		Statuses: eligibleStatuses(req.Force),
	})
	if err != nil {
		return nil, err
	}

	// Oldest uploads first, so a capped batch drains the backlog in order.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].UploadedAt.Equal(candidates[j].UploadedAt) {
			return candidates[i].Id < candidates[j].Id
		}
		return candidates[i].UploadedAt.Before(candidates[j].UploadedAt)
	})

	report := &core.BatchReport{Eligible: len(candidates)}

	limit, capped := effectiveLimit(req.Limit, grant.Role, settings)
	priority := core.PriorityHigh
	if req.Scheduled {
		priority = core.PriorityNormal
	}

	taken := 0
	for _, item := range candidates {
		if taken >= limit {
			if capped {
				report.CappedByRole = true
			}
			break
		}
		if !o.store.Exists(item.AnalysisRef()) {
			report.SkippedOrphans++
			continue
		}

		opts := []queue.EnqueueOption{queue.WithPriority(priority)}
		if req.Force {
			opts = append(opts, queue.WithReset())
		}
		_, created, err := o.queue.Enqueue(ctx, item.Id, opts...)
		if err != nil {
			return nil, err
		}
		if created {
			report.Enqueued++
		} else {
			report.AlreadyQueued++
		}
		taken++
	}

	o.logger.Info("batch run complete",
		"caller", req.Caller,
		"album", req.AlbumId,
		"force", req.Force,
		"scheduled", req.Scheduled,
		"eligible", report.Eligible,
		"enqueued", report.Enqueued,
		"already_queued", report.AlreadyQueued,
		"skipped_orphans", report.SkippedOrphans,
		"capped", report.CappedByRole)
	return report, nil
}

// checkGrant verifies the caller may trigger the requested batch.
func checkGrant(grant core.Grant, req Request) error {
	switch grant.Role {
	case core.RoleSiteAdmin:
		return nil
	case core.RoleAlbumAdmin:
		if req.AlbumId == 0 {
			return fmt.Errorf("%w: album administrators must name an album", ErrPermissionDenied)
		}
		if !grant.AllowsAlbum(req.AlbumId) {
			return fmt.Errorf("%w: caller %q may not process album %d", ErrPermissionDenied, req.Caller, req.AlbumId)
		}
		return nil
	default:
		return fmt.Errorf("%w: caller %q has no processing role", ErrPermissionDenied, req.Caller)
	}
}

// eligibleStatuses returns the item statuses a run may enqueue.
// Pending and failed items are always candidates, so exhausted retries
// are picked up again by the next run. Force extends the selection to
// completed items, but never to items currently being processed.
func eligibleStatuses(force bool) []core.ProcessingStatus {
	if force {
		return []core.ProcessingStatus{core.StatusPending, core.StatusCompleted, core.StatusFailed}
	}
	return []core.ProcessingStatus{core.StatusPending, core.StatusFailed}
}

// effectiveLimit resolves the batch cap from the explicit request limit
// and the caller's role. Site administrators are bounded only by the
// request; album administrators never exceed the configured role limit.
// The second return reports whether the role limit is the binding
// constraint.
func effectiveLimit(requested int, role core.Role, settings *core.ProcessingSettings) (int, bool) {
	limit := requested
	if limit <= 0 {
		limit = math.MaxInt
	}
	if role == core.RoleAlbumAdmin && settings.AlbumAdminLimit < limit {
		return settings.AlbumAdminLimit, true
	}
	return limit, false
}
