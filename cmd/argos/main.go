// Copyright 2025 Perseid Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/perseid/argos/access"
	"github.com/perseid/argos/ai"
	"github.com/perseid/argos/ai/mock"
	"github.com/perseid/argos/ai/openai"
	"github.com/perseid/argos/api"
	"github.com/perseid/argos/core"
	"github.com/perseid/argos/media"
	"github.com/perseid/argos/orchestrate"
	"github.com/perseid/argos/pipeline"
	"github.com/perseid/argos/queue"
	"github.com/perseid/argos/schedule"
	"github.com/perseid/argos/search"
	badgerstore "github.com/perseid/argos/storage/badger"
)

func main() {
	// A missing .env is fine; flags and real env still apply.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "argos",
		Usage: "AI analysis pipeline and hybrid search for photo and video albums",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the API server, analysis workers and scheduler",
				Action: serveCommand,
				Flags: append(storageFlags(), append(aiFlags(),
					&cli.StringFlag{
						Name:    "listen",
						Usage:   "HTTP listen address",
						Value:   ":8080",
						EnvVars: []string{"ARGOS_LISTEN"},
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of analysis workers (0 = half the CPUs)",
					},
					&cli.DurationFlag{
						Name:  "sweep-interval",
						Usage: "How often to reclaim expired job leases",
						Value: 30 * time.Second,
					},
					&cli.StringSliceFlag{
						Name:  "site-admin",
						Usage: "Caller granted site administrator rights (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "album-admin",
						Usage: "Caller granted album administrator rights, as name:albumID[,albumID...] (repeatable)",
					},
				)...),
			},
			{
				Name:   "process",
				Usage:  "Trigger a batch analysis run",
				Action: processCommand,
				Flags: append(storageFlags(), append(aiFlags(),
					&cli.Uint64Flag{
						Name:  "album",
						Usage: "Restrict the run to one album",
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Restrict the run to one media kind (photo, video)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of items to enqueue",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-process completed and failed items",
					},
					&cli.BoolFlag{
						Name:  "drain",
						Usage: "Run analysis workers until the queue is empty",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of analysis workers when draining (0 = half the CPUs)",
					},
				)...),
			},
			{
				Name:      "search",
				Usage:     "Search the album index",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(storageFlags(), append(aiFlags(),
					&cli.Uint64Flag{
						Name:  "album",
						Usage: "Restrict the search to one album",
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Restrict the search to one media kind (photo, video)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 20,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Number of results to skip",
					},
				)...),
			},
			{
				Name:   "status",
				Usage:  "Show item and queue counts",
				Action: statusCommand,
				Flags:  storageFlags(),
			},
			{
				Name:   "settings",
				Usage:  "Show or update processing settings",
				Action: settingsCommand,
				Flags: append(storageFlags(),
					&cli.IntFlag{Name: "batch-size", Usage: "Items per scheduled batch", Value: -1},
					&cli.DurationFlag{Name: "timeout", Usage: "Per-item processing timeout"},
					&cli.IntFlag{Name: "album-admin-limit", Usage: "Batch cap for album administrators", Value: -1},
					&cli.IntFlag{Name: "schedule-hour", Usage: "Hour of the nightly run", Value: -1},
					&cli.IntFlag{Name: "schedule-minute", Usage: "Minute of the nightly run", Value: -1},
					&cli.StringFlag{Name: "auto-process", Usage: "Enable processing on upload (true/false)"},
					&cli.StringFlag{Name: "scheduled", Usage: "Enable the nightly run (true/false)"},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
			EnvVars:  []string{"ARGOS_DB"},
		},
		&cli.StringFlag{
			Name:    "media-root",
			Usage:   "Directory holding media content",
			EnvVars: []string{"ARGOS_MEDIA_ROOT"},
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "ai-host",
			Usage:   "Primary OpenAI-compatible inference endpoint",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"ARGOS_AI_HOST"},
		},
		&cli.StringFlag{
			Name:    "ai-fallback-host",
			Usage:   "Fallback inference endpoint used when the primary is unreachable",
			EnvVars: []string{"ARGOS_AI_FALLBACK_HOST"},
		},
		&cli.StringFlag{
			Name:    "caption-model",
			Usage:   "Vision model used for captioning",
			Value:   "llava:7b",
			EnvVars: []string{"ARGOS_CAPTION_MODEL"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model used for semantic search",
			Value:   "embeddinggemma",
			EnvVars: []string{"ARGOS_EMBEDDING_MODEL"},
		},
		&cli.BoolFlag{
			Name:  "mock-ai",
			Usage: "Use deterministic mock AI services (development only)",
		},
	}
}

func buildProvider(c *cli.Context) (ai.Provider, error) {
	if c.Bool("mock-ai") {
		slog.Warn("using mock AI services")
		return mock.NewMockProvider(), nil
	}
	config := ai.NewConfig(
		ai.WithPrimaryHost(c.String("ai-host")),
		ai.WithFallbackHost(c.String("ai-fallback-host")),
		ai.WithCaptionModel(c.String("caption-model")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	return openai.NewProvider(config)
}

func buildStore(c *cli.Context) (media.Store, error) {
	root := c.String("media-root")
	if root == "" {
		return nil, fmt.Errorf("media-root is required")
	}
	return media.NewFSStore(root)
}

func buildResolver(c *cli.Context) (*access.StaticResolver, error) {
	resolver := access.NewStaticResolver()
	for _, name := range c.StringSlice("site-admin") {
		resolver.Grant(name, core.Grant{Role: core.RoleSiteAdmin})
	}
	for _, spec := range c.StringSlice("album-admin") {
		name, grant, err := parseAlbumAdmin(spec)
		if err != nil {
			return nil, err
		}
		resolver.Grant(name, grant)
	}
	return resolver, nil
}

// parseAlbumAdmin parses "name:albumID[,albumID...]" into a grant.
func parseAlbumAdmin(spec string) (string, core.Grant, error) {
	name, rawIds, ok := strings.Cut(spec, ":")
	if !ok || name == "" || rawIds == "" {
		return "", core.Grant{}, fmt.Errorf("invalid album-admin spec %q: want name:albumID[,albumID...]", spec)
	}
	var albums []core.ID
	for _, raw := range strings.Split(rawIds, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return "", core.Grant{}, fmt.Errorf("invalid album id %q in album-admin spec %q", raw, spec)
		}
		albums = append(albums, core.ID(id))
	}
	return name, core.Grant{Role: core.RoleAlbumAdmin, AlbumIds: albums}, nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := badgerstore.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	items, err := badgerstore.NewItemRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create item repository: %w", err)
	}
	defer items.Close()
	settings := badgerstore.NewSettingsRepository(backend)

	q, err := queue.NewQueue(backend, items)
	if err != nil {
		return err
	}

	store, err := buildStore(c)
	if err != nil {
		return err
	}
	provider, err := buildProvider(c)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	resolver, err := buildResolver(c)
	if err != nil {
		return err
	}
	orch, err := orchestrate.NewOrchestrator(items, settings, q, resolver, store)
	if err != nil {
		return err
	}
	searcher, err := search.NewSearcher(items, provider)
	if err != nil {
		return err
	}

	poolOpts := []pipeline.Option{pipeline.WithLogger(slog.Default())}
	if workers := c.Int("workers"); workers > 0 {
		poolOpts = append(poolOpts, pipeline.WithWorkers(workers))
	}
	pool, err := pipeline.NewPool(q, items, settings, store, provider, poolOpts...)
	if err != nil {
		return err
	}
	if err := pool.Start(ctx); err != nil {
		return err
	}

	go q.RunSweeper(ctx, c.Duration("sweep-interval"))

	scheduler := schedule.NewScheduler(orch, settings)
	go scheduler.Run(ctx)

	server := api.NewServer(orch, searcher, q, items, settings)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(c.String("listen"))
	}()

	select {
	case err := <-errCh:
		stop()
		pool.Wait()
		pool.Release()
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "err", err)
	}
	pool.Wait()
	pool.Release()
	return nil
}

func processCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badgerstore.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	items, err := badgerstore.NewItemRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create item repository: %w", err)
	}
	defer items.Close()
	settings := badgerstore.NewSettingsRepository(backend)

	q, err := queue.NewQueue(backend, items)
	if err != nil {
		return err
	}
	store, err := buildStore(c)
	if err != nil {
		return err
	}

	kind, err := parseKindFlag(c.String("kind"))
	if err != nil {
		return err
	}

	orch, err := orchestrate.NewOrchestrator(items, settings, q, access.NewStaticResolver(), store)
	if err != nil {
		return err
	}
	report, err := orch.Run(ctx, orchestrate.Request{
		Caller:  access.SystemCaller,
		AlbumId: core.ID(c.Uint64("album")),
		Kind:    kind,
		Limit:   c.Int("limit"),
		Force:   c.Bool("force"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("eligible:        %d\n", report.Eligible)
	fmt.Printf("enqueued:        %d\n", report.Enqueued)
	fmt.Printf("already queued:  %d\n", report.AlreadyQueued)
	fmt.Printf("skipped orphans: %d\n", report.SkippedOrphans)
	if report.CappedByRole {
		fmt.Println("batch was capped by the role limit")
	}

	if c.Bool("drain") {
		return drainQueue(c, q, items, settings, store)
	}
	return nil
}

// drainQueue runs analysis workers in-process until no jobs remain
// queued or leased.
func drainQueue(c *cli.Context, q *queue.Queue, items *badgerstore.ItemRepository, settings *badgerstore.SettingsRepository, store media.Store) error {
	provider, err := buildProvider(c)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	poolOpts := []pipeline.Option{
		pipeline.WithLogger(slog.Default()),
		pipeline.WithPollInterval(200 * time.Millisecond),
	}
	if workers := c.Int("workers"); workers > 0 {
		poolOpts = append(poolOpts, pipeline.WithWorkers(workers))
	}
	pool, err := pipeline.NewPool(q, items, settings, store, provider, poolOpts...)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := pool.Start(ctx); err != nil {
		return err
	}
	defer pool.Release()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			cancel()
			pool.Wait()
			return nil
		case <-ticker.C:
			stats, err := q.Stats(ctx)
			if err != nil {
				return err
			}
			if stats.Queued == 0 && stats.Leased == 0 {
				cancel()
				pool.Wait()
				fmt.Printf("drained; %d job(s) dead-lettered\n", stats.DeadLettered)
				return nil
			}
		}
	}
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("query is required")
	}

	backend, err := badgerstore.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	items, err := badgerstore.NewItemRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create item repository: %w", err)
	}
	defer items.Close()

	provider, err := buildProvider(c)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	kind, err := parseKindFlag(c.String("kind"))
	if err != nil {
		return err
	}

	searcher, err := search.NewSearcher(items, provider)
	if err != nil {
		return err
	}
	results, err := searcher.Search(ctx, search.Query{
		Text:    query,
		AlbumId: core.ID(c.Uint64("album")),
		Kind:    kind,
		Limit:   c.Int("limit"),
		Offset:  c.Int("offset"),
	})
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}
	for i, r := range results {
		title := r.Item.Title
		if title == "" {
			title = r.Item.FileRef
		}
		fmt.Printf("%2d. [%.3f] %s\n", i+1, r.Score, title)
		if r.Item.Caption != "" {
			fmt.Printf("      %s\n", r.Item.Caption)
		}
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badgerstore.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	items, err := badgerstore.NewItemRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create item repository: %w", err)
	}
	defer items.Close()

	counts, err := items.CountByStatus(ctx)
	if err != nil {
		return err
	}
	q, err := queue.NewQueue(backend, items)
	if err != nil {
		return err
	}
	stats, err := q.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Println("items:")
	for _, status := range []core.ProcessingStatus{
		core.StatusPending, core.StatusProcessing, core.StatusCompleted, core.StatusFailed,
	} {
		fmt.Printf("  %-11s %d\n", status.String()+":", counts[status])
	}
	fmt.Println("queue:")
	fmt.Printf("  queued:      %d\n", stats.Queued)
	fmt.Printf("  leased:      %d\n", stats.Leased)
	fmt.Printf("  dead-letter: %d\n", stats.DeadLettered)
	return nil
}

func settingsCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badgerstore.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()
	repo := badgerstore.NewSettingsRepository(backend)

	settings, err := repo.Load(ctx)
	if err != nil {
		return err
	}

	changed := false
	if v := c.Int("batch-size"); v >= 0 {
		settings.BatchSize = v
		changed = true
	}
	if v := c.Duration("timeout"); v > 0 {
		settings.ProcessingTimeout = v
		changed = true
	}
	if v := c.Int("album-admin-limit"); v >= 0 {
		settings.AlbumAdminLimit = v
		changed = true
	}
	if v := c.Int("schedule-hour"); v >= 0 {
		settings.ScheduleHour = v
		changed = true
	}
	if v := c.Int("schedule-minute"); v >= 0 {
		settings.ScheduleMinute = v
		changed = true
	}
	if raw := c.String("auto-process"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid auto-process value %q", raw)
		}
		settings.AutoProcessOnUpload = v
		changed = true
	}
	if raw := c.String("scheduled"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid scheduled value %q", raw)
		}
		settings.ScheduledProcessing = v
		changed = true
	}

	if changed {
		if err := repo.Save(ctx, settings); err != nil {
			return err
		}
		fmt.Println("settings updated")
	}

	fmt.Printf("auto process on upload: %t\n", settings.AutoProcessOnUpload)
	fmt.Printf("scheduled processing:   %t\n", settings.ScheduledProcessing)
	fmt.Printf("batch size:             %d\n", settings.BatchSize)
	fmt.Printf("processing timeout:     %s\n", settings.ProcessingTimeout)
	fmt.Printf("album admin limit:      %d\n", settings.AlbumAdminLimit)
	fmt.Printf("schedule:               %02d:%02d\n", settings.ScheduleHour, settings.ScheduleMinute)
	return nil
}

func parseKindFlag(raw string) (core.MediaKind, error) {
	switch raw {
	case "":
		return 0, nil
	case "photo":
		return core.KindPhoto, nil
	case "video":
		return core.KindVideo, nil
	default:
		return 0, fmt.Errorf("unknown media kind %q: must be photo or video", raw)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
