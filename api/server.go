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


package api

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/perseid/argos/orchestrate"
	"github.com/perseid/argos/queue"
	"github.com/perseid/argos/search"
	"github.com/perseid/argos/storage"
)

// CallerHeader carries the caller identity on processing requests.
const CallerHeader = "X-Argos-Caller"

// Server hosts the HTTP API.
type Server struct {
	echo     *echo.Echo
	orch     *orchestrate.Orchestrator
	searcher *search.Searcher
	queue    *queue.Queue
	items    storage.ItemRepository
	settings storage.SettingsRepository
	logger   *slog.Logger
}

// NewServer wires the handlers onto an echo instance.
func NewServer(
	orch *orchestrate.Orchestrator,
	searcher *search.Searcher,
	q *queue.Queue,
	items storage.ItemRepository,
	settings storage.SettingsRepository,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		orch:     orch,
		searcher: searcher,
		queue:    q,
		items:    items,
		settings: settings,
		logger:   slog.Default().With("component", "api"),
	}

	e.GET("/healthz", s.handleHealth)
	e.POST("/api/analyze", s.handleAnalyze)
	e.GET("/api/search", s.handleSearch)
	e.GET("/api/items/:id/status", s.handleItemStatus)
	e.GET("/api/queue/stats", s.handleQueueStats)
	e.GET("/api/queue/dead-letters", s.handleDeadLetters)
	e.GET("/api/settings", s.handleGetSettings)
	e.PUT("/api/settings", s.handlePutSettings)

	return s
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server starting", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying echo instance for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
