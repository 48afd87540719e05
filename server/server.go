// Copyright 2025 Poiesic Systems
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


package server

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/poiesic/faqit/search"
)

// ErrEngineRequired is returned when a search engine is not provided.
var ErrEngineRequired = errors.New("search engine required")

// Server serves the query API.
type Server struct {
	app    *fiber.App
	engine *search.Engine
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New creates a new API server around a search engine.
func New(engine *search.Engine, opts ...Option) (*Server, error) {
	if engine == nil {
		return nil, ErrEngineRequired
	}

	s := &Server{
		engine: engine,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(s.requestLogger)

	app.Get("/health", s.handleHealth)

	api := app.Group("/api")
	api.Get("/search", s.handleSearch)
	api.Post("/search/click", s.handleClick)
	api.Get("/search/analytics", s.handleAnalytics)
	api.Get("/faqs/suggested", s.handleSuggested)
	api.Get("/faqs/trending", s.handleTrending)

	s.app = app
	return s, nil
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts serving on the given address and blocks.
func (s *Server) Listen(addr string) error {
	s.logger.Info("starting query API", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Info("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"durationMs", time.Since(start).Milliseconds(),
	)
	return err
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
