// Package server exposes the graph store, validator, and exporter as a JSON
// API for the authoring tool's frontend.
package server

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/fabula-vn/fabula/pkg/logic"
	"github.com/fabula-vn/fabula/pkg/story"
)

// validateRequest is the body of POST /graphs/:id/validate.
type validateRequest struct {
	Level     logic.Level      `json:"level"`
	Variables []story.Variable `json:"variables"`
}

// exportRequest is the body of POST /graphs/:id/export.
type exportRequest struct {
	Format   logic.ExportFormat  `json:"format"`
	Optimize logic.OptimizeLevel `json:"optimize"`
}

// New builds the fiber app over a graph store.
func New(store logic.Store) *fiber.App {
	app := fiber.New()

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// ── Graphs ────────────────────────────────────────────────────────
	app.Post("/graphs", func(c fiber.Ctx) error {
		g, err := logic.DecodeDocument(c.Body())
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid graph document"})
		}
		if err := store.SaveGraph(c.Context(), g); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		slog.Info("graph saved", "graph", g.ID, "nodes", len(g.Nodes), "version", g.Version)
		return c.Status(201).JSON(g)
	})

	app.Get("/graphs", func(c fiber.Ctx) error {
		infos, err := store.ListGraphs(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(infos)
	})

	app.Get("/graphs/:id", func(c fiber.Ctx) error {
		g, err := store.GetGraph(c.Context(), c.Params("id"))
		if errors.Is(err, logic.ErrGraphNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "graph not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(g)
	})

	app.Delete("/graphs/:id", func(c fiber.Ctx) error {
		err := store.DeleteGraph(c.Context(), c.Params("id"))
		if errors.Is(err, logic.ErrGraphNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "graph not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	// ── Validation ────────────────────────────────────────────────────
	app.Post("/graphs/:id/validate", func(c fiber.Ctx) error {
		var req validateRequest
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if req.Level == "" {
			req.Level = logic.LevelSyntax
		}

		g, err := store.GetGraph(c.Context(), c.Params("id"))
		if errors.Is(err, logic.ErrGraphNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "graph not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		report := logic.ValidateGraph(g, req.Level, req.Variables)

		// Validation mutates the graph's cached validity; persist it.
		if err := store.SaveGraph(c.Context(), g); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		slog.Info("graph validated",
			"graph", g.ID, "level", req.Level,
			"errors", len(report.Errors), "warnings", len(report.Warnings))
		return c.JSON(report)
	})

	// ── Export ────────────────────────────────────────────────────────
	app.Post("/graphs/:id/export", func(c fiber.Ctx) error {
		var req exportRequest
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if req.Format == "" {
			req.Format = logic.FormatNative
		}
		if req.Optimize == "" {
			req.Optimize = logic.OptimizeNone
		}

		g, err := store.GetGraph(c.Context(), c.Params("id"))
		if errors.Is(err, logic.ErrGraphNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "graph not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		result, err := logic.ExportConditions(g, req.Format, req.Optimize)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		slog.Info("graph exported", "graph", g.ID, "conditions", len(result.Conditions))
		return c.JSON(result)
	})

	return app
}
