package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/fabula-vn/fabula/pkg/logic"
	"github.com/fabula-vn/fabula/pkg/logic/postgres"
	"github.com/fabula-vn/fabula/pkg/server"
	"github.com/fabula-vn/fabula/pkg/story"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		logLevel  string
		logFormat string
	)

	root := &cobra.Command{
		Use:   "fabula",
		Short: "Validate, export, and serve visual-novel logic graphs",
		Long: `fabula works with the logic graphs produced by the visual-novel editor.

Graphs are JSON documents of typed nodes (conditions, gates, variable
operations) joined by typed port connections. fabula validates them,
flattens them into story-engine condition lists, renders previews, and
serves the graph store over HTTP.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initLogger(logLevel, logFormat)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, or error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	root.AddCommand(lintCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(renderCmd())
	root.AddCommand(serveCmd())
	return root
}

// ─── lint ─────────────────────────────────────────────────────────────────────

func lintCmd() *cobra.Command {
	var (
		level    string
		varsFile string
	)

	cmd := &cobra.Command{
		Use:   "lint <graph.json>",
		Short: "Validate a graph document without exporting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			g, err := logic.LoadDocument(args[0])
			if err != nil {
				return err
			}
			vars, err := loadVariables(varsFile)
			if err != nil {
				return err
			}

			report := logic.ValidateGraph(g, logic.Level(level), vars)
			for _, e := range report.Errors {
				fmt.Printf("error   %-24s %s\n", e.Code, e.Message)
			}
			for _, w := range report.Warnings {
				fmt.Printf("warning %-24s %s\n", w.Code, w.Message)
			}
			for _, s := range report.Suggestions {
				fmt.Printf("hint    %s\n", s)
			}
			if !report.IsValid {
				return fmt.Errorf("graph %q is invalid (%d errors)", g.Name, len(report.Errors))
			}
			fmt.Printf("OK: graph %q is valid (%d nodes, %d connections, can execute: %v)\n",
				g.Name, len(g.Nodes), len(g.Connections), report.CanExecute)
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", string(logic.LevelRuntime), "validation level: syntax, semantic, or runtime")
	cmd.Flags().StringVar(&varsFile, "vars", "", "JSON file of project variables [{id, type}]")
	return cmd
}

// ─── export ───────────────────────────────────────────────────────────────────

func exportCmd() *cobra.Command {
	var (
		format   string
		optimize string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "export <graph.json>",
		Short: "Flatten a graph into a story-engine condition list",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			g, err := logic.LoadDocument(args[0])
			if err != nil {
				return err
			}

			result, err := logic.ExportConditions(g, logic.ExportFormat(format), logic.OptimizeLevel(optimize))
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal export: %w", err)
			}
			if output == "" || output == "-" {
				fmt.Println(string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Printf("exported %d conditions to %s\n", len(result.Conditions), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(logic.FormatNative), "export target: native or script")
	cmd.Flags().StringVar(&optimize, "optimize", string(logic.OptimizeNone), "optimization level: none, basic, or aggressive")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file (- for stdout)")
	return cmd
}

// ─── render ───────────────────────────────────────────────────────────────────

func renderCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "render <graph.json>",
		Short: "Print a human-readable or DOT summary of a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			g, err := logic.LoadDocument(args[0])
			if err != nil {
				return err
			}
			switch format {
			case "dot":
				fmt.Print(logic.RenderDOT(g))
			case "text", "":
				fmt.Print(renderText(g))
			default:
				return fmt.Errorf("unknown format %q: use text or dot", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text or dot")
	return cmd
}

// ─── serve ────────────────────────────────────────────────────────────────────

func serveCmd() *cobra.Command {
	var (
		addr       string
		initSchema bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph store over HTTP",
		Long: `Serve starts the JSON API the editor frontend talks to.

With DATABASE_URL set, graphs persist to PostgreSQL; otherwise an
in-memory store is used and graphs live only for the process lifetime.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := signalContext(cmd.Context())

			var store logic.Store
			if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
				pool, err := pgxpool.New(ctx, dbURL)
				if err != nil {
					return fmt.Errorf("connect: %w", err)
				}
				defer pool.Close()
				pg := postgres.New(pool)
				if initSchema {
					if err := pg.CreateSchema(ctx); err != nil {
						return fmt.Errorf("create schema: %w", err)
					}
				}
				store = pg
			} else {
				store = logic.NewMemoryStore()
			}

			app := server.New(store)
			go func() {
				<-ctx.Done()
				_ = app.Shutdown()
			}()
			return app.Listen(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&initSchema, "init-schema", false, "create database tables on startup (postgres only)")
	return cmd
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// loadVariables reads a project variable list from a JSON file.
func loadVariables(path string) ([]story.Variable, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variables file: %w", err)
	}
	var vars []story.Variable
	if err := json.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("parse variables file: %w", err)
	}
	return vars, nil
}

// initLogger configures the process-wide slog default.
func initLogger(level, format string) error {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			fmt.Fprintln(os.Stderr, "\n[fabula] interrupted, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}
