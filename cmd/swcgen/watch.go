package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/c360studio/swcgen/graph"
	"github.com/c360studio/swcgen/source"
)

func watchCmd(opts *globalOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Recompile requirement files as they change",
		Long: `Compile every requirement file below dir into the project, then watch the
tree and integrate files again when they are created or modified. Removing a
file does not retract entities; use delete for that.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if metricsAddr != "" {
				stop := app.serveMetrics(metricsAddr)
				defer stop()
			}
			return app.Watch(ctx, opts.project, dir)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

// Watch compiles dir into the project and keeps it current until ctx is
// cancelled.
func (a *App) Watch(ctx context.Context, project, dir string) error {
	p, err := a.LoadProject(ctx, project, true)
	if err != nil {
		return err
	}

	w, err := source.NewWatcher(a.cfg.Watch, dir, a.registry, a.logger)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Stop()

	if err := a.initialCompile(ctx, p, w); err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Watcher stopped", "project", project)
			return nil
		case event, ok := <-w.Events():
			if !ok {
				return nil
			}
			a.handleWatchEvent(ctx, p, w, event)
		}
	}
}

func (a *App) initialCompile(ctx context.Context, p *graph.Project, w *source.Watcher) error {
	paths, err := source.ResolveInputs([]string{w.Root()}, a.registry)
	if errors.Is(err, source.ErrNoInputs) {
		a.logger.Info("No requirement files yet", "root", w.Root())
		return nil
	}
	if err != nil {
		return err
	}

	for _, path := range paths {
		hash, err := a.compileFile(p, path)
		if err != nil {
			a.logger.Warn("Skipping input", "path", path, "error", err)
			continue
		}
		if rel, err := filepath.Rel(w.Root(), path); err == nil {
			w.SetHash(rel, hash)
		}
	}
	return a.SaveProject(ctx, p)
}

func (a *App) handleWatchEvent(ctx context.Context, p *graph.Project, w *source.Watcher, event source.WatchEvent) {
	if event.Operation == source.WatchOpDelete {
		a.logger.Info("Requirement file removed", "path", event.Path)
		return
	}

	if _, err := a.compileFile(p, event.AbsPath); err != nil {
		a.logger.Warn("Failed to compile changed file", "path", event.Path, "error", err)
		return
	}
	if err := a.SaveProject(ctx, p); err != nil {
		a.logger.Error("Failed to save project", "project", p.Name(), "error", err)
		return
	}
	a.logger.Info("Project updated",
		"project", p.Name(),
		"path", event.Path,
		"operation", event.Operation,
		"dropped_events", w.DroppedEvents())
}

// compileFile integrates one file and returns its content hash.
func (a *App) compileFile(p *graph.Project, path string) (string, error) {
	doc, err := a.decodeFile(path)
	if err != nil {
		return "", err
	}
	report, err := a.compiler.CompileDocumentInto(p, doc)
	if err != nil {
		return "", err
	}
	if !report.Validation.Valid {
		a.logger.Warn("Project graph inconsistent after compile",
			"path", path,
			"violations", report.Validation.Errors)
	}
	return doc.Hash, nil
}

// serveMetrics exposes the compiler metrics over HTTP. The returned
// function shuts the server down.
func (a *App) serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.promReg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Metrics server failed", "addr", addr, "error", err)
		}
	}()
	a.logger.Info("Serving metrics", slog.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
