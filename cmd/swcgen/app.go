package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/swcgen/artifact"
	"github.com/c360studio/swcgen/compiler"
	"github.com/c360studio/swcgen/config"
	"github.com/c360studio/swcgen/graph"
	"github.com/c360studio/swcgen/metrics"
	"github.com/c360studio/swcgen/requirement"
	"github.com/c360studio/swcgen/source"
	"github.com/c360studio/swcgen/storage"
)

// App wires configuration, storage and the compiler for one command run.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	registry *source.Registry
	metrics  *metrics.Metrics
	promReg  *prometheus.Registry
	compiler *compiler.Compiler

	// store is opened lazily; parse and generate never touch it.
	store storage.Store
}

// NewApp loads configuration and builds the compile pipeline.
func NewApp(configPath string, logger *slog.Logger) (*App, error) {
	cfg, err := config.NewLoader(logger).Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return newAppWithConfig(cfg, logger)
}

func newAppWithConfig(cfg *config.Config, logger *slog.Logger) (*App, error) {
	extractor, err := requirement.NewExtractor(cfg.ExtractorConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}
	synthesizer, err := artifact.NewSynthesizer(cfg.SynthesizerConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("create synthesizer: %w", err)
	}

	promReg := prometheus.NewRegistry()
	m, err := metrics.New(promReg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	c, err := compiler.New(cfg.CompileConfig(),
		compiler.WithExtractor(extractor),
		compiler.WithSynthesizer(synthesizer),
		compiler.WithMetrics(m),
		compiler.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create compiler: %w", err)
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		registry: source.DefaultRegistry,
		metrics:  m,
		promReg:  promReg,
		compiler: c,
	}, nil
}

// Store opens the configured storage backend on first use.
func (a *App) Store(ctx context.Context) (storage.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := storage.Open(ctx, a.cfg.Storage, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.store = s
	return s, nil
}

// Close releases the storage backend.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// LoadProject restores a stored project, or starts an empty one when
// create is set and nothing is stored under name.
func (a *App) LoadProject(ctx context.Context, name string, create bool) (*graph.Project, error) {
	s, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.Load(ctx, name)
	switch {
	case err == nil:
		return graph.Restore(snap, graph.WithLogger(a.logger)), nil
	case errors.Is(err, storage.ErrNotFound) && create:
		if err := storage.ValidateName(name); err != nil {
			return nil, err
		}
		a.logger.Debug("Starting new project", "project", name)
		return graph.NewProject(name, graph.WithLogger(a.logger)), nil
	default:
		return nil, fmt.Errorf("load project %s: %w", name, err)
	}
}

// SaveProject persists the project graph.
func (a *App) SaveProject(ctx context.Context, p *graph.Project) error {
	s, err := a.Store(ctx)
	if err != nil {
		return err
	}
	if err := s.Save(ctx, p.Snapshot()); err != nil {
		return fmt.Errorf("save project %s: %w", p.Name(), err)
	}
	return nil
}

// ReadInputs decodes every file matched by patterns. With no patterns, or
// the single pattern "-", stdin is read as plain text.
func (a *App) ReadInputs(patterns []string, stdin io.Reader) ([]*source.Document, error) {
	if len(patterns) == 0 || (len(patterns) == 1 && patterns[0] == "-") {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		doc, err := a.registry.DecodeAs(source.MimeText, a.cfg.Extraction.Source, content)
		if err != nil {
			return nil, err
		}
		return []*source.Document{doc}, nil
	}

	paths, err := source.ResolveInputs(patterns, a.registry)
	if err != nil {
		return nil, err
	}

	docs := make([]*source.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := a.decodeFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (a *App) decodeFile(path string) (*source.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	start := time.Now()
	doc, err := a.registry.Decode(path, content)
	a.metrics.ObserveStage(metrics.StageDecode, start)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	a.logger.Debug("Decoded input", "path", path, "mime_type", doc.MimeType, "hash", doc.Hash)
	return doc, nil
}
