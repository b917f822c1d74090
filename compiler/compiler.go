// Package compiler runs the requirement pipeline: decoded text is parsed
// into requirement documents, synthesized into an artifact set and
// integrated into a project graph.
package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/c360studio/swcgen/artifact"
	"github.com/c360studio/swcgen/graph"
	"github.com/c360studio/swcgen/metrics"
	"github.com/c360studio/swcgen/requirement"
	"github.com/c360studio/swcgen/source"
)

// DefaultCacheSize is the number of compiled inputs kept in memory.
const DefaultCacheSize = 128

// Config holds compiler configuration.
type Config struct {
	// CacheSize bounds the compile cache. Zero disables caching.
	CacheSize int
}

// DefaultConfig returns the default compiler configuration.
func DefaultConfig() Config {
	return Config{CacheSize: DefaultCacheSize}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.CacheSize < 0 {
		return fmt.Errorf("CacheSize must not be negative, got %d", c.CacheSize)
	}
	return nil
}

// Result is the output of extraction and synthesis for one input. Cached
// results are shared; callers must not modify them.
type Result struct {
	Source       string
	Requirements []requirement.Document
	Artifacts    *artifact.Set
	Cached       bool
}

// Report is a Result integrated into a project.
type Report struct {
	*Result

	// Added counts entities newly created in the project.
	Added artifact.Counts

	// Validation is the project state after integration.
	Validation graph.ValidationResult
}

// Compiler wires the extractor, synthesizer and graph together. It is
// safe for concurrent use.
type Compiler struct {
	extractor   *requirement.Extractor
	synthesizer *artifact.Synthesizer
	cache       *lru.Cache[string, *Result]
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithExtractor replaces the default extractor.
func WithExtractor(e *requirement.Extractor) Option {
	return func(c *Compiler) {
		if e != nil {
			c.extractor = e
		}
	}
}

// WithSynthesizer replaces the default synthesizer.
func WithSynthesizer(s *artifact.Synthesizer) Option {
	return func(c *Compiler) {
		if s != nil {
			c.synthesizer = s
		}
	}
}

// WithMetrics records pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Compiler) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Compiler.
func New(cfg Config, opts ...Option) (*Compiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Compiler{
		extractor:   requirement.NewDefaultExtractor(),
		synthesizer: artifact.NewDefaultSynthesizer(),
		metrics:     metrics.NewNop(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, *Result](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create compile cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Compile extracts and synthesizes one input. Identical source and text
// are served from the cache.
func (c *Compiler) Compile(src, text string) *Result {
	key := cacheKey(src, text)
	if c.cache != nil {
		if res, ok := c.cache.Get(key); ok {
			c.metrics.CacheHits.Inc()
			c.logger.Debug("Compile cache hit", "source", src)
			cached := *res
			cached.Cached = true
			return &cached
		}
		c.metrics.CacheMisses.Inc()
	}

	start := time.Now()
	docs := c.extractor.ParseSource(src, text)
	c.metrics.ObserveStage(metrics.StageExtract, start)
	c.metrics.RequirementsExtracted.Add(float64(len(docs)))

	start = time.Now()
	set := c.synthesizer.Generate(docs)
	c.metrics.ObserveStage(metrics.StageSynthesize, start)
	c.metrics.AddSynthesized(set.Counts())

	res := &Result{Source: src, Requirements: docs, Artifacts: set}
	if c.cache != nil {
		c.cache.Add(key, res)
	}

	c.logger.Debug("Compiled requirements",
		"source", src,
		"requirements", len(docs),
		"artifacts", set.Counts().Total())
	return res
}

// CompileDocument compiles a decoded input.
func (c *Compiler) CompileDocument(doc *source.Document) *Result {
	return c.Compile(doc.Source(), doc.Text)
}

// CompileInto compiles text and integrates the artifacts into p. On an
// integration error the project is unchanged and the partial report holds
// the compile result.
func (c *Compiler) CompileInto(p *graph.Project, src, text string) (*Report, error) {
	report := &Report{Result: c.Compile(src, text)}

	start := time.Now()
	added, err := p.Integrate(report.Artifacts)
	c.metrics.ObserveStage(metrics.StageIntegrate, start)
	if err != nil {
		c.metrics.IntegrationFailures.Inc()
		return report, fmt.Errorf("integrate %s: %w", src, err)
	}
	report.Added = added
	c.metrics.AddIntegrated(added)

	start = time.Now()
	report.Validation = p.Validate()
	c.metrics.ObserveStage(metrics.StageValidate, start)
	c.metrics.ValidationErrors.Set(float64(len(report.Validation.Errors)))

	c.logger.Info("Integrated requirements",
		"project", p.Name(),
		"source", src,
		"requirements", len(report.Requirements),
		"added", added.Total(),
		"valid", report.Validation.Valid)
	return report, nil
}

// CompileDocumentInto compiles a decoded input into p.
func (c *Compiler) CompileDocumentInto(p *graph.Project, doc *source.Document) (*Report, error) {
	return c.CompileInto(p, doc.Source(), doc.Text)
}

// Purge empties the compile cache.
func (c *Compiler) Purge() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

func cacheKey(src, text string) string {
	h := sha256.New()
	h.Write([]byte(src))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
