// Package app assembles the pipeline's collaborators from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dgallion1/docsplit/internal/blobstore"
	"github.com/dgallion1/docsplit/internal/chunker"
	"github.com/dgallion1/docsplit/internal/config"
	"github.com/dgallion1/docsplit/internal/index"
	"github.com/dgallion1/docsplit/internal/layout"
	"github.com/dgallion1/docsplit/internal/parser"
	"github.com/dgallion1/docsplit/internal/pipeline"
)

// Components holds the clients built from a Config.
type Components struct {
	Deps         pipeline.Deps
	AnalyzeStats *pipeline.Stats

	layout *layout.Client
	index  *index.Client
}

// Build creates the parser registry, splitter and the optional layout
// service, blob store and search index clients. Metrics are registered with
// reg when it is non-nil.
func Build(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (*Components, error) {
	tok, err := cfg.NewTokenizer()
	if err != nil {
		return nil, fmt.Errorf("tokenizer: %w", err)
	}

	c := &Components{AnalyzeStats: pipeline.NewStats(time.Hour)}
	registry := &parser.Registry{
		SkipInvalidPages:     cfg.SkipInvalidPages,
		PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
		Log:                  log,
	}
	if cfg.LayoutEndpoint != "" {
		c.layout = layout.NewClient(cfg.LayoutEndpoint, cfg.LayoutAPIKey, cfg.LayoutModel, cfg.LayoutPollInterval)
		c.layout.Stats = c.AnalyzeStats
		registry.Analyzer = c.layout
	}

	c.Deps = pipeline.Deps{
		Parsers:    registry,
		Splitter:   chunker.New(cfg.Splitter(), tok).WithLogger(log),
		SplitStats: pipeline.NewStats(time.Hour),
		Log:        log,
	}
	if reg != nil {
		c.Deps.Metrics = pipeline.NewMetrics(reg)
	}

	switch {
	case cfg.StorageBucket != "":
		store, err := blobstore.NewS3Store(ctx, cfg.StorageBucket, cfg.StorageRegion, cfg.StorageEndpoint)
		if err != nil {
			return nil, err
		}
		c.Deps.Store = store
	case cfg.StorageDir != "":
		store, err := blobstore.NewDirStore(cfg.StorageDir)
		if err != nil {
			return nil, err
		}
		c.Deps.Store = store
	}

	if cfg.SearchEndpoint != "" {
		c.index = index.NewClient(cfg.SearchEndpoint, cfg.SearchAPIKey, cfg.SearchIndex, cfg.IndexBatchSize)
		c.Deps.Index = c.index
	}
	return c, nil
}

// Close releases idle connections held by the HTTP clients.
func (c *Components) Close() {
	if c.layout != nil {
		c.layout.Close()
	}
	if c.index != nil {
		c.index.Close()
	}
}
