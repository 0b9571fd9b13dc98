package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docsplit/internal/app"
	"github.com/dgallion1/docsplit/internal/blobstore"
	"github.com/dgallion1/docsplit/internal/config"
	"github.com/dgallion1/docsplit/internal/doctree"
	"github.com/dgallion1/docsplit/internal/parser"
	"github.com/dgallion1/docsplit/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCommand(log).ExecuteContext(ctx); err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func rootCommand(log *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "docsplit",
		Short: "Split documents into token-bounded sections",
		Long: `docsplit reconstructs document pages, rendering tables as HTML, and cuts
them into overlapping sections that fit an embedding model's token budget.

Configuration is read from the environment, as for the server.`,
		SilenceUsage: true,
	}
	root.AddCommand(splitCommand(log), ingestCommand(log))
	return root
}

func load(ctx context.Context, log *slog.Logger) (config.Config, *app.Components, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	c, err := app.Build(ctx, cfg, log, nil)
	return cfg, c, err
}

func splitCommand(log *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split [file]",
		Short: "Print a document's sections as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, c, err := load(ctx, log)
			if err != nil {
				return err
			}
			defer c.Close()

			splitter := c.Deps.Splitter
			if n, _ := cmd.Flags().GetInt("max-tokens"); n > 0 {
				cfg := splitter.Config()
				cfg.MaxTokensPerSection = n
				splitter = splitter.WithConfig(cfg)
			}

			name := args[0]
			p, err := c.Deps.Parsers.ForFile(name)
			if err != nil {
				return err
			}
			f, err := os.Open(name)
			if err != nil {
				return err
			}
			defer f.Close()

			pages, err := p.Parse(ctx, f, filepath.Base(name))
			if err != nil {
				return fmt.Errorf("parse %s: %w", name, err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for sp, err := range splitter.Split(pages) {
				if err != nil {
					return err
				}
				if err := enc.Encode(sp); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("max-tokens", 0, "Token budget per section (0 = configured value)")
	return cmd
}

func ingestCommand(log *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Split every supported document under a blob store prefix",
		Long: `Lists the configured blob store (STORAGE_BUCKET or STORAGE_DIR), keeps the
files docsplit can parse, and writes each document's sections next to it
under processed/, uploading them to the search index when one is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, c, err := load(ctx, log)
			if err != nil {
				return err
			}
			defer c.Close()
			if c.Deps.Store == nil {
				return errors.New("ingest needs STORAGE_BUCKET or STORAGE_DIR")
			}

			prefix, _ := cmd.Flags().GetString("prefix")
			concurrency, _ := cmd.Flags().GetInt("concurrency")
			return ingest(ctx, log, c.Deps, cfg.MaxConcurrentStore, prefix, concurrency)
		},
	}
	cmd.Flags().String("prefix", "", "Only process keys under this prefix")
	cmd.Flags().Int("concurrency", 4, "Documents processed at once")
	return cmd
}

func ingest(ctx context.Context, log *slog.Logger, deps pipeline.Deps, maxStore int, prefix string, concurrency int) error {
	keys, err := deps.Store.List(ctx, prefix)
	if err != nil {
		return err
	}
	keys = blobstore.FilterSupported(keys, parser.IsSupportedExtension)
	log.Info("found documents", "prefix", prefix, "count", len(keys))

	w := pipeline.NewWorker(deps, maxStore)
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, key := range keys {
		g.Go(func() error {
			data, err := readBlob(gctx, deps.Store, key)
			if err != nil {
				log.Error("read failed", "key", key, "error", err)
				failed.Add(1)
				return nil
			}
			job := pipeline.NewJob(doctree.SourceFile{Name: path.Base(key), Key: key}, data)
			w.Process(gctx, job)

			snap := job.Snapshot()
			if snap.Status != pipeline.StatusCompleted {
				log.Error("document not fully processed", "key", key, "status", snap.Status, "errors", snap.Progress.Errors)
				failed.Add(1)
				return nil
			}
			log.Info("processed document", "key", key, "pages", snap.Progress.Pages, "sections", snap.Progress.Chunks)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d documents failed", n, len(keys))
	}
	return nil
}

func readBlob(ctx context.Context, store blobstore.Store, key string) ([]byte, error) {
	rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}
