package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docsplit/internal/blobstore"
	"github.com/dgallion1/docsplit/internal/chunker"
	"github.com/dgallion1/docsplit/internal/doctree"
	"github.com/dgallion1/docsplit/internal/index"
	"github.com/dgallion1/docsplit/internal/parser"
)

// Indexer receives section documents. *index.Client satisfies it.
type Indexer interface {
	Upload(ctx context.Context, docs []index.Document) (int, error)
	Delete(ctx context.Context, ids []string) error
}

// Worker processes a single document job.
type Worker struct {
	parsers  *parser.Registry
	splitter *chunker.Splitter
	store    blobstore.Store
	indexer  Indexer
	metrics  *Metrics
	stats    *Stats
	log      *slog.Logger

	maxConcurrentStore int
}

func NewWorker(deps Deps, maxStore int) *Worker {
	if maxStore <= 0 {
		maxStore = 1
	}
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		parsers:            deps.Parsers,
		splitter:           deps.Splitter,
		store:              deps.Store,
		indexer:            deps.Index,
		metrics:            deps.Metrics,
		stats:              deps.SplitStats,
		log:                log,
		maxConcurrentStore: maxStore,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	src := job.SourceFile()
	log := w.log.With("job_id", job.ID, "file", src.Name)
	defer job.releaseFileData()

	if src.URL == "" && src.Key != "" && w.store != nil {
		src.URL = w.store.URL(src.Key)
		job.SetSourceURL(src.URL)
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	pages, err := w.parse(ctx, log, src.Name, job.FileData())
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		w.finish(job, StatusFailed, "parsing")
		return
	}
	job.SetPages(len(pages))
	w.metrics.pages(len(pages))
	job.SetContentHash(ContentHashHex([]byte(joinPages(pages))))

	// Phase 2: Split
	job.SetStatus(StatusSplitting, "splitting")
	start := time.Now()
	sections, err := w.splitter.SplitAll(pages)
	elapsed := time.Since(start)
	if err != nil {
		log.Error("split failed", "error", err)
		job.AddError(fmt.Sprintf("split: %s", err))
		w.finish(job, StatusFailed, "splitting")
		return
	}
	if w.stats != nil {
		w.stats.Record(elapsed.Milliseconds())
	}
	w.metrics.split(len(sections), elapsed)
	job.SetSections(sections)
	log.Info("split document", "pages", len(pages), "characters", doctree.TotalLength(pages), "sections", len(sections), "duration_ms", elapsed.Milliseconds())

	if len(sections) == 0 {
		log.Warn("no sections produced")
		job.AddError("no extractable content")
		w.finish(job, StatusFailed, "splitting")
		return
	}

	// Phase 3: Store processed documents and index them.
	job.SetStatus(StatusStoring, "storing")
	docs := index.BuildDocuments(src, sections)
	hadErrors := false
	succeeded := 0

	if w.store != nil {
		stored := w.storeDocuments(ctx, log, job, src, docs)
		if stored < len(docs) {
			hadErrors = true
		}
		succeeded += stored
	}

	if w.indexer != nil {
		indexed, err := w.upload(ctx, log, docs)
		job.AddIndexed(indexed)
		if err != nil {
			hadErrors = true
			var partial *index.PartialError
			if errors.As(err, &partial) {
				for _, id := range partial.Failed {
					job.AddError(fmt.Sprintf("index %s: rejected", id))
				}
			} else {
				job.AddError(fmt.Sprintf("index: %s", err))
			}
		}
		succeeded += indexed
		log.Info("indexing complete", "indexed", indexed, "total", len(docs))
	}

	switch {
	case hadErrors && succeeded > 0:
		w.finish(job, StatusPartial, "done")
	case hadErrors:
		w.finish(job, StatusFailed, "storing")
	default:
		w.finish(job, StatusCompleted, "done")
	}
}

func (w *Worker) finish(job *Job, status JobStatus, phase string) {
	w.metrics.documentDone(status)
	job.SetStatus(status, phase)
}

// parse runs the file's parser, retrying errors from remote services.
func (w *Worker) parse(ctx context.Context, log *slog.Logger, filename string, data []byte) ([]doctree.Page, error) {
	p, err := w.parsers.ForFile(filename)
	if err != nil {
		return nil, err
	}
	var pages []doctree.Page
	for attempt := range MaxRetries {
		pages, err = p.Parse(ctx, bytes.NewReader(data), filename)
		if err == nil || !IsRetryable(err) {
			break
		}
		log.Warn("retryable parse error", "attempt", attempt, "error", err)
		select {
		case <-time.After(backoffFunc(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return pages, err
}

// storeDocuments writes one JSON blob per section next to the source
// document and returns how many were written.
func (w *Worker) storeDocuments(ctx context.Context, log *slog.Logger, job *Job, src doctree.SourceFile, docs []index.Document) int {
	written := make([]bool, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.maxConcurrentStore)
	for i := range docs {
		g.Go(func() error {
			name := index.ProcessedBlobName(src.Key, src.Name, i)
			data, err := json.MarshalIndent(docs[i], "", "    ")
			if err == nil {
				err = w.store.Put(gctx, name, data, "application/json")
			}
			if err != nil {
				log.Error("store failed", "key", name, "error", err)
				job.AddError(fmt.Sprintf("store %s: %s", name, err))
				return nil
			}
			written[i] = true
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range written {
		if ok {
			n++
		}
	}
	job.AddStored(n)
	log.Info("storage complete", "stored", n, "total", len(docs))
	return n
}

// upload sends docs to the index, retrying retryable failures.
func (w *Worker) upload(ctx context.Context, log *slog.Logger, docs []index.Document) (int, error) {
	var n int
	var err error
	for attempt := range MaxRetries {
		n, err = w.indexer.Upload(ctx, docs)
		if err == nil || !IsRetryable(err) {
			break
		}
		log.Warn("retryable index error", "attempt", attempt, "error", err)
		select {
		case <-time.After(backoffFunc(attempt)):
		case <-ctx.Done():
			return n, ctx.Err()
		}
	}
	return n, err
}

func joinPages(pages []doctree.Page) string {
	var sb strings.Builder
	for _, p := range pages {
		sb.WriteString(p.Text)
	}
	return sb.String()
}
