package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dgallion1/docsplit/internal/chunker"
	"github.com/dgallion1/docsplit/internal/doctree"
	"github.com/dgallion1/docsplit/internal/layout"
	"github.com/dgallion1/docsplit/internal/parser"
)

// handleSplit reconstructs pages from a layout analysis result in the
// request body and returns its sections.
func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	splitter := s.orchestrator.Splitter()
	if v := r.URL.Query().Get("max_tokens"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "max_tokens must be a positive integer", http.StatusBadRequest)
			return
		}
		cfg := splitter.Config()
		cfg.MaxTokensPerSection = n
		splitter = splitter.WithConfig(cfg)
	}

	res, err := layout.Decode(r.Body)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var pages []doctree.Page
	if s.cfg.SkipInvalidPages {
		pages, _ = parser.ReconstructLenient(res, s.log)
	} else if pages, err = parser.Reconstruct(res); err != nil {
		jsonError(w, err.Error(), splitErrorStatus(err))
		return
	}

	start := time.Now()
	sections, err := splitter.SplitAll(pages)
	if err != nil {
		jsonError(w, err.Error(), splitErrorStatus(err))
		return
	}
	s.orchestrator.SplitStats().Since(start)
	if sections == nil {
		sections = []doctree.SplitPage{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"pages":    len(pages),
		"sections": sections,
	})
}

func splitErrorStatus(err error) int {
	var malformed *layout.MalformedTableError
	var outOfRange *layout.OutOfRangeSpanError
	var encoding *chunker.EncodingError
	if errors.As(err, &malformed) || errors.As(err, &outOfRange) || errors.As(err, &encoding) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
