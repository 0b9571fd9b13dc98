package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dgallion1/docsplit/internal/doctree"
	"github.com/dgallion1/docsplit/internal/layout"
)

const noTable = -1

// Reconstruct turns a layout analysis result into linear page text. Each
// table's character span is replaced by its rendered HTML, emitted once at
// the table's first character on the page.
func Reconstruct(res *layout.Result) ([]doctree.Page, error) {
	pages, errs := reconstruct(res, false)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return pages, nil
}

// ReconstructLenient is Reconstruct but drops pages that fail, logging and
// returning their errors. Remaining pages keep consistent offsets.
func ReconstructLenient(res *layout.Result, log *slog.Logger) ([]doctree.Page, []error) {
	if log == nil {
		log = slog.Default()
	}
	pages, errs := reconstruct(res, true)
	for _, err := range errs {
		log.Warn("skipping page", "error", err)
	}
	return pages, errs
}

func reconstruct(res *layout.Result, skip bool) ([]doctree.Page, []error) {
	content := []rune(res.Content)
	var (
		pages []doctree.Page
		errs  []error
	)
	offset := 0
	for p := range res.Pages {
		text, err := pageText(res, content, p)
		if err != nil {
			errs = append(errs, err)
			if !skip {
				return nil, errs
			}
			continue
		}
		pages = append(pages, doctree.Page{PageNum: p, Offset: offset, Text: text})
		offset += len([]rune(text))
	}
	return pages, errs
}

// tablesOnPage returns the indices of tables whose first bounding region
// is on 0-based page p.
func tablesOnPage(res *layout.Result, p int) []int {
	var ids []int
	for i, t := range res.Tables {
		if len(t.BoundingRegions) > 0 && t.BoundingRegions[0].PageNumber == p+1 {
			ids = append(ids, i)
		}
	}
	return ids
}

func pageText(res *layout.Result, content []rune, p int) (string, error) {
	page := res.Pages[p]
	if len(page.Spans) == 0 {
		return "", nil
	}
	pageOffset := page.Spans[0].Offset
	pageLength := page.Spans[0].Length
	if pageOffset < 0 || pageLength < 0 || pageOffset+pageLength > len(content) {
		return "", &layout.OutOfRangeSpanError{
			Page:          p,
			Offset:        pageOffset,
			Length:        pageLength,
			ContentLength: len(content),
		}
	}

	tables := tablesOnPage(res, p)
	owner := make([]int, pageLength)
	for i := range owner {
		owner[i] = noTable
	}
	for _, id := range tables {
		for _, span := range res.Tables[id].Spans {
			for i := range span.Length {
				idx := span.Offset - pageOffset + i
				if idx >= 0 && idx < pageLength {
					owner[idx] = id
				}
			}
		}
	}

	var sb strings.Builder
	emitted := make(map[int]bool, len(tables))
	for i, id := range owner {
		switch {
		case id == noTable:
			sb.WriteRune(content[pageOffset+i])
		case !emitted[id]:
			frag, err := RenderTable(&res.Tables[id])
			if err != nil {
				var mt *layout.MalformedTableError
				if errors.As(err, &mt) {
					mt.Table = id
				}
				return "", fmt.Errorf("page %d: %w", p, err)
			}
			sb.WriteString(frag)
			emitted[id] = true
		}
	}
	return sb.String(), nil
}

// LayoutParser reads a stored layout analysis result.
type LayoutParser struct {
	SkipInvalidPages bool
	Log              *slog.Logger
}

func (p *LayoutParser) Parse(ctx context.Context, r io.Reader, filename string) ([]doctree.Page, error) {
	res, err := layout.Decode(r)
	if err != nil {
		return nil, err
	}
	if p.SkipInvalidPages {
		pages, _ := ReconstructLenient(res, p.Log)
		return pages, nil
	}
	return Reconstruct(res)
}
