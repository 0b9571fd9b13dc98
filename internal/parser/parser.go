package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docsplit/internal/doctree"
	"github.com/dgallion1/docsplit/internal/layout"
)

// Parser converts raw document bytes into an ordered, offset-consistent page sequence.
type Parser interface {
	Parse(ctx context.Context, r io.Reader, filename string) ([]doctree.Page, error)
}

// Analyzer runs remote layout analysis on a document.
type Analyzer interface {
	Analyze(ctx context.Context, r io.Reader) (*layout.Result, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".json":     true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".xlsx":     true,
	".pptx":     true,
	".png":      true,
	".jpg":      true,
	".jpeg":     true,
	".tiff":     true,
	".bmp":      true,
}

// analyzerOnly lists extensions that need the layout service.
var analyzerOnly = map[string]bool{
	".pptx": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tiff": true,
	".bmp":  true,
}

// Registry picks a parser per file. Binary formats go to the Analyzer when
// one is configured and fall back to local extraction otherwise.
type Registry struct {
	Analyzer             Analyzer
	SkipInvalidPages     bool
	PDFFallbackPdftotext bool
	Log                  *slog.Logger
}

// ForFile returns the appropriate parser for a filename.
func (reg *Registry) ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if reg.Analyzer != nil {
		switch ext {
		case ".pdf", ".docx", ".pptx", ".png", ".jpg", ".jpeg", ".tiff", ".bmp":
			return &AnalyzeParser{Analyzer: reg.Analyzer, SkipInvalidPages: reg.SkipInvalidPages, Log: reg.Log}, nil
		}
	}
	if analyzerOnly[ext] {
		return nil, fmt.Errorf("%s requires a layout analysis service", ext)
	}
	switch ext {
	case ".json":
		return &LayoutParser{SkipInvalidPages: reg.SkipInvalidPages, Log: reg.Log}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".xlsx":
		return &XLSXParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: reg.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// AnalyzeParser sends the document to the layout service and reconstructs
// its pages from the result.
type AnalyzeParser struct {
	Analyzer         Analyzer
	SkipInvalidPages bool
	Log              *slog.Logger
}

func (p *AnalyzeParser) Parse(ctx context.Context, r io.Reader, filename string) ([]doctree.Page, error) {
	res, err := p.Analyzer.Analyze(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", filename, err)
	}
	if p.SkipInvalidPages {
		pages, _ := ReconstructLenient(res, p.Log)
		return pages, nil
	}
	return Reconstruct(res)
}
