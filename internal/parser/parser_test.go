package parser

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/dgallion1/docsplit/internal/layout"
)

type stubAnalyzer struct {
	res *layout.Result
	err error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, r io.Reader) (*layout.Result, error) {
	return s.res, s.err
}

func TestRegistry_ForFile(t *testing.T) {
	reg := &Registry{}
	cases := map[string]any{
		"a.txt":  &TextParser{},
		"a.MD":   &MarkdownParser{},
		"a.csv":  &CSVParser{},
		"a.htm":  &HTMLParser{},
		"a.json": &LayoutParser{},
		"a.xlsx": &XLSXParser{},
		"a.pdf":  &PDFParser{},
		"a.docx": &DOCXParser{},
	}
	for name, want := range cases {
		p, err := reg.ForFile(name)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
			continue
		}
		if got, w := typeName(p), typeName(want); got != w {
			t.Errorf("%s: expected %s, got %s", name, w, got)
		}
	}

	if _, err := reg.ForFile("slides.pptx"); err == nil {
		t.Error("expected error for pptx without analyzer")
	}
	if _, err := reg.ForFile("binary.exe"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestRegistry_AnalyzerTakesBinaryFormats(t *testing.T) {
	reg := &Registry{Analyzer: &stubAnalyzer{}}
	for _, name := range []string{"a.pdf", "a.docx", "a.pptx", "scan.png"} {
		p, err := reg.ForFile(name)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if _, ok := p.(*AnalyzeParser); !ok {
			t.Errorf("%s: expected AnalyzeParser, got %T", name, p)
		}
	}
	p, _ := reg.ForFile("notes.txt")
	if _, ok := p.(*TextParser); !ok {
		t.Errorf("expected text files to stay local, got %T", p)
	}
}

func TestAnalyzeParser_Errors(t *testing.T) {
	wantErr := &layout.RetryableError{StatusCode: 503, Message: "busy"}
	p := &AnalyzeParser{Analyzer: &stubAnalyzer{err: wantErr}}
	_, err := p.Parse(context.Background(), nil, "a.pdf")
	var re *layout.RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("expected wrapped RetryableError, got %v", err)
	}
}

func TestAnalyzeParser_SkipInvalidPages(t *testing.T) {
	res := &layout.Result{
		Content: "ok",
		Pages: []layout.Page{
			{PageNumber: 1, Spans: []layout.Span{{Offset: 0, Length: 2}}},
			{PageNumber: 2, Spans: []layout.Span{{Offset: 0, Length: 10}}},
		},
	}
	strict := &AnalyzeParser{Analyzer: &stubAnalyzer{res: res}}
	if _, err := strict.Parse(context.Background(), nil, "a.pdf"); err == nil {
		t.Fatal("expected strict reconstruction to fail")
	}

	lenient := &AnalyzeParser{Analyzer: &stubAnalyzer{res: res}, SkipInvalidPages: true}
	pages, err := lenient.Parse(context.Background(), nil, "a.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 || pages[0].Text != "ok" {
		t.Errorf("unexpected pages: %+v", pages)
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension("Report.PDF") {
		t.Error("expected pdf supported")
	}
	if IsSupportedExtension("archive.zip") {
		t.Error("expected zip unsupported")
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *TextParser:
		return "text"
	case *MarkdownParser:
		return "markdown"
	case *CSVParser:
		return "csv"
	case *HTMLParser:
		return "html"
	case *LayoutParser:
		return "layout"
	case *XLSXParser:
		return "xlsx"
	case *PDFParser:
		return "pdf"
	case *DOCXParser:
		return "docx"
	case *AnalyzeParser:
		return "analyze"
	}
	return "unknown"
}
