package parser

import (
	"bytes"
	"context"
	"testing"

	"github.com/dgallion1/docsplit/internal/doctree"
	"github.com/xuri/excelize/v2"
)

func TestXLSXParser_OnePagePerSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "name")
	f.SetCellValue("Sheet1", "B1", "qty")
	f.SetCellValue("Sheet1", "A2", "apple")
	f.SetCellValue("Sheet1", "B2", 3)
	if _, err := f.NewSheet("Empty"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	p := &XLSXParser{}
	pages, err := p.Parse(context.Background(), bytes.NewReader(buf.Bytes()), "stock.xlsx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	want := "Sheet1\n\n<table><tr><th>name</th><th>qty</th></tr><tr><td>apple</td><td>3</td></tr></table>"
	if pages[0].Text != want {
		t.Errorf("expected %q, got %q", want, pages[0].Text)
	}
	if pages[1].Text != "" || pages[1].PageNum != 1 {
		t.Errorf("expected empty second page, got %+v", pages[1])
	}
	if err := doctree.ValidateOffsets(pages); err != nil {
		t.Errorf("offset invariant violated: %v", err)
	}
}

func TestXLSXParser_RejectsGarbage(t *testing.T) {
	p := &XLSXParser{}
	if _, err := p.Parse(context.Background(), bytes.NewReader([]byte("not a zip")), "x.xlsx"); err == nil {
		t.Fatal("expected error for invalid workbook")
	}
}
