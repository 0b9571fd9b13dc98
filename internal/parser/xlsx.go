package parser

import (
	"context"
	"fmt"
	"io"

	"github.com/dgallion1/docsplit/internal/doctree"
	"github.com/xuri/excelize/v2"
)

// XLSXParser handles spreadsheets, one page per sheet.
type XLSXParser struct{}

func (p *XLSXParser) Parse(ctx context.Context, r io.Reader, filename string) ([]doctree.Page, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var texts []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		rows = trimEmptyRows(rows)
		if len(rows) == 0 {
			texts = append(texts, "")
			continue
		}
		body, err := renderBatches(rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		texts = append(texts, sheet+"\n\n"+body)
	}
	return doctree.NewPages(texts), nil
}

func trimEmptyRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, v := range row {
			if v != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
