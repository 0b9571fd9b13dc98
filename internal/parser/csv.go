package parser

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docsplit/internal/doctree"
)

// rowsPerTable bounds rendered tables so each fits in a section.
const rowsPerTable = 20

// CSVParser handles CSV files as a single page of tables.
type CSVParser struct{}

func (p *CSVParser) Parse(ctx context.Context, r io.Reader, filename string) ([]doctree.Page, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	text, err := renderBatches(records)
	if err != nil {
		return nil, err
	}
	return doctree.NewPages([]string{text}), nil
}

// renderBatches renders rows as consecutive tables of at most rowsPerTable
// data rows, repeating the first row as the header of each.
func renderBatches(records [][]string) (string, error) {
	headers := records[0]
	dataRows := records[1:]
	if len(dataRows) == 0 {
		return RenderTable(tableFromRows([][]string{headers}, true))
	}

	var parts []string
	for i := 0; i < len(dataRows); i += rowsPerTable {
		end := min(i+rowsPerTable, len(dataRows))
		batch := make([][]string, 0, end-i+1)
		batch = append(batch, headers)
		batch = append(batch, dataRows[i:end]...)

		frag, err := RenderTable(tableFromRows(batch, true))
		if err != nil {
			return "", err
		}
		parts = append(parts, frag)
	}
	return strings.Join(parts, "\n\n"), nil
}
