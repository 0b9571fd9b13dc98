package layout

import (
	"encoding/json"
	"fmt"
	"io"
)

// Cell kinds reported by the layout service.
const (
	KindContent      = "content"
	KindRowHeader    = "rowHeader"
	KindColumnHeader = "columnHeader"
	KindStubHead     = "stubHead"
	KindDescription  = "description"
)

// Span is a contiguous range of Result.Content, in runes.
type Span struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// BoundingRegion locates an element on a 1-based page.
type BoundingRegion struct {
	PageNumber int `json:"pageNumber"`
}

// Cell is a single table cell.
type Cell struct {
	Kind        string `json:"kind,omitempty"`
	RowIndex    int    `json:"rowIndex"`
	ColumnIndex int    `json:"columnIndex"`
	RowSpan     int    `json:"rowSpan,omitempty"`
	ColumnSpan  int    `json:"columnSpan,omitempty"`
	Content     string `json:"content"`
}

// IsHeader reports whether the cell renders as a header cell.
func (c Cell) IsHeader() bool {
	return c.Kind == KindColumnHeader || c.Kind == KindRowHeader
}

// Table is a structured table found by layout analysis.
type Table struct {
	RowCount        int              `json:"rowCount"`
	ColumnCount     int              `json:"columnCount"`
	Cells           []Cell           `json:"cells"`
	Spans           []Span           `json:"spans"`
	BoundingRegions []BoundingRegion `json:"boundingRegions"`
}

// Page is one analyzed page. Only the first span is used for text.
type Page struct {
	PageNumber int    `json:"pageNumber"`
	Spans      []Span `json:"spans"`
}

// Result is the layout analysis of a whole document.
type Result struct {
	Content string  `json:"content"`
	Pages   []Page  `json:"pages"`
	Tables  []Table `json:"tables"`
}

// Decode reads an analysis result. It accepts either a bare result or the
// service's operation envelope with the result under "analyzeResult".
func Decode(r io.Reader) (*Result, error) {
	var raw struct {
		Result
		AnalyzeResult *Result `json:"analyzeResult"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode layout result: %w", err)
	}
	if raw.AnalyzeResult != nil {
		return raw.AnalyzeResult, nil
	}
	res := raw.Result
	return &res, nil
}
