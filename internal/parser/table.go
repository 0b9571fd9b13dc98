package parser

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/dgallion1/docsplit/internal/layout"
	"golang.org/x/net/html"
)

// RenderTable serializes a table as an HTML fragment, one <tr> per row.
// Header cells become <th>, everything else <td>.
func RenderTable(t *layout.Table) (string, error) {
	if err := checkTable(t); err != nil {
		return "", err
	}

	rows := make([][]layout.Cell, t.RowCount)
	for _, c := range t.Cells {
		if c.RowIndex < t.RowCount {
			rows[c.RowIndex] = append(rows[c.RowIndex], c)
		}
	}

	var sb strings.Builder
	sb.WriteString("<table>")
	for _, cells := range rows {
		slices.SortStableFunc(cells, func(a, b layout.Cell) int {
			return cmp.Compare(a.ColumnIndex, b.ColumnIndex)
		})
		sb.WriteString("<tr>")
		for _, c := range cells {
			tag := "td"
			if c.IsHeader() {
				tag = "th"
			}
			sb.WriteString("<" + tag)
			if c.ColumnSpan > 1 {
				sb.WriteString(` colSpan="` + strconv.Itoa(c.ColumnSpan) + `"`)
			}
			if c.RowSpan > 1 {
				sb.WriteString(` rowSpan="` + strconv.Itoa(c.RowSpan) + `"`)
			}
			sb.WriteString(">")
			sb.WriteString(html.EscapeString(c.Content))
			sb.WriteString("</" + tag + ">")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table>")
	return sb.String(), nil
}

func checkTable(t *layout.Table) error {
	switch {
	case t == nil:
		return &layout.MalformedTableError{Table: -1, Reason: "nil table"}
	case t.Cells == nil:
		return &layout.MalformedTableError{Table: -1, Reason: "missing cells"}
	case t.RowCount < 0:
		return &layout.MalformedTableError{Table: -1, Reason: "negative row count"}
	case t.RowCount == 0 && len(t.Cells) > 0:
		return &layout.MalformedTableError{Table: -1, Reason: "missing row count"}
	case t.RowCount > len(t.Cells):
		// The layout service emits a cell for every grid position.
		return &layout.MalformedTableError{Table: -1, Reason: "row count exceeds cell count"}
	}
	for _, c := range t.Cells {
		if c.RowIndex < 0 || c.ColumnIndex < 0 {
			return &layout.MalformedTableError{Table: -1, Reason: "negative cell index"}
		}
	}
	return nil
}

// tableFromRows builds a table from a grid of strings. When header is true
// the first row is marked as column headers.
func tableFromRows(rows [][]string, header bool) *layout.Table {
	t := &layout.Table{RowCount: len(rows), Cells: []layout.Cell{}}
	for i, row := range rows {
		if len(row) > t.ColumnCount {
			t.ColumnCount = len(row)
		}
		for j, v := range row {
			kind := layout.KindContent
			if header && i == 0 {
				kind = layout.KindColumnHeader
			}
			t.Cells = append(t.Cells, layout.Cell{
				Kind:        kind,
				RowIndex:    i,
				ColumnIndex: j,
				Content:     v,
			})
		}
	}
	return t
}
