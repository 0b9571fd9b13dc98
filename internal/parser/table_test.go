package parser

import (
	"errors"
	"testing"

	"github.com/dgallion1/docsplit/internal/layout"
)

func TestRenderTable_HeadersAndOrdering(t *testing.T) {
	tbl := &layout.Table{
		RowCount: 2,
		Cells: []layout.Cell{
			{Kind: layout.KindContent, RowIndex: 1, ColumnIndex: 1, Content: "2"},
			{Kind: layout.KindColumnHeader, RowIndex: 0, ColumnIndex: 1, Content: "B"},
			{Kind: layout.KindRowHeader, RowIndex: 1, ColumnIndex: 0, Content: "row"},
			{Kind: layout.KindColumnHeader, RowIndex: 0, ColumnIndex: 0, Content: "A"},
		},
	}
	got, err := RenderTable(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "<table><tr><th>A</th><th>B</th></tr><tr><th>row</th><td>2</td></tr></table>"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderTable_SpansOnlyWhenGreaterThanOne(t *testing.T) {
	tbl := &layout.Table{
		RowCount: 2,
		Cells: []layout.Cell{
			{RowIndex: 0, ColumnIndex: 0, ColumnSpan: 2, RowSpan: 1, Content: "wide"},
			{RowIndex: 1, ColumnIndex: 0, ColumnSpan: 1, RowSpan: 3, Content: "tall"},
			{RowIndex: 1, ColumnIndex: 1, ColumnSpan: 2, RowSpan: 2, Content: "both"},
		},
	}
	got, err := RenderTable(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<table><tr><td colSpan="2">wide</td></tr>` +
		`<tr><td rowSpan="3">tall</td><td colSpan="2" rowSpan="2">both</td></tr></table>`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderTable_EscapesContent(t *testing.T) {
	tbl := &layout.Table{
		RowCount: 1,
		Cells:    []layout.Cell{{RowIndex: 0, ColumnIndex: 0, Content: `<b>"x" & y</b>`}},
	}
	got, err := RenderTable(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "<table><tr><td>&lt;b&gt;&#34;x&#34; &amp; y&lt;/b&gt;</td></tr></table>"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderTable_EmptyRowsAndOutOfRangeCells(t *testing.T) {
	tbl := &layout.Table{
		RowCount: 2,
		Cells: []layout.Cell{
			{RowIndex: 0, ColumnIndex: 0, Content: "only"},
			{RowIndex: 5, ColumnIndex: 0, Content: "dropped"},
		},
	}
	got, err := RenderTable(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "<table><tr><td>only</td></tr><tr></tr></table>"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderTable_Malformed(t *testing.T) {
	cases := []struct {
		name string
		tbl  *layout.Table
	}{
		{"nil table", nil},
		{"missing cells", &layout.Table{RowCount: 1}},
		{"missing row count", &layout.Table{Cells: []layout.Cell{{Content: "x"}}}},
		{"negative row count", &layout.Table{RowCount: -1, Cells: []layout.Cell{}}},
		{"row count beyond cells", &layout.Table{RowCount: 1 << 40, Cells: []layout.Cell{{Content: "x"}}}},
		{"rows without cells", &layout.Table{RowCount: 3, Cells: []layout.Cell{}}},
		{"negative index", &layout.Table{RowCount: 1, Cells: []layout.Cell{{RowIndex: 0, ColumnIndex: -1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := RenderTable(tc.tbl)
			var mt *layout.MalformedTableError
			if !errors.As(err, &mt) {
				t.Fatalf("expected MalformedTableError, got %v", err)
			}
		})
	}
}

func TestRenderTable_EmptyTable(t *testing.T) {
	got, err := RenderTable(&layout.Table{Cells: []layout.Cell{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "<table></table>" {
		t.Errorf("expected empty table, got %q", got)
	}
}
