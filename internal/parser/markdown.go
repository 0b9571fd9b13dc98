package parser

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/dgallion1/docsplit/internal/doctree"
	"github.com/dgallion1/docsplit/internal/layout"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. GFM tables are
// rendered as HTML tables; everything else becomes plain text blocks.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(ctx context.Context, r io.Reader, filename string) ([]doctree.Page, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		var t string
		switch node := n.(type) {
		case *east.Table:
			frag, err := RenderTable(markdownTable(node, src))
			if err != nil {
				return nil, err
			}
			t = frag
		case *ast.List:
			var items []string
			for li := node.FirstChild(); li != nil; li = li.NextSibling() {
				if s := blockText(li, src); s != "" {
					items = append(items, "- "+s)
				}
			}
			t = strings.Join(items, "\n")
		default:
			t = blockText(n, src)
		}
		if t != "" {
			blocks = append(blocks, t)
		}
	}
	if len(blocks) == 0 {
		return nil, nil
	}
	return doctree.NewPages([]string{strings.Join(blocks, "\n\n")}), nil
}

func markdownTable(tbl *east.Table, src []byte) *layout.Table {
	t := &layout.Table{Cells: []layout.Cell{}}
	row := 0
	for r := tbl.FirstChild(); r != nil; r = r.NextSibling() {
		_, header := r.(*east.TableHeader)
		col := 0
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			kind := layout.KindContent
			if header {
				kind = layout.KindColumnHeader
			}
			t.Cells = append(t.Cells, layout.Cell{
				Kind:        kind,
				RowIndex:    row,
				ColumnIndex: col,
				Content:     inlineText(c, src),
			})
			col++
		}
		t.ColumnCount = max(t.ColumnCount, col)
		row++
	}
	t.RowCount = row
	return t
}

// blockText gets the text content of a goldmark block node.
func blockText(n ast.Node, src []byte) string {
	switch n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		var buf bytes.Buffer
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	if c := n.FirstChild(); c != nil && c.Type() == ast.TypeBlock {
		var parts []string
		for ; c != nil; c = c.NextSibling() {
			if s := blockText(c, src); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	}
	return inlineText(n, src)
}

// inlineText concatenates the inline text beneath n.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Value(src))
				if t.HardLineBreak() || t.SoftLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.String:
				buf.Write(t.Value)
			case *ast.AutoLink:
				buf.Write(t.Label(src))
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}
