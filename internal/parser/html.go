package parser

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/docsplit/internal/doctree"
	"github.com/dgallion1/docsplit/internal/layout"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Block text is kept as paragraphs and
// <table> elements are normalized through RenderTable.
type HTMLParser struct{}

func (p *HTMLParser) Parse(ctx context.Context, r io.Reader, filename string) ([]doctree.Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var blocks []string
	var walkErr error

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if walkErr != nil {
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "head":
				return
			case "table":
				frag, err := RenderTable(htmlTable(n))
				if err != nil {
					walkErr = err
					return
				}
				blocks = append(blocks, frag)
				return
			case "h1", "h2", "h3", "h4", "h5", "h6", "p", "li", "blockquote", "pre", "dt", "dd":
				if t := textContent(n); t != "" {
					blocks = append(blocks, t)
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	// Find <body> or use whole document.
	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	if walkErr != nil {
		return nil, walkErr
	}
	if len(blocks) == 0 {
		return nil, nil
	}
	return doctree.NewPages([]string{strings.Join(blocks, "\n\n")}), nil
}

// htmlTable converts a <table> element into table geometry, honoring
// colspan/rowspan attributes. Nested tables are flattened to text.
func htmlTable(n *html.Node) *layout.Table {
	t := &layout.Table{Cells: []layout.Cell{}}
	var rows []*html.Node
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "tr":
				rows = append(rows, c)
			case "thead", "tbody", "tfoot":
				collect(c)
			}
		}
	}
	collect(n)

	for i, tr := range rows {
		col := 0
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
				continue
			}
			kind := layout.KindContent
			if c.Data == "th" {
				kind = layout.KindColumnHeader
			}
			t.Cells = append(t.Cells, layout.Cell{
				Kind:        kind,
				RowIndex:    i,
				ColumnIndex: col,
				RowSpan:     intAttr(c, "rowspan"),
				ColumnSpan:  intAttr(c, "colspan"),
				Content:     textContent(c),
			})
			col++
		}
		t.ColumnCount = max(t.ColumnCount, col)
	}
	t.RowCount = len(rows)
	return t
}

func intAttr(n *html.Node, key string) int {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			if v, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil {
				return v
			}
		}
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
