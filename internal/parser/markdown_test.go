package parser

import (
	"context"
	"strings"
	"testing"
)

func TestMarkdownParser_BlocksAndHeadings(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content
continues here.

- first item
- second item
`
	p := &MarkdownParser{}
	pages, err := p.Parse(context.Background(), strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}

	got := pages[0].Text
	for _, want := range []string{"Title", "Intro text.", "Section A", "Section A content\ncontinues here.", "- first item\n- second item"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected page text to contain %q, got %q", want, got)
		}
	}
	if strings.Count(got, "Intro text.") != 1 {
		t.Errorf("expected paragraph text once, got %q", got)
	}
	if strings.Contains(got, "#") {
		t.Errorf("expected heading markers stripped, got %q", got)
	}
}

func TestMarkdownParser_TableRenderedAsHTML(t *testing.T) {
	input := `Before the table.

| Name | Qty |
| ---- | --- |
| a<b  | 1   |
| c    | 2   |

After the table.
`
	p := &MarkdownParser{}
	pages, err := p.Parse(context.Background(), strings.NewReader(input), "t.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "<table><tr><th>Name</th><th>Qty</th></tr><tr><td>a&lt;b</td><td>1</td></tr><tr><td>c</td><td>2</td></tr></table>"
	got := pages[0].Text
	if !strings.Contains(got, want) {
		t.Errorf("expected rendered table %q in %q", want, got)
	}
	if !strings.HasPrefix(got, "Before the table.") || !strings.HasSuffix(got, "After the table.") {
		t.Errorf("expected surrounding text preserved, got %q", got)
	}
}

func TestMarkdownParser_CodeBlock(t *testing.T) {
	input := "Text.\n\n```go\nfmt.Println(\"hi\")\n```\n"
	p := &MarkdownParser{}
	pages, err := p.Parse(context.Background(), strings.NewReader(input), "code.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(pages[0].Text, `fmt.Println("hi")`) {
		t.Errorf("expected code block text, got %q", pages[0].Text)
	}
}

func TestMarkdownParser_Empty(t *testing.T) {
	p := &MarkdownParser{}
	pages, err := p.Parse(context.Background(), strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("expected no pages, got %d", len(pages))
	}
}
