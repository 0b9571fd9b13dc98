package doctree

import (
	"fmt"
	"unicode/utf8"
)

// Page is one page of a document's linear text.
type Page struct {
	PageNum int    // 0-based page number
	Offset  int    // Rune offset of the page's first character in the concatenated document text
	Text    string // Linear page text, tables already rendered as HTML
}

// SplitPage is a bounded chunk of document text ready for indexing.
type SplitPage struct {
	PageNum int    `json:"page_num"` // Page containing the chunk's starting offset
	Text    string `json:"text"`
}

// SourceFile identifies where a document came from.
type SourceFile struct {
	Name string // Base filename
	Key  string // Storage key, if the document came from a blob store
	URL  string // Storage URL, if known
}

// Section pairs a chunk with the document it was cut from.
type Section struct {
	SplitPage
	File SourceFile
}

// NewPages builds an offset-consistent page sequence from per-page texts.
func NewPages(texts []string) []Page {
	pages := make([]Page, 0, len(texts))
	offset := 0
	for i, t := range texts {
		pages = append(pages, Page{PageNum: i, Offset: offset, Text: t})
		offset += utf8.RuneCountInString(t)
	}
	return pages
}

// TotalLength returns the rune length of the concatenated page texts.
func TotalLength(pages []Page) int {
	n := 0
	for _, p := range pages {
		n += utf8.RuneCountInString(p.Text)
	}
	return n
}

// ValidateOffsets checks that every page offset equals the rune length of
// the pages before it.
func ValidateOffsets(pages []Page) error {
	want := 0
	for i, p := range pages {
		if p.Offset != want {
			return fmt.Errorf("page %d: offset %d, want %d", i, p.Offset, want)
		}
		want += utf8.RuneCountInString(p.Text)
	}
	return nil
}
