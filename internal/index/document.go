package index

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/docsplit/internal/doctree"
)

// Document is one search index record.
type Document struct {
	ID         string `json:"id"`
	Subject    string `json:"subject"`
	Type       string `json:"type"`
	StorageURL string `json:"storage_url"`
	Title      string `json:"title"`
	Chapter    string `json:"chapter"`
	Section    string `json:"section"`
	Page       string `json:"page"`
	Content    string `json:"content"`
}

var (
	unsafeIDChars = regexp.MustCompile(`[^0-9a-zA-Z_-]`)
	markupRe      = regexp.MustCompile(`(?s)<[^>]*>|<!--.*?-->|\\n+`)
)

// FilenameToID derives a stable, index-safe key prefix from a filename.
func FilenameToID(name string) string {
	return fmt.Sprintf("file-%s-%X", unsafeIDChars.ReplaceAllString(name, "_"), name)
}

// CleanContent strips HTML tags, comments and escaped newlines, leaving
// single-line searchable text.
func CleanContent(text string) string {
	text = markupRe.ReplaceAllString(text, " ")
	return strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")
}

// Meta is the classification encoded in a blob key.
type Meta struct {
	Subject string
	Type    string
	Prefix  string // Key prefix under which processed output is written
}

// MetaFromKey reads subject and type from a key laid out as
// <area>/<group>/<subject>/<type>/.../<file>.
func MetaFromKey(key string) Meta {
	parts := strings.Split(strings.TrimPrefix(key, "/"), "/")
	dirs := parts[:len(parts)-1]

	var m Meta
	if len(dirs) > 2 {
		m.Subject = dirs[2]
		m.Prefix = strings.Join(dirs[:3], "/")
	} else {
		m.Prefix = strings.Join(dirs, "/")
	}
	if len(dirs) > 3 {
		m.Type = dirs[3]
	}
	return m
}

// BuildDocuments maps a file's sections to index documents, numbered in
// emission order.
func BuildDocuments(file doctree.SourceFile, sections []doctree.SplitPage) []Document {
	meta := MetaFromKey(file.Key)
	prefix := FilenameToID(file.Name)
	docs := make([]Document, 0, len(sections))
	for i, sp := range sections {
		docs = append(docs, Document{
			ID:         prefix + "-page-" + strconv.Itoa(i),
			Subject:    meta.Subject,
			Type:       meta.Type,
			StorageURL: file.URL,
			Title:      file.Name,
			Page:       strconv.Itoa(sp.PageNum),
			Content:    CleanContent(sp.Text),
		})
	}
	return docs
}

// DocumentIDs returns the ids BuildDocuments assigns to n sections of a file.
func DocumentIDs(filename string, n int) []string {
	prefix := FilenameToID(filename)
	ids := make([]string, n)
	for i := range ids {
		ids[i] = prefix + "-page-" + strconv.Itoa(i)
	}
	return ids
}

// ProcessedBlobName is the key a section's document is written to.
func ProcessedBlobName(key, filename string, i int) string {
	return path.Join(MetaFromKey(key).Prefix, "processed", fmt.Sprintf("%s-%d-parsed.json", filename, i))
}
