package index

import (
	"testing"

	"github.com/dgallion1/docsplit/internal/doctree"
)

func TestFilenameToID(t *testing.T) {
	cases := map[string]string{
		"a.pdf":       "file-a_pdf-612E706466",
		"My File.pdf": "file-My_File_pdf-4D792046696C652E706466",
		"é-1":         "file-_-1-C3A92D31",
	}
	for in, want := range cases {
		if got := FilenameToID(in); got != want {
			t.Errorf("FilenameToID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCleanContent(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"<table><tr><td>a</td><td>b</td></tr></table>", "a  b"},
		{"before<!-- note -->after", "before after"},
		{"  line one\nline two\n", "line one line two"},
		{`a\nb`, "a b"},
	}
	for _, tc := range cases {
		if got := CleanContent(tc.in); got != tc.want {
			t.Errorf("CleanContent(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMetaFromKey(t *testing.T) {
	cases := []struct {
		key  string
		want Meta
	}{
		{"docs/2024/biology/lecture/notes.pdf", Meta{Subject: "biology", Type: "lecture", Prefix: "docs/2024/biology"}},
		{"docs/2024/biology/notes.pdf", Meta{Subject: "biology", Prefix: "docs/2024/biology"}},
		{"docs/notes.pdf", Meta{Prefix: "docs"}},
		{"notes.pdf", Meta{}},
	}
	for _, tc := range cases {
		if got := MetaFromKey(tc.key); got != tc.want {
			t.Errorf("MetaFromKey(%q) = %+v, want %+v", tc.key, got, tc.want)
		}
	}
}

func TestBuildDocuments(t *testing.T) {
	file := doctree.SourceFile{Name: "notes.pdf", Key: "docs/2024/biology/lecture/notes.pdf", URL: "s3://bucket/docs/2024/biology/lecture/notes.pdf"}
	sections := []doctree.SplitPage{
		{PageNum: 0, Text: "Intro.\n<table><tr><td>x</td></tr></table>"},
		{PageNum: 3, Text: "Later."},
	}
	docs := BuildDocuments(file, sections)
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	d := docs[1]
	if d.ID != FilenameToID("notes.pdf")+"-page-1" {
		t.Errorf("unexpected id %q", d.ID)
	}
	if d.Subject != "biology" || d.Type != "lecture" || d.Title != "notes.pdf" || d.Page != "3" {
		t.Errorf("unexpected document %+v", d)
	}
	if d.StorageURL != file.URL || d.Chapter != "" || d.Section != "" {
		t.Errorf("unexpected document %+v", d)
	}
	if docs[0].Content != "Intro.    x" {
		t.Errorf("unexpected content %q", docs[0].Content)
	}

	ids := DocumentIDs("notes.pdf", 2)
	if ids[0] != docs[0].ID || ids[1] != docs[1].ID {
		t.Errorf("DocumentIDs mismatch: %v", ids)
	}
}

func TestProcessedBlobName(t *testing.T) {
	got := ProcessedBlobName("docs/2024/biology/lecture/notes.pdf", "notes.pdf", 7)
	if want := "docs/2024/biology/processed/notes.pdf-7-parsed.json"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got := ProcessedBlobName("notes.pdf", "notes.pdf", 0); got != "processed/notes.pdf-0-parsed.json" {
		t.Errorf("unexpected root blob name %q", got)
	}
}
