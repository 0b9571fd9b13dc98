package chunker

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docsplit/internal/doctree"
)

// Config controls section splitting. Lengths are in characters (runes).
type Config struct {
	MaxSectionLength    int `json:"max_section_length"`     // Nominal macro-section length.
	SentenceSearchLimit int `json:"sentence_search_limit"`  // How far past the nominal end to look for a sentence ending.
	OverlapPercent      int `json:"overlap_percent"`        // Overlap between sections, percent of MaxSectionLength.
	MaxTokensPerSection int `json:"max_tokens_per_section"` // Token budget for each emitted section.
}

// MaxOverlapPercent bounds OverlapPercent. A bisection without a sentence
// ending keeps (50+OverlapPercent)% of its input in each half.
const MaxOverlapPercent = 25

// DefaultConfig returns the defaults used for embedding-sized sections.
func DefaultConfig() Config {
	return Config{
		MaxSectionLength:    1000,
		SentenceSearchLimit: 100,
		OverlapPercent:      10,
		MaxTokensPerSection: 500,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxSectionLength <= 0 {
		c.MaxSectionLength = d.MaxSectionLength
	}
	if c.SentenceSearchLimit <= 0 {
		c.SentenceSearchLimit = d.SentenceSearchLimit
	}
	if c.OverlapPercent <= 0 {
		c.OverlapPercent = d.OverlapPercent
	}
	c.OverlapPercent = min(c.OverlapPercent, MaxOverlapPercent)
	if c.MaxTokensPerSection <= 0 {
		c.MaxTokensPerSection = d.MaxTokensPerSection
	}
	return c
}

// SectionOverlap is the number of characters consecutive macro-sections share.
func (c Config) SectionOverlap() int {
	return c.MaxSectionLength * c.OverlapPercent / 100
}

// Splitter cuts a document's pages into token-bounded sections.
//
// Splitting runs in two stages. Macro-sections of about MaxSectionLength
// characters are cut from the concatenated page text, ending on a sentence
// ending or word break where one is close, and overlapping their
// neighbours. Each macro-section is then bisected until every piece fits
// MaxTokensPerSection, preferring a sentence ending near the middle.
//
// A Splitter holds no per-document state and is safe for concurrent use.
type Splitter struct {
	cfg Config
	tok Tokenizer
	log *slog.Logger
}

// New creates a Splitter. Zero config fields take their defaults.
func New(cfg Config, tok Tokenizer) *Splitter {
	if tok == nil {
		tok = EstimateTokenizer{}
	}
	return &Splitter{cfg: cfg.withDefaults(), tok: tok, log: slog.Default()}
}

// WithLogger sets the logger used for diagnostics.
func (s *Splitter) WithLogger(log *slog.Logger) *Splitter {
	if log != nil {
		s.log = log
	}
	return s
}

// Config returns the effective configuration.
func (s *Splitter) Config() Config { return s.cfg }

// WithConfig returns a Splitter sharing s's tokenizer and logger with a
// different configuration.
func (s *Splitter) WithConfig(cfg Config) *Splitter {
	return &Splitter{cfg: cfg.withDefaults(), tok: s.tok, log: s.log}
}

// Split lazily yields sections for pages in document order. Iteration stops
// at the first error.
func (s *Splitter) Split(pages []doctree.Page) iter.Seq2[doctree.SplitPage, error] {
	return func(yield func(doctree.SplitPage, error) bool) {
		var sb strings.Builder
		for _, p := range pages {
			if !utf8.ValidString(p.Text) {
				yield(doctree.SplitPage{}, &EncodingError{PageNum: p.PageNum, Err: ErrInvalidUTF8})
				return
			}
			sb.WriteString(p.Text)
		}
		if err := doctree.ValidateOffsets(pages); err != nil {
			yield(doctree.SplitPage{}, fmt.Errorf("%w: %v", ErrPageOffsets, err))
			return
		}
		text := []rune(sb.String())
		if isBlank(text) {
			return
		}

		if len(text) <= s.cfg.MaxSectionLength {
			s.refine(findPage(pages, 0), text, yield)
			return
		}
		for sec := range s.sections(pages, text) {
			if !s.refine(findPage(pages, sec.start), text[sec.start:sec.end], yield) {
				return
			}
		}
	}
}

// SplitAll collects Split into a slice.
func (s *Splitter) SplitAll(pages []doctree.Page) ([]doctree.SplitPage, error) {
	var out []doctree.SplitPage
	for sp, err := range s.Split(pages) {
		if err != nil {
			return out, err
		}
		out = append(out, sp)
	}
	return out, nil
}

type span struct {
	start, end int
}

// sections enumerates macro-sections of text as rune ranges.
func (s *Splitter) sections(pages []doctree.Page, text []rune) iter.Seq[span] {
	return func(yield func(span) bool) {
		length := len(text)
		overlap := s.cfg.SectionOverlap()
		start, end := 0, length
		for start+overlap < length {
			prev := start
			end = s.sectionEnd(text, start)
			start = s.adjustStart(text, start, end)
			if !yield(span{start, end}) {
				return
			}
			start = s.nextStart(pages, text[start:end], start, end)
			if start <= prev {
				// A table pull that would revisit the same position.
				start = end - overlap
			}
		}
		if start+overlap < end {
			yield(span{start, end})
		}
	}
}

// sectionEnd finds where the macro-section beginning at start ends. It
// looks up to SentenceSearchLimit characters past the nominal end for a
// sentence ending, then settles for the last word break seen.
func (s *Splitter) sectionEnd(text []rune, start int) int {
	length := len(text)
	maxLen, limit := s.cfg.MaxSectionLength, s.cfg.SentenceSearchLimit

	lastWord := -1
	end := start + maxLen
	if end > length {
		end = length
	} else {
		for end < length && end-start-maxLen < limit && !isSentenceEnding(text[end]) {
			if isWordBreak(text[end]) {
				lastWord = end
			}
			end++
		}
		if end < length && !isSentenceEnding(text[end]) && lastWord > 0 {
			end = lastWord
		}
	}
	if end < length {
		end++
	}
	return end
}

// adjustStart moves start back to just after a sentence ending or word
// break, scanning no further than MaxSectionLength+2*SentenceSearchLimit
// before end.
func (s *Splitter) adjustStart(text []rune, start, end int) int {
	bound := end - s.cfg.MaxSectionLength - 2*s.cfg.SentenceSearchLimit

	lastWord := -1
	for start > 0 && start > bound && !isSentenceEnding(text[start]) {
		if isWordBreak(text[start]) {
			lastWord = start
		}
		start--
	}
	if !isSentenceEnding(text[start]) && lastWord > 0 {
		start = lastWord
	}
	if start > 0 {
		start++
	}
	return start
}

// nextStart returns where the following macro-section begins. A section
// that opens a table well past its beginning without closing it hands that
// table whole to the next section.
func (s *Splitter) nextStart(pages []doctree.Page, section []rune, start, end int) int {
	overlap := s.cfg.SectionOverlap()
	open := lastIndex(section, "<table")
	if open > 2*s.cfg.SentenceSearchLimit && open > lastIndex(section, "</table") {
		s.log.Info("section ends with unclosed table, starting next section at the table",
			"page", findPage(pages, start), "offset", start, "table_start", open)
		return min(end-overlap, start+open)
	}
	return end - overlap
}

// refine emits text under pageNum, bisecting it until every piece fits the
// token budget. Pieces come out in document order. It reports false when
// iteration should stop.
func (s *Splitter) refine(pageNum int, text []rune, yield func(doctree.SplitPage, error) bool) bool {
	stack := [][]rune{text}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		str := string(cur)
		tokens, err := s.tok.Encode(str)
		if err != nil {
			yield(doctree.SplitPage{}, &EncodingError{PageNum: pageNum, Err: err})
			return false
		}
		if len(tokens) <= s.cfg.MaxTokensPerSection || len(cur) < 2 {
			if !yield(doctree.SplitPage{PageNum: pageNum, Text: str}, nil) {
				return false
			}
			continue
		}

		first, second := s.bisect(cur)
		stack = append(stack, second, first)
	}
	return true
}

// bisect splits text at the sentence ending nearest its middle, searching
// no closer to either end than a third of its length. Without one it cuts
// at the middle, letting the halves overlap by OverlapPercent.
func (s *Splitter) bisect(text []rune) (first, second []rune) {
	n := len(text)
	mid := n / 2
	boundary := n / 3

	split := -1
	for pos := 0; mid-pos > boundary; pos++ {
		if isSentenceEnding(text[mid-pos]) {
			split = mid - pos
			break
		}
		if isSentenceEnding(text[mid+pos]) {
			split = mid + pos
			break
		}
	}
	if split > 0 && split+1 < n {
		return text[:split+1], text[split+1:]
	}

	overlap := n * s.cfg.OverlapPercent / 100
	if mid+overlap >= n || mid-overlap <= 0 {
		overlap = 0
	}
	return text[:mid+overlap], text[mid-overlap:]
}

// findPage returns the number of the last page starting at or before offset.
func findPage(pages []doctree.Page, offset int) int {
	i := sort.Search(len(pages), func(i int) bool { return pages[i].Offset > offset })
	if i == 0 {
		return pages[0].PageNum
	}
	return pages[i-1].PageNum
}

func lastIndex(text []rune, sub string) int {
	needle := []rune(sub)
	for i := len(text) - len(needle); i >= 0; i-- {
		if slices.Equal(text[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func isBlank(text []rune) bool {
	for _, r := range text {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
