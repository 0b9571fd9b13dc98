package chunker

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncodingModel is the embedding model whose tokenizer bounds sections.
const DefaultEncodingModel = "text-embedding-3-large"

// ErrInvalidUTF8 is returned by tokenizers for text that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("invalid utf-8")

// Tokenizer encodes text into token ids for the target embedding model.
type Tokenizer interface {
	Encode(text string) ([]int, error)
}

// TiktokenTokenizer uses the BPE ranks of an OpenAI embedding model.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

var (
	tiktokenMu    sync.Mutex
	tiktokenCache = map[string]*tiktoken.Tiktoken{}
)

// NewTiktokenTokenizer loads the encoding for model. Unknown models fall
// back to cl100k_base. Loading may download the rank file on first use.
func NewTiktokenTokenizer(model string) (*TiktokenTokenizer, error) {
	if model == "" {
		model = DefaultEncodingModel
	}
	tiktokenMu.Lock()
	defer tiktokenMu.Unlock()

	if enc, ok := tiktokenCache[model]; ok {
		return &TiktokenTokenizer{enc: enc}, nil
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("load encoding for %s: %w", model, err)
		}
	}
	tiktokenCache[model] = enc
	return &TiktokenTokenizer{enc: enc}, nil
}

func (t *TiktokenTokenizer) Encode(text string) ([]int, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidUTF8
	}
	return t.enc.Encode(text, nil, nil), nil
}

// EstimateTokenizer approximates token counts without a vocabulary, at
// roughly 1.33 tokens per word. Useful offline and in tests.
type EstimateTokenizer struct{}

func (EstimateTokenizer) Encode(text string) ([]int, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidUTF8
	}
	return make([]int, EstimateTokens(text)), nil
}

// EstimateTokens gives a rough token count from the word count.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
