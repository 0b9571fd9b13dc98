package chunker

import (
	"errors"
	"fmt"
)

// ErrPageOffsets is returned for pages whose offsets disagree with their texts.
var ErrPageOffsets = errors.New("inconsistent page offsets")

// EncodingError reports that the tokenizer could not encode a section.
type EncodingError struct {
	PageNum int
	Err     error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode section on page %d: %v", e.PageNum, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
