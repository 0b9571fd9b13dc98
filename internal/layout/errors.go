package layout

import "fmt"

// MalformedTableError reports a table missing the geometry needed to render it.
type MalformedTableError struct {
	Table  int // Index of the table in Result.Tables, -1 if unknown
	Reason string
}

func (e *MalformedTableError) Error() string {
	if e.Table < 0 {
		return fmt.Sprintf("malformed table: %s", e.Reason)
	}
	return fmt.Sprintf("malformed table %d: %s", e.Table, e.Reason)
}

// OutOfRangeSpanError reports a page span that reaches past the raw content.
type OutOfRangeSpanError struct {
	Page          int // 0-based page index
	Offset        int
	Length        int
	ContentLength int
}

func (e *OutOfRangeSpanError) Error() string {
	return fmt.Sprintf("page %d: span [%d, %d) outside content of length %d",
		e.Page, e.Offset, e.Offset+e.Length, e.ContentLength)
}

// RetryableError indicates a transient failure from the analysis service.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
