package index

import "fmt"

// RetryableError is returned for search service responses worth retrying.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("search service error (status %d): %s", e.StatusCode, e.Message)
}

// PartialError reports documents the service rejected in an otherwise
// accepted batch.
type PartialError struct {
	Failed []string // Keys of rejected documents
	First  string   // First rejection message
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%d documents rejected: %s", len(e.Failed), e.First)
}
