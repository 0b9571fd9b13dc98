package blobstore

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("blob not found")

// Store holds source documents and processed output.
type Store interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	URL(key string) string
}

// FilterSupported keeps keys whose extension passes supported, skipping
// anything already under a processed/ directory.
func FilterSupported(keys []string, supported func(name string) bool) []string {
	var out []string
	for _, k := range keys {
		if strings.HasSuffix(k, "/") || isProcessed(k) {
			continue
		}
		if supported(path.Base(k)) {
			out = append(out, k)
		}
	}
	return out
}

func isProcessed(key string) bool {
	return strings.HasPrefix(key, "processed/") || strings.Contains(key, "/processed/")
}
