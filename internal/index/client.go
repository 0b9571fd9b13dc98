package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const apiVersion = "2024-07-01"

// DefaultBatchSize is the most documents sent in one index request.
const DefaultBatchSize = 1000

// Client talks to a search index's document API.
type Client struct {
	endpoint   string
	apiKey     string
	index      string
	batchSize  int
	httpClient *http.Client
}

func NewClient(endpoint, apiKey, index string, batchSize int) *Client {
	if batchSize <= 0 || batchSize > DefaultBatchSize {
		batchSize = DefaultBatchSize
	}
	return &Client{
		endpoint:  endpoint,
		apiKey:    apiKey,
		index:     index,
		batchSize: batchSize,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type uploadAction struct {
	Action string `json:"@search.action"`
	Document
}

type deleteAction struct {
	Action string `json:"@search.action"`
	ID     string `json:"id"`
}

type indexResult struct {
	Key          string `json:"key"`
	Status       bool   `json:"status"`
	ErrorMessage string `json:"errorMessage"`
	StatusCode   int    `json:"statusCode"`
}

// Upload merges docs into the index in batches and returns how many were
// accepted. It stops at the first failed batch.
func (c *Client) Upload(ctx context.Context, docs []Document) (int, error) {
	indexed := 0
	for start := 0; start < len(docs); start += c.batchSize {
		end := min(start+c.batchSize, len(docs))
		actions := make([]uploadAction, 0, end-start)
		for _, d := range docs[start:end] {
			actions = append(actions, uploadAction{Action: "mergeOrUpload", Document: d})
		}
		n, err := c.send(ctx, actions)
		indexed += n
		if err != nil {
			return indexed, fmt.Errorf("upload batch %d-%d: %w", start, end, err)
		}
	}
	return indexed, nil
}

// Delete removes documents by id. Missing ids are not an error.
func (c *Client) Delete(ctx context.Context, ids []string) error {
	for start := 0; start < len(ids); start += c.batchSize {
		end := min(start+c.batchSize, len(ids))
		actions := make([]deleteAction, 0, end-start)
		for _, id := range ids[start:end] {
			actions = append(actions, deleteAction{Action: "delete", ID: id})
		}
		if _, err := c.send(ctx, actions); err != nil {
			return fmt.Errorf("delete batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, actions any) (int, error) {
	body, err := json.Marshal(map[string]any{"value": actions})
	if err != nil {
		return 0, fmt.Errorf("marshal actions: %w", err)
	}
	u := fmt.Sprintf("%s/indexes/%s/docs/index?api-version=%s", c.endpoint, url.PathEscape(c.index), apiVersion)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("index documents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusMultiStatus {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("index documents: status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Value []indexResult `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decode index response: %w", err)
	}

	var partial PartialError
	ok := 0
	for _, r := range result.Value {
		// Deleting an absent document reports 404, which is fine.
		if r.Status || r.StatusCode == http.StatusNotFound {
			ok++
			continue
		}
		if partial.First == "" {
			partial.First = r.ErrorMessage
		}
		partial.Failed = append(partial.Failed, r.Key)
	}
	if len(partial.Failed) > 0 {
		return ok, &partial
	}
	return ok, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
