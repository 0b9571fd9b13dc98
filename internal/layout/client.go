package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiVersion = "2024-11-30"

// Recorder receives call latencies in milliseconds.
type Recorder interface {
	Record(durationMs int64)
}

// Client calls the layout analysis service.
type Client struct {
	endpoint     string
	apiKey       string
	model        string
	pollInterval time.Duration
	httpClient   *http.Client

	// Stats, when set, records the duration of each completed analysis.
	Stats Recorder
}

func NewClient(endpoint, apiKey, model string, pollInterval time.Duration) *Client {
	if model == "" {
		model = "prebuilt-layout"
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Client{
		endpoint:     strings.TrimRight(endpoint, "/"),
		apiKey:       apiKey,
		model:        model,
		pollInterval: pollInterval,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type operationResponse struct {
	Status        string  `json:"status"`
	AnalyzeResult *Result `json:"analyzeResult"`
	Error         *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze submits a document and waits for its layout analysis.
func (c *Client) Analyze(ctx context.Context, r io.Reader) (*Result, error) {
	start := time.Now()

	q := url.Values{}
	q.Set("api-version", apiVersion)
	q.Set("stringIndexType", "unicodeCodePoint")
	u := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?%s", c.endpoint, url.PathEscape(c.model), q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("layout api: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusAccepted); err != nil {
		return nil, err
	}
	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return nil, fmt.Errorf("layout api: missing Operation-Location header")
	}

	res, err := c.poll(ctx, opURL)
	if err != nil {
		return nil, err
	}
	if c.Stats != nil {
		c.Stats.Record(time.Since(start).Milliseconds())
	}
	return res, nil
}

func (c *Client) poll(ctx context.Context, opURL string) (*Result, error) {
	for {
		op, err := c.getOperation(ctx, opURL)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(op.Status) {
		case "succeeded":
			if op.AnalyzeResult == nil {
				return nil, fmt.Errorf("layout api: succeeded without result")
			}
			return op.AnalyzeResult, nil
		case "failed", "canceled":
			if op.Error != nil {
				return nil, fmt.Errorf("layout analysis %s: %s: %s", op.Status, op.Error.Code, op.Error.Message)
			}
			return nil, fmt.Errorf("layout analysis %s", op.Status)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) getOperation(ctx context.Context, opURL string) (*operationResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("poll layout operation: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	var op operationResponse
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("decode operation: %w", err)
	}
	return &op, nil
}

func checkStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	return fmt.Errorf("layout api status %d: %s", resp.StatusCode, string(body))
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
