package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type recordedRequest struct {
	Path    string
	APIKey  string
	Actions []map[string]any
}

func newIndexServer(t *testing.T, respond func(actions []map[string]any) (int, any)) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Value []map[string]any `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		mu.Lock()
		reqs = append(reqs, recordedRequest{Path: r.URL.Path, APIKey: r.Header.Get("api-key"), Actions: body.Value})
		mu.Unlock()

		status, resp := respond(body.Value)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func allOK(actions []map[string]any) (int, any) {
	var results []indexResult
	for _, a := range actions {
		results = append(results, indexResult{Key: fmt.Sprint(a["id"]), Status: true, StatusCode: 200})
	}
	return http.StatusOK, map[string]any{"value": results}
}

func docs(n int) []Document {
	out := make([]Document, n)
	for i := range out {
		out[i] = Document{ID: fmt.Sprintf("doc-%d", i), Content: "text"}
	}
	return out
}

func TestClient_UploadBatches(t *testing.T) {
	srv, reqs := newIndexServer(t, allOK)
	c := NewClient(srv.URL, "secret", "documents", 2)

	n, err := c.Upload(context.Background(), docs(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5 indexed, got %d", n)
	}
	if len(*reqs) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(*reqs))
	}
	first := (*reqs)[0]
	if first.Path != "/indexes/documents/docs/index" || first.APIKey != "secret" {
		t.Errorf("unexpected request %s key=%q", first.Path, first.APIKey)
	}
	if first.Actions[0]["@search.action"] != "mergeOrUpload" || first.Actions[0]["id"] != "doc-0" {
		t.Errorf("unexpected action %v", first.Actions[0])
	}
	if _, ok := first.Actions[0]["storage_url"]; !ok {
		t.Error("expected document fields flattened into the action")
	}
}

func TestClient_Delete(t *testing.T) {
	srv, reqs := newIndexServer(t, func(actions []map[string]any) (int, any) {
		return http.StatusMultiStatus, map[string]any{"value": []indexResult{
			{Key: "a", Status: true, StatusCode: 200},
			{Key: "b", Status: false, StatusCode: 404, ErrorMessage: "not found"},
		}}
	})
	c := NewClient(srv.URL, "k", "documents", 0)
	if err := c.Delete(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := (*reqs)[0].Actions
	if got[1]["@search.action"] != "delete" || got[1]["id"] != "b" {
		t.Errorf("unexpected delete action %v", got[1])
	}
}

func TestClient_PartialFailure(t *testing.T) {
	srv, _ := newIndexServer(t, func(actions []map[string]any) (int, any) {
		return http.StatusMultiStatus, map[string]any{"value": []indexResult{
			{Key: "doc-0", Status: true, StatusCode: 201},
			{Key: "doc-1", Status: false, StatusCode: 400, ErrorMessage: "bad field"},
		}}
	})
	c := NewClient(srv.URL, "k", "documents", 10)
	n, err := c.Upload(context.Background(), docs(2))
	var pe *PartialError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PartialError, got %v", err)
	}
	if n != 1 || len(pe.Failed) != 1 || pe.Failed[0] != "doc-1" || pe.First != "bad field" {
		t.Errorf("unexpected partial result n=%d err=%+v", n, pe)
	}
}

func TestClient_RetryableStatus(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		srv, _ := newIndexServer(t, func([]map[string]any) (int, any) {
			return status, map[string]string{"error": "busy"}
		})
		c := NewClient(srv.URL, "k", "documents", 10)
		_, err := c.Upload(context.Background(), docs(1))
		var re *RetryableError
		if !errors.As(err, &re) || re.StatusCode != status {
			t.Errorf("status %d: expected RetryableError, got %v", status, err)
		}
	}
}

func TestClient_ClientErrorNotRetryable(t *testing.T) {
	srv, _ := newIndexServer(t, func([]map[string]any) (int, any) {
		return http.StatusBadRequest, map[string]string{"error": "bad"}
	})
	c := NewClient(srv.URL, "k", "documents", 10)
	_, err := c.Upload(context.Background(), docs(1))
	var re *RetryableError
	if err == nil || errors.As(err, &re) {
		t.Errorf("expected non-retryable error, got %v", err)
	}
}
