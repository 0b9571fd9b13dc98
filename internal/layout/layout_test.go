package layout

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const sampleResult = `{
	"content": "Intro text\nA B\n1 2",
	"pages": [{"pageNumber": 1, "spans": [{"offset": 0, "length": 18}]}],
	"tables": [{
		"rowCount": 2,
		"columnCount": 2,
		"cells": [
			{"kind": "columnHeader", "rowIndex": 0, "columnIndex": 0, "content": "A"},
			{"kind": "columnHeader", "rowIndex": 0, "columnIndex": 1, "content": "B"},
			{"rowIndex": 1, "columnIndex": 0, "content": "1"},
			{"rowIndex": 1, "columnIndex": 1, "content": "2"}
		],
		"spans": [{"offset": 11, "length": 7}],
		"boundingRegions": [{"pageNumber": 1}]
	}]
}`

func TestDecode_BareResult(t *testing.T) {
	res, err := Decode(strings.NewReader(sampleResult))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Pages) != 1 || len(res.Tables) != 1 {
		t.Fatalf("expected 1 page and 1 table, got %d and %d", len(res.Pages), len(res.Tables))
	}
	tbl := res.Tables[0]
	if tbl.RowCount != 2 || len(tbl.Cells) != 4 {
		t.Errorf("unexpected table geometry: rows=%d cells=%d", tbl.RowCount, len(tbl.Cells))
	}
	if !tbl.Cells[0].IsHeader() || tbl.Cells[2].IsHeader() {
		t.Errorf("header detection wrong: %+v", tbl.Cells)
	}
	if tbl.BoundingRegions[0].PageNumber != 1 {
		t.Errorf("expected bounding region page 1, got %d", tbl.BoundingRegions[0].PageNumber)
	}
}

func TestDecode_Envelope(t *testing.T) {
	res, err := Decode(strings.NewReader(`{"status":"succeeded","analyzeResult":` + sampleResult + `}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Content != "Intro text\nA B\n1 2" {
		t.Errorf("unexpected content %q", res.Content)
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := Decode(strings.NewReader("{not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestClient_AnalyzePollsUntilSucceeded(t *testing.T) {
	var polls atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodPost:
			if !strings.Contains(r.URL.Path, "prebuilt-layout:analyze") {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			if r.URL.Query().Get("stringIndexType") != "unicodeCodePoint" {
				t.Errorf("expected code point indices, got %q", r.URL.RawQuery)
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != "%PDF" {
				t.Errorf("unexpected body %q", body)
			}
			w.Header().Set("Operation-Location", srv.URL+"/operations/1")
			w.WriteHeader(http.StatusAccepted)
		case r.URL.Path == "/operations/1":
			if polls.Add(1) < 2 {
				w.Write([]byte(`{"status":"running"}`))
				return
			}
			w.Write([]byte(`{"status":"succeeded","analyzeResult":` + sampleResult + `}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "", time.Millisecond)
	defer c.Close()
	rec := &countingRecorder{}
	c.Stats = rec

	res, err := c.Analyze(context.Background(), strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Tables) != 1 {
		t.Errorf("expected 1 table, got %d", len(res.Tables))
	}
	if polls.Load() != 2 {
		t.Errorf("expected 2 polls, got %d", polls.Load())
	}
	if rec.n != 1 {
		t.Errorf("expected 1 recorded latency, got %d", rec.n)
	}
}

func TestClient_AnalyzeFailedOperation(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Operation-Location", srv.URL+"/operations/2")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.Write([]byte(`{"status":"failed","error":{"code":"InvalidContent","message":"corrupt"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "prebuilt-layout", time.Millisecond)
	_, err := c.Analyze(context.Background(), strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "InvalidContent") {
		t.Fatalf("expected failure with error code, got %v", err)
	}
}

func TestClient_ThrottledIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "", time.Millisecond)
	_, err := c.Analyze(context.Background(), strings.NewReader("x"))
	var retryErr *RetryableError
	if !errors.As(err, &retryErr) {
		t.Fatalf("expected RetryableError, got %v", err)
	}
	if retryErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", retryErr.StatusCode)
	}
}

func TestClient_ClientErrorNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "", time.Millisecond)
	_, err := c.Analyze(context.Background(), strings.NewReader("x"))
	var retryErr *RetryableError
	if err == nil || errors.As(err, &retryErr) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

type countingRecorder struct{ n int }

func (r *countingRecorder) Record(int64) { r.n++ }
