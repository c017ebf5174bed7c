package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testAPIClient(url, token string) *apiClient {
	return newAPIClient(&Config{ServerBaseURL: url, APIToken: token})
}

func TestRequestSuccessReturnsBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != apiRootPath+"/meta" {
			t.Errorf("path = %q, want %q", r.URL.Path, apiRootPath+"/meta")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"a":1}`))
	}))
	defer upstream.Close()

	raw, err := testAPIClient(upstream.URL, "").get(context.Background(), apiRootPath+"/meta")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	result := textResult(raw)
	if result.IsError {
		t.Fatalf("expected success envelope")
	}
	text, ok := firstTextContent(result)
	if !ok {
		t.Fatalf("expected text content in envelope")
	}
	want := "{\n  \"a\": 1\n}"
	if text != want {
		t.Fatalf("envelope text = %q, want pretty-printed %q", text, want)
	}
}

func TestRequestNonSuccessStatusBecomesUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer upstream.Close()

	_, err := testAPIClient(upstream.URL, "").post(context.Background(), apiRootPath+"/load", map[string]any{})
	if err == nil {
		t.Fatalf("expected error for 400 response")
	}

	var ue *upstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error type = %T, want *upstreamError", err)
	}
	if ue.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", ue.Status)
	}
	if !strings.Contains(ue.Body, "bad request") {
		t.Fatalf("body = %q, want raw body text preserved", ue.Body)
	}

	envelope := errorResult(err)
	if !envelope.IsError {
		t.Fatalf("expected error envelope")
	}
	text, _ := firstTextContent(envelope)
	if !strings.HasPrefix(text, "Error: ") {
		t.Fatalf("error text = %q, want Error: prefix", text)
	}
	if !strings.Contains(text, "400") || !strings.Contains(text, "bad request") {
		t.Fatalf("error text = %q, want status code and body", text)
	}
}

func TestRequestSetsHeaders(t *testing.T) {
	var gotAuth, gotContentType, gotRequestID string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-Id")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	if _, err := testAPIClient(upstream.URL, "secret").get(context.Background(), apiRootPath+"/meta"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotRequestID == "" {
		t.Fatalf("expected X-Request-Id to be set")
	}
}

func TestRequestOmitsAuthHeaderWithoutToken(t *testing.T) {
	var sawAuth bool
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	if _, err := testAPIClient(upstream.URL, "").get(context.Background(), apiRootPath+"/meta"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if sawAuth {
		t.Fatalf("expected no Authorization header when token is empty")
	}
}
