package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"orgpilot/internal/domain"
)

func TestGeminiEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "batchEmbedContents") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-Goog-Api-Key") != "test-key" {
			t.Errorf("api key header = %q", r.Header.Get("X-Goog-Api-Key"))
		}
		if r.URL.Query().Get("key") != "" {
			t.Error("api key must not appear in the URL")
		}

		var req batchEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Requests) != 2 {
			t.Errorf("requests len = %d, want 2", len(req.Requests))
		}
		if req.Requests[0].Model != "models/text-embedding-004" {
			t.Errorf("model = %q", req.Requests[0].Model)
		}

		json.NewEncoder(w).Encode(batchEmbedResponse{
			Embeddings: []embedValues{
				{Values: []float32{0.1, 0.2}},
				{Values: []float32{0.3, 0.4}},
			},
		})
	}))
	defer server.Close()

	p := NewGeminiProvider("test-key", WithBaseURL(server.URL))
	vecs, err := p.Embed(context.Background(), []string{"vendas", "marketing"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("vecs len = %d, want 2", len(vecs))
	}
	if vecs[0][0] != 0.1 || vecs[1][0] != 0.3 {
		t.Errorf("vecs = %v", vecs)
	}
}

func TestGeminiEmbedHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer server.Close()

	p := NewGeminiProvider("key", WithBaseURL(server.URL))
	_, err := p.Embed(context.Background(), []string{"hello"})
	if !errors.Is(err, domain.ErrEmbeddingFailed) {
		t.Errorf("got %v, want ErrEmbeddingFailed", err)
	}
}

func TestGeminiEmbedCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(batchEmbedResponse{
			Embeddings: []embedValues{{Values: []float32{0.1}}},
		})
	}))
	defer server.Close()

	p := NewGeminiProvider("key", WithBaseURL(server.URL))
	_, err := p.Embed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrEmbeddingFailed) {
		t.Errorf("got %v, want ErrEmbeddingFailed", err)
	}
}

func TestGeminiEmbedEmptyInput(t *testing.T) {
	p := NewGeminiProvider("key")
	vecs, err := p.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if vecs != nil {
		t.Errorf("expected nil for empty input, got %v", vecs)
	}
}

func TestGeminiOptions(t *testing.T) {
	p := NewGeminiProvider("key",
		WithModel("custom-model"),
		WithDimensions(256),
		WithBaseURL("http://custom.api"),
		WithHTTPClient(&http.Client{}),
	)
	if p.model != "custom-model" {
		t.Errorf("model = %q", p.model)
	}
	if p.Dimensions() != 256 {
		t.Errorf("Dimensions() = %d", p.Dimensions())
	}
	if p.Name() != "gemini" {
		t.Errorf("Name() = %q", p.Name())
	}
}
