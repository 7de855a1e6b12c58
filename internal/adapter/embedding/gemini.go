package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"orgpilot/internal/domain"
)

const (
	defaultModel      = "text-embedding-004"
	defaultDimensions = 768
	defaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"

	maxResponseBody = 10 * 1024 * 1024
)

var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// Option configures the Gemini embedding provider.
type Option func(*GeminiProvider)

// WithModel sets the embedding model.
func WithModel(model string) Option {
	return func(p *GeminiProvider) { p.model = model }
}

// WithDimensions sets the embedding dimensions.
func WithDimensions(dims int) Option {
	return func(p *GeminiProvider) { p.dims = dims }
}

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) Option {
	return func(p *GeminiProvider) { p.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *GeminiProvider) { p.client = client }
}

// GeminiProvider implements domain.EmbeddingProvider against the Gemini
// batchEmbedContents endpoint.
type GeminiProvider struct {
	apiKey  string
	model   string
	dims    int
	baseURL string
	client  *http.Client
}

// NewGeminiProvider creates a Gemini embedding provider.
func NewGeminiProvider(apiKey string, opts ...Option) *GeminiProvider {
	p := &GeminiProvider{
		apiKey:  apiKey,
		model:   defaultModel,
		dims:    defaultDimensions,
		baseURL: defaultBaseURL,
		client:  defaultHTTPClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type batchEmbedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type embedContentRequest struct {
	Model   string       `json:"model"`
	Content embedContent `json:"content"`
}

type embedContent struct {
	Parts []embedTextPart `json:"parts"`
}

type embedTextPart struct {
	Text string `json:"text"`
}

type batchEmbedResponse struct {
	Embeddings []embedValues `json:"embeddings"`
}

type embedValues struct {
	Values []float32 `json:"values"`
}

// Embed implements domain.EmbeddingProvider.
func (p *GeminiProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	requests := make([]embedContentRequest, len(texts))
	for i, text := range texts {
		requests[i] = embedContentRequest{
			Model: "models/" + p.model,
			Content: embedContent{
				Parts: []embedTextPart{{Text: text}},
			},
		}
	}

	body, err := json.Marshal(batchEmbedRequest{Requests: requests})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", domain.ErrEmbeddingFailed, err)
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents", p.baseURL, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrEmbeddingFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", p.apiKey)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: http request: %v", domain.ErrEmbeddingFailed, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrEmbeddingFailed, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: API error %d: %s", domain.ErrEmbeddingFailed, httpResp.StatusCode, string(respBody))
	}

	var parsed batchEmbedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response: %v", domain.ErrEmbeddingFailed, err)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", domain.ErrEmbeddingFailed, len(parsed.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(parsed.Embeddings))
	for i, e := range parsed.Embeddings {
		vecs[i] = e.Values
	}
	return vecs, nil
}

// Dimensions implements domain.EmbeddingProvider.
func (p *GeminiProvider) Dimensions() int { return p.dims }

// Name implements domain.EmbeddingProvider.
func (p *GeminiProvider) Name() string { return "gemini" }

var _ domain.EmbeddingProvider = (*GeminiProvider)(nil)
