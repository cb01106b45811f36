package embedding

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// HTTPEmbedder is the production Embedder: a resty-backed HTTP client
// hitting a configurable embedding provider's POST /embeddings endpoint.
// Grounded on the kirbs-btw-spotify-playlist-dataset example's resty usage
// idiom (client.R()...Post(url), unmarshal the JSON body).
type HTTPEmbedder struct {
	client  *resty.Client
	baseURL string
}

// NewHTTPEmbedder builds an HTTPEmbedder pointed at baseURL (e.g.
// "http://localhost:8081"). The client sets no timeout of its own; a
// request is bounded only by the deadline of the context passed to Embed
// or Ping.
func NewHTTPEmbedder(baseURL string) *HTTPEmbedder {
	return &HTTPEmbedder{
		client:  resty.New(),
		baseURL: baseURL,
	}
}

type embedRequest struct {
	Input string `json:"input"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed posts text to the provider's /embeddings endpoint and returns the
// resulting vector. Errors here are always wrapped by the caller
// (embedding.Embed) into EmbeddingUnavailable.
func (h *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var result embedResponse

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(embedRequest{Input: text}).
		SetResult(&result).
		Post(h.baseURL + "/embeddings")
	if err != nil {
		return nil, fmt.Errorf("embedding provider request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("embedding provider returned status %d", resp.StatusCode())
	}

	return result.Embedding, nil
}

// Ping performs a lightweight reachability probe against the provider's
// /health path, satisfying pkg/health.EmbeddingProvider. It never calls
// /embeddings: embed("") is a local zero-vector short circuit and would
// tell us nothing about the provider's reachability.
func (h *HTTPEmbedder) Ping(ctx context.Context) error {
	resp, err := h.client.R().
		SetContext(ctx).
		Get(h.baseURL + "/health")
	if err != nil {
		return fmt.Errorf("embedding provider unreachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("embedding provider health check returned status %d", resp.StatusCode())
	}
	return nil
}
