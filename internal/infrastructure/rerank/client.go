// Package rerank talks to an optional cross-encoder scoring service. The
// service being down or unconfigured downgrades reranking to a no-op.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client

	probeMu   sync.Mutex
	probed    bool
	available bool
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Available probes the service health endpoint once per process and caches
// the verdict, mirroring a lazily loaded local model.
func (c *Client) Available(ctx context.Context) bool {
	if c == nil || c.baseURL == "" {
		return false
	}

	c.probeMu.Lock()
	defer c.probeMu.Unlock()
	if c.probed {
		return c.available
	}
	c.probed = true

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	c.available = resp.StatusCode < 300
	return c.available
}

func (c *Client) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload := map[string]any{"query": query, "texts": texts}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			return nil, fmt.Errorf("rerank status: %s", resp.Status)
		}
		return nil, fmt.Errorf("rerank status: %s: %s", resp.Status, msg)
	}

	var out struct {
		Scores []float64 `json:"scores"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}
	if len(out.Scores) != len(texts) {
		return nil, fmt.Errorf("rerank score count mismatch: got %d for %d texts", len(out.Scores), len(texts))
	}
	return out.Scores, nil
}
