// Package offline produces deterministic pseudo-embeddings so retrieval
// stays testable without network access or credentials. Identical
// (model, text) pairs yield bit-identical vectors across process restarts.
package offline

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/rand"
	"strings"
	"sync"
)

const placeholder = "[empty]"

type Provider struct {
	model string
	dim   int

	// Append-only: entries are immutable once written, so a race to compute
	// the same key twice is tolerated instead of locked around the compute.
	mu    sync.RWMutex
	cache map[string][]float32
}

func New(model string, dim int) *Provider {
	if dim <= 0 {
		dim = 384
	}
	return &Provider{
		model: model,
		dim:   dim,
		cache: make(map[string][]float32),
	}
}

func (p *Provider) Dim() int { return p.dim }

func (p *Provider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = p.vectorFor(text)
	}
	return out, nil
}

func (p *Provider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *Provider) vectorFor(text string) []float32 {
	if strings.TrimSpace(text) == "" {
		text = placeholder
	}
	key := p.model + "\x00" + text

	p.mu.RLock()
	cached, ok := p.cache[key]
	p.mu.RUnlock()
	if ok {
		return cached
	}

	vec := generate(key, p.dim)

	p.mu.Lock()
	p.cache[key] = vec
	p.mu.Unlock()
	return vec
}

// generate hashes the key, seeds a deterministic value generator and
// L2-normalizes the result.
func generate(key string, dim int) []float32 {
	sum := sha256.Sum256([]byte(key))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	rng := rand.New(rand.NewSource(seed))

	values := make([]float64, dim)
	var norm float64
	for i := range values {
		v := rng.NormFloat64()
		values[i] = v
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}

	vec := make([]float32, dim)
	for i, v := range values {
		vec[i] = float32(v / norm)
	}
	return vec
}
