package llm

import "context"

// PlaceholderEmbedder produces fixed, content-independent vectors.
// Ledger records are a claim log, not a semantic index, so this is the default.
type PlaceholderEmbedder struct {
	dim int
}

// NewPlaceholderEmbedder creates a placeholder embedder of the given dimension
func NewPlaceholderEmbedder(dim int) *PlaceholderEmbedder {
	if dim <= 0 {
		dim = 1536
	}
	return &PlaceholderEmbedder{dim: dim}
}

// Name returns the provider name
func (p *PlaceholderEmbedder) Name() string {
	return "placeholder"
}

// Dimension returns the vector length
func (p *PlaceholderEmbedder) Dimension() int {
	return p.dim
}

// Embed returns the vector (i%10)/10 for every text
func (p *PlaceholderEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vector := make([]float32, p.dim)
	for i := range vector {
		vector[i] = float32(i%10) / 10
	}

	vectors := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, p.dim)
		copy(v, vector)
		vectors[i] = v
	}
	return vectors, nil
}
