package embedding

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// DefaultDimensions matches the vector size of the schema collection.
const DefaultDimensions = 384

// domainKeywords maps domain terms to fixed scalar weights. Order
// matters: a keyword's position determines which vector slot it writes.
var domainKeywords = []struct {
	word   string
	weight float32
}{
	{"user", 0.1},
	{"users", 0.1},
	{"order", 0.2},
	{"orders", 0.2},
	{"count", 0.3},
	{"sales", 0.4},
	{"employee", 0.5},
	{"employees", 0.5},
	{"customer", 0.6},
	{"table", 0.7},
	{"column", 0.8},
	{"schema", 0.9},
}

// HeuristicProvider produces vectors from keyword weights, a content
// hash, and a per-character blend. It is a stand-in for a real
// embedding model: cheap, deterministic, and weak. The retriever
// compensates with a near-zero similarity floor.
type HeuristicProvider struct {
	dimensions int
}

// NewHeuristicProvider creates a heuristic provider with the given
// dimensionality (DefaultDimensions when non-positive).
func NewHeuristicProvider(dimensions int) *HeuristicProvider {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}

	return &HeuristicProvider{dimensions: dimensions}
}

// Embed builds the vector in three overlaid passes over the same slots:
// keyword weights, MD5 byte pairs, then a character-average blend.
func (p *HeuristicProvider) Embed(text string) []float32 {
	vector := make([]float32, p.dimensions)
	lower := strings.ToLower(text)

	// Pass 1: keyword weights at position-in-dictionary mod dimension.
	for i, kw := range domainKeywords {
		if strings.Contains(lower, kw.word) {
			vector[i%p.dimensions] = kw.weight
		}
	}

	// Pass 2: MD5 hex digit pairs normalized to [0,1], written across
	// the front of the vector.
	digest := md5.Sum([]byte(text))
	hexDigest := hex.EncodeToString(digest[:])

	for i := 0; i+1 < len(hexDigest) && i+1 < p.dimensions; i += 2 {
		b, err := hex.DecodeString(hexDigest[i : i+2])
		if err != nil {
			continue
		}

		vector[i] = float32(b[0]) / 255.0
	}

	// Pass 3: blend each slot with the corresponding character code.
	for i, ch := range lower {
		if i >= p.dimensions {
			break
		}

		vector[i] = (vector[i] + float32(ch)/128.0) / 2
	}

	return vector
}

// Dimensions returns the vector dimensionality.
func (p *HeuristicProvider) Dimensions() int {
	return p.dimensions
}

// Name returns the provider name.
func (p *HeuristicProvider) Name() string {
	return "heuristic"
}
