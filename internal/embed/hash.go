package embed

import (
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultDimensions is the embedding dimension used when none is configured.
const DefaultDimensions = 768

// Vectorizer converts text into a fixed-dimension vector.
type Vectorizer interface {
	// Vectorize returns the vector for the given text. Identical input
	// always yields a bit-identical vector.
	Vectorize(text string) []float32

	// Dimensions returns the vector dimension.
	Dimensions() int
}

// HashVectorizer generates embeddings by hashing token frequencies into a
// fixed number of dimensions. It is a deterministic placeholder, not a
// semantic model: its contract is determinism, fixed dimensionality, and
// cosine comparability, and any replacement must preserve those.
type HashVectorizer struct {
	dimensions int
}

// NewHashVectorizer creates a hash vectorizer with the given dimension.
// Non-positive dimensions fall back to DefaultDimensions.
func NewHashVectorizer(dimensions int) *HashVectorizer {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &HashVectorizer{dimensions: dimensions}
}

// Vectorize tokenizes by whitespace, lowercases, strips non-alphanumeric
// runes per token, counts frequencies, accumulates each count into the
// dimension selected by a stable hash of the token, and L2-normalizes the
// result. An all-zero vector (no usable tokens) is left as the zero vector.
func (v *HashVectorizer) Vectorize(text string) []float32 {
	counts := make(map[string]int)
	for _, word := range strings.Fields(text) {
		token := normalizeToken(word)
		if token != "" {
			counts[token]++
		}
	}

	vector := make([]float32, v.dimensions)
	for token, count := range counts {
		vector[hashToIndex(token, v.dimensions)] += float32(count)
	}

	return normalizeVector(vector)
}

// Dimensions returns the embedding dimension.
func (v *HashVectorizer) Dimensions() int { return v.dimensions }

// normalizeToken lowercases a token and strips non-alphanumeric runes.
func normalizeToken(word string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(word) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// hashToIndex uses FNV-64a to map a token to a dimension index.
func hashToIndex(s string, size int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}
