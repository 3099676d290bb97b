package tokenizer

import (
	"github.com/born-ml/gtn/internal/graph"
)

// Tokenizer maps text to non-negative graph labels and back.
type Tokenizer interface {
	// Encode converts text to labels.
	Encode(text string) ([]graph.Label, error)

	// Decode converts labels back to text.
	Decode(labels []graph.Label) (string, error)

	// VocabSize returns the number of distinct labels Encode can produce.
	VocabSize() int
}
