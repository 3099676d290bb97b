package tokenizer

import (
	"fmt"

	"github.com/born-ml/gtn/internal/graph"
	"github.com/pkoukk/tiktoken-go"
)

// tiktokenVocab holds the ordinary vocabulary size and the <|endoftext|> id
// of each supported encoding.
var tiktokenVocab = map[string]struct {
	size      int
	endOfText graph.Label
}{
	"cl100k_base": {100256, 100257},
	"p50k_base":   {50257, 50256},
	"r50k_base":   {50257, 50256},
}

// TikToken encodes text with a tiktoken BPE encoding. Every token id becomes
// one label, so word-piece targets can be built with criterion.ChainGraph or
// criterion.CTCTargetGraph.
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
	base     string
}

// NewTikToken loads a tiktoken encoding by name, e.g. "cl100k_base".
func NewTikToken(encodingName string) (*TikToken, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}
	return &TikToken{encoding: encoding, name: encodingName, base: encodingName}, nil
}

// NewTikTokenForModel loads the encoding a model uses, e.g. "gpt-4".
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	encoding, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken for model %q: %w", modelName, err)
	}
	base := ""
	if enc, ok := tiktoken.MODEL_TO_ENCODING[modelName]; ok {
		base = enc
	}
	return &TikToken{encoding: encoding, name: modelName, base: base}, nil
}

// Encode converts text to token labels. Special tokens are encoded as plain
// text.
func (t *TikToken) Encode(text string) ([]graph.Label, error) {
	ids := t.encoding.Encode(text, nil, nil)
	out := make([]graph.Label, len(ids))
	for i, id := range ids {
		out[i] = graph.Label(id)
	}
	return out, nil
}

// Decode converts token labels back to text.
func (t *TikToken) Decode(labels []graph.Label) (string, error) {
	ids := make([]int, len(labels))
	for i, l := range labels {
		if l < 0 {
			return "", graph.NewLabelError("tiktoken", "label %d at position %d is not a token", int(l), i)
		}
		ids[i] = int(l)
	}
	return t.encoding.Decode(ids), nil
}

// VocabSize returns the number of ordinary tokens of the encoding.
func (t *TikToken) VocabSize() int {
	if v, ok := tiktokenVocab[t.base]; ok {
		return v.size
	}
	return 100000
}

// EndOfText returns the <|endoftext|> label, or -1 for unknown encodings.
func (t *TikToken) EndOfText() graph.Label {
	if v, ok := tiktokenVocab[t.base]; ok {
		return v.endOfText
	}
	return -1
}

// Name returns the encoding or model name the tokenizer was loaded with.
func (t *TikToken) Name() string {
	return t.name
}
