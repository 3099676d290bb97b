// Package tokenizer turns text into graph label sequences.
//
// This package wraps the internal tokenizer implementations and provides
// a clean public API for building target graphs from text.
//
// Supported tokenizers:
//   - CharTokenizer: character symbol tables (wav2vec2 vocab.json,
//     HuggingFace tokenizer.json)
//   - TikToken: OpenAI BPE encodings
//
// Example usage:
//
//	import "github.com/born-ml/gtn/tokenizer"
//
//	tok, err := tokenizer.LoadVocab("vocab.json", tokenizer.WithWordDelimiter("|"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	target, err := tok.Encode("hello world")
//	if err != nil {
//	    log.Fatal(err)
//	}
package tokenizer

import (
	"github.com/born-ml/gtn/internal/tokenizer"
)

// Tokenizer maps text to graph labels and back.
type Tokenizer = tokenizer.Tokenizer

// CharTokenizer encodes text one character at a time.
type CharTokenizer = tokenizer.CharTokenizer

// CharOption configures a CharTokenizer.
type CharOption = tokenizer.CharOption

// TikToken encodes text with a tiktoken BPE encoding.
type TikToken = tokenizer.TikToken

// WithWordDelimiter encodes spaces as symbol.
func WithWordDelimiter(symbol string) CharOption {
	return tokenizer.WithWordDelimiter(symbol)
}

// NewCharTokenizer builds a tokenizer from a symbol -> label table.
func NewCharTokenizer(vocab map[string]int, opts ...CharOption) (*CharTokenizer, error) {
	return tokenizer.NewCharTokenizer(vocab, opts...)
}

// NewCharTokenizerFromSymbols numbers symbols in order.
func NewCharTokenizerFromSymbols(symbols []string, opts ...CharOption) (*CharTokenizer, error) {
	return tokenizer.NewCharTokenizerFromSymbols(symbols, opts...)
}

// LoadVocab builds a CharTokenizer from a vocab.json or tokenizer.json file,
// or a directory holding one.
func LoadVocab(path string, opts ...CharOption) (*CharTokenizer, error) {
	return tokenizer.LoadVocab(path, opts...)
}

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
//
// Supported encodings: "cl100k_base" (GPT-4), "p50k_base" (GPT-3).
func NewTikToken(encodingName string) (*TikToken, error) {
	return tokenizer.NewTikToken(encodingName)
}

// NewTikTokenForModel creates a TikToken tokenizer for a specific model.
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	return tokenizer.NewTikTokenForModel(modelName)
}
