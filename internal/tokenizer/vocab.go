package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// VocabFormat identifies the layout of a vocabulary file.
type VocabFormat string

const (
	// FormatVocabMap is a flat {"symbol": id} object, as in wav2vec2 vocab.json.
	FormatVocabMap VocabFormat = "vocab"

	// FormatHFTokenizer is a HuggingFace tokenizer.json with model.vocab.
	FormatHFTokenizer VocabFormat = "tokenizer.json"
)

// hfTokenizerFile is the subset of tokenizer.json read by LoadVocab.
type hfTokenizerFile struct {
	Model struct {
		Type  string         `json:"type"`
		Vocab map[string]int `json:"vocab"`
	} `json:"model"`
	AddedTokens []struct {
		ID      int    `json:"id"`
		Content string `json:"content"`
	} `json:"added_tokens"`
}

// ReadVocab reads a symbol table from path, detecting whether it holds a
// flat vocabulary map or a HuggingFace tokenizer.json. A directory is
// searched for vocab.json, then tokenizer.json.
func ReadVocab(path string) (map[string]int, VocabFormat, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		for _, name := range []string{"vocab.json", "tokenizer.json"} {
			candidate := filepath.Join(path, name)
			if _, err := os.Stat(candidate); err == nil {
				return ReadVocab(candidate)
			}
		}
		return nil, "", fmt.Errorf("no vocab.json or tokenizer.json in %s", path)
	}

	//nolint:gosec // Loading a vocabulary from a user-specified path is intentional.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read vocabulary: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, "", fmt.Errorf("failed to parse vocabulary %s: %w", path, err)
	}
	if _, ok := raw["model"]; ok {
		var hf hfTokenizerFile
		if err := json.Unmarshal(data, &hf); err != nil {
			return nil, "", fmt.Errorf("failed to parse tokenizer.json: %w", err)
		}
		vocab := make(map[string]int, len(hf.Model.Vocab)+len(hf.AddedTokens))
		for sym, id := range hf.Model.Vocab {
			vocab[sym] = id
		}
		for _, tok := range hf.AddedTokens {
			vocab[tok.Content] = tok.ID
		}
		return vocab, FormatHFTokenizer, nil
	}

	var vocab map[string]int
	if err := json.Unmarshal(data, &vocab); err != nil {
		return nil, "", fmt.Errorf("vocabulary %s is not a symbol to id map: %w", path, err)
	}
	return vocab, FormatVocabMap, nil
}

// LoadVocab reads a vocabulary file and builds a CharTokenizer over it.
func LoadVocab(path string, opts ...CharOption) (*CharTokenizer, error) {
	vocab, _, err := ReadVocab(path)
	if err != nil {
		return nil, err
	}
	return NewCharTokenizer(vocab, opts...)
}
