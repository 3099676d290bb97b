package tokenizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/gtn/internal/graph"
)

// Default special symbols of character vocabularies.
const (
	DefaultBlank = "<pad>"
	DefaultUnk   = "<unk>"
)

// CharTokenizer encodes text one character at a time through a symbol table.
type CharTokenizer struct {
	ids       map[string]graph.Label
	symbols   map[graph.Label]string
	blank     graph.Label
	unk       graph.Label
	delimiter string
}

// CharOption configures a CharTokenizer.
type CharOption func(*CharTokenizer)

// WithWordDelimiter encodes spaces as the given symbol, "|" in wav2vec2
// vocabularies.
func WithWordDelimiter(symbol string) CharOption {
	return func(c *CharTokenizer) { c.delimiter = symbol }
}

// NewCharTokenizer builds a tokenizer from a symbol -> label table. The blank
// and unknown labels are taken from DefaultBlank and DefaultUnk when present.
func NewCharTokenizer(vocab map[string]int, opts ...CharOption) (*CharTokenizer, error) {
	c := &CharTokenizer{
		ids:     make(map[string]graph.Label, len(vocab)),
		symbols: make(map[graph.Label]string, len(vocab)),
		blank:   -1,
		unk:     -1,
	}
	for sym, id := range vocab {
		if id < 0 {
			return nil, graph.NewLabelError("tokenizer", "symbol %q has negative id %d", sym, id)
		}
		l := graph.Label(id)
		if prev, ok := c.symbols[l]; ok {
			return nil, graph.NewLabelError("tokenizer", "symbols %q and %q share id %d", prev, sym, id)
		}
		c.ids[sym] = l
		c.symbols[l] = sym
	}
	for _, opt := range opts {
		opt(c)
	}
	if l, ok := c.ids[DefaultBlank]; ok {
		c.blank = l
	}
	if l, ok := c.ids[DefaultUnk]; ok {
		c.unk = l
	}
	if c.delimiter != "" {
		if _, ok := c.ids[c.delimiter]; !ok {
			return nil, fmt.Errorf("tokenizer: word delimiter %q is not in the vocabulary", c.delimiter)
		}
	}
	return c, nil
}

// NewCharTokenizerFromSymbols numbers symbols in order, so symbols[0]
// receives label 0.
func NewCharTokenizerFromSymbols(symbols []string, opts ...CharOption) (*CharTokenizer, error) {
	vocab := make(map[string]int, len(symbols))
	for i, s := range symbols {
		if _, ok := vocab[s]; ok {
			return nil, fmt.Errorf("tokenizer: duplicate symbol %q", s)
		}
		vocab[s] = i
	}
	return NewCharTokenizer(vocab, opts...)
}

// Encode converts text to one label per character. Characters missing from
// the vocabulary map to the unknown symbol, or fail with a LabelError when
// the vocabulary has none.
func (c *CharTokenizer) Encode(text string) ([]graph.Label, error) {
	out := make([]graph.Label, 0, len(text))
	for _, r := range text {
		sym := string(r)
		if r == ' ' && c.delimiter != "" {
			sym = c.delimiter
		}
		l, ok := c.ids[sym]
		if !ok {
			if c.unk < 0 {
				return nil, graph.NewLabelError("tokenizer", "character %q is not in the vocabulary", sym)
			}
			l = c.unk
		}
		out = append(out, l)
	}
	return out, nil
}

// Decode converts labels back to text, turning the word delimiter into a
// space.
func (c *CharTokenizer) Decode(labels []graph.Label) (string, error) {
	var b strings.Builder
	for _, l := range labels {
		sym, ok := c.symbols[l]
		if !ok {
			return "", graph.NewLabelError("tokenizer", "label %s is not in the vocabulary", l)
		}
		if sym == c.delimiter {
			sym = " "
		}
		b.WriteString(sym)
	}
	return b.String(), nil
}

// DecodeCTC decodes a frame-level label path: repeated labels collapse and
// blanks are dropped.
func (c *CharTokenizer) DecodeCTC(path []graph.Label) (string, error) {
	collapsed := make([]graph.Label, 0, len(path))
	prev := graph.Epsilon
	for _, l := range path {
		if l != prev && l != c.blank {
			collapsed = append(collapsed, l)
		}
		prev = l
	}
	return c.Decode(collapsed)
}

// VocabSize returns one past the largest label in the vocabulary.
func (c *CharTokenizer) VocabSize() int {
	size := 0
	for l := range c.symbols {
		if int(l) >= size {
			size = int(l) + 1
		}
	}
	return size
}

// Blank returns the CTC blank label, or -1 if the vocabulary has none.
func (c *CharTokenizer) Blank() graph.Label { return c.blank }

// SetBlank makes symbol the CTC blank.
func (c *CharTokenizer) SetBlank(symbol string) error {
	l, ok := c.ids[symbol]
	if !ok {
		return fmt.Errorf("tokenizer: blank %q is not in the vocabulary", symbol)
	}
	c.blank = l
	return nil
}

// Unk returns the unknown-symbol label, or -1 if the vocabulary has none.
func (c *CharTokenizer) Unk() graph.Label { return c.unk }

// Symbols returns the vocabulary ordered by label.
func (c *CharTokenizer) Symbols() []string {
	labels := make([]graph.Label, 0, len(c.symbols))
	for l := range c.symbols {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = c.symbols[l]
	}
	return out
}
