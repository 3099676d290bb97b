package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/born-ml/gtn/internal/graph"
	"github.com/born-ml/gtn/internal/tokenizer"
)

// RunConfig is the TOML run file read with --config. Flags given on the
// command line override it.
type RunConfig struct {
	CTC   CTCConfig   `toml:"ctc"`
	ASG   ASGConfig   `toml:"asg"`
	Train TrainConfig `toml:"train"`
}

// CTCConfig describes the emissions and symbol table of CTC runs.
type CTCConfig struct {
	Frames        int      `toml:"frames"`
	Vocab         string   `toml:"vocab"`   // vocab.json or tokenizer.json
	Symbols       []string `toml:"symbols"` // used when Vocab is empty
	Blank         string   `toml:"blank"`
	WordDelimiter string   `toml:"word_delimiter"`
	Seed          uint64   `toml:"seed"`
}

// ASGConfig describes ASG runs.
type ASGConfig struct {
	Frames  int    `toml:"frames"`
	Classes int    `toml:"classes"`
	Seed    uint64 `toml:"seed"`
}

// TrainConfig describes a training run.
type TrainConfig struct {
	Criterion string   `toml:"criterion"` // "ctc" or "asg"
	Optimizer string   `toml:"optimizer"` // "sgd" or "adam"
	LR        float64  `toml:"lr"`
	Momentum  float64  `toml:"momentum"`
	Steps     int      `toml:"steps"`
	LogEvery  int      `toml:"log_every"`
	Workers   int      `toml:"workers"`
	Targets   []string `toml:"targets"`
}

// DefaultRunConfig returns the settings used without a run file.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		CTC: CTCConfig{
			Frames:  0, // twice the target length
			Symbols: defaultSymbols(),
			Blank:   tokenizer.DefaultBlank,
			Seed:    1,
		},
		ASG: ASGConfig{
			Frames:  5,
			Classes: 27,
			Seed:    1,
		},
		Train: TrainConfig{
			Criterion: "ctc",
			Optimizer: "sgd",
			LR:        0.5,
			Steps:     100,
			LogEvery:  10,
			Targets:   []string{"the cat", "a dog"},
		},
	}
}

// defaultSymbols is a 28-symbol English character set: blank, space and
// the letters a to z.
func defaultSymbols() []string {
	symbols := []string{tokenizer.DefaultBlank, " "}
	for r := 'a'; r <= 'z'; r++ {
		symbols = append(symbols, string(r))
	}
	return symbols
}

// LoadRunConfig decodes a TOML run file on top of DefaultRunConfig.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return RunConfig{}, fmt.Errorf("read run config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return RunConfig{}, fmt.Errorf("run config %s: unknown keys %v", path, undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return RunConfig{}, fmt.Errorf("run config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (r RunConfig) Validate() error {
	switch {
	case r.CTC.Frames < 0:
		return fmt.Errorf("ctc.frames must not be negative, got %d", r.CTC.Frames)
	case r.ASG.Frames < 1:
		return fmt.Errorf("asg.frames must be positive, got %d", r.ASG.Frames)
	case r.ASG.Classes < 1:
		return fmt.Errorf("asg.classes must be positive, got %d", r.ASG.Classes)
	case r.Train.Steps < 0:
		return fmt.Errorf("train.steps must not be negative, got %d", r.Train.Steps)
	case r.Train.LR <= 0:
		return fmt.Errorf("train.lr must be positive, got %g", r.Train.LR)
	}
	switch r.Train.Criterion {
	case "ctc", "asg":
	default:
		return fmt.Errorf("train.criterion must be ctc or asg, got %q", r.Train.Criterion)
	}
	switch r.Train.Optimizer {
	case "sgd", "adam":
	default:
		return fmt.Errorf("train.optimizer must be sgd or adam, got %q", r.Train.Optimizer)
	}
	return nil
}

// charTokenizer builds the symbol table described by a CTCConfig.
func (c CTCConfig) charTokenizer() (*tokenizer.CharTokenizer, error) {
	var opts []tokenizer.CharOption
	if c.WordDelimiter != "" {
		opts = append(opts, tokenizer.WithWordDelimiter(c.WordDelimiter))
	}
	var (
		tok *tokenizer.CharTokenizer
		err error
	)
	if c.Vocab != "" {
		tok, err = tokenizer.LoadVocab(c.Vocab, opts...)
	} else {
		tok, err = tokenizer.NewCharTokenizerFromSymbols(c.Symbols, opts...)
	}
	if err != nil {
		return nil, err
	}
	if c.Blank != "" {
		if err := tok.SetBlank(c.Blank); err != nil {
			return nil, err
		}
	}
	if tok.Blank() < 0 {
		return nil, fmt.Errorf("vocabulary has no blank symbol")
	}
	return tok, nil
}

// parseLabels parses a comma-separated list of non-negative labels.
func parseLabels(s string) ([]graph.Label, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]graph.Label, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid label %q: %w", p, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("invalid label %d: labels must not be negative", n)
		}
		out[i] = graph.Label(n)
	}
	return out, nil
}
