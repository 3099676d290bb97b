package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/born-ml/gtn/internal/criterion"
	"github.com/born-ml/gtn/internal/graph"
)

// textPair encodes two arguments as label sequences over a shared symbol
// table, or parses them as label lists.
func textPair(a, b string, asLabels bool) (x, y []graph.Label, numTokens int, err error) {
	if asLabels {
		if x, err = parseLabels(a); err != nil {
			return nil, nil, 0, err
		}
		if y, err = parseLabels(b); err != nil {
			return nil, nil, 0, err
		}
		for _, l := range append(append([]graph.Label(nil), x...), y...) {
			numTokens = max(numTokens, int(l)+1)
		}
		return x, y, numTokens, nil
	}
	tok, err := textTokenizer(a, b)
	if err != nil {
		return nil, nil, 0, err
	}
	if x, err = tok.Encode(a); err != nil {
		return nil, nil, 0, err
	}
	if y, err = tok.Encode(b); err != nil {
		return nil, nil, 0, err
	}
	return x, y, tok.VocabSize(), nil
}

func (c *CLI) editDistanceCommand() *cobra.Command {
	var asLabels bool

	cmd := &cobra.Command{
		Use:   "edit-distance <a> <b>",
		Short: "Compute the Levenshtein distance through an edit transducer",
		Example: `  gtn edit-distance kitten sitting
  gtn edit-distance --labels 0,1,0,1 0,0,0,1,1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, y, numTokens, err := textPair(args[0], args[1], asLabels)
			if err != nil {
				return err
			}
			c.Logger.Debug("edit distance", "tokens", numTokens, "len_a", len(x), "len_b", len(y))

			d, err := criterion.EditDistance(x, y, numTokens)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printKeyValue(out, "distance", strconv.Itoa(d))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asLabels, "labels", false, "treat arguments as comma-separated label lists")
	return cmd
}

func (c *CLI) ngramCommand() *cobra.Command {
	var asLabels bool

	cmd := &cobra.Command{
		Use:   "ngram <input> <ngram>",
		Short: "Count the occurrences of an n-gram with a counting transducer",
		Example: `  gtn ngram abcabcab abc
  gtn ngram --labels 0,1,0,1 0,1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, ngram, numTokens, err := textPair(args[0], args[1], asLabels)
			if err != nil {
				return err
			}
			if len(ngram) == 0 {
				return fmt.Errorf("n-gram must not be empty")
			}
			c.Logger.Debug("ngram count", "tokens", numTokens, "n", len(ngram))

			n, err := criterion.CountNGram(input, ngram, numTokens)
			if err != nil {
				return err
			}
			printKeyValue(cmd.OutOrStdout(), "count", strconv.Itoa(n))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asLabels, "labels", false, "treat arguments as comma-separated label lists")
	return cmd
}
