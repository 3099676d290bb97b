package cli

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/born-ml/gtn/internal/autodiff/ops"
	"github.com/born-ml/gtn/internal/criterion"
	"github.com/born-ml/gtn/internal/graph"
)

// ctcCommand scores a target with CTC against random emissions.
func (c *CLI) ctcCommand() *cobra.Command {
	var (
		frames int
		labels string
		seed   uint64
	)

	cmd := &cobra.Command{
		Use:   "ctc [text]",
		Short: "Compute the CTC loss and best alignment of a target",
		Long: `Build the CTC alignment graph of a target, compose it with a random
emissions lattice and report the loss and the best alignment.

The target is text encoded with the configured symbol table, or a
comma-separated label list given with --labels.`,
		Example: `  # Character target over the default 28-symbol table
  gtn ctc "the cat"

  # Explicit labels, 5 frames
  gtn ctc --labels 3,1,20 --frames 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("frames") {
				cfg.CTC.Frames = frames
			}
			if cmd.Flags().Changed("seed") {
				cfg.CTC.Seed = seed
			}

			tok, err := cfg.CTC.charTokenizer()
			if err != nil {
				return err
			}
			var target []graph.Label
			switch {
			case labels != "":
				target, err = parseLabels(labels)
			case len(args) == 1:
				target, err = tok.Encode(args[0])
			default:
				return fmt.Errorf("a target text or --labels is required")
			}
			if err != nil {
				return err
			}

			T := cfg.CTC.Frames
			if T == 0 {
				T = 2*len(target) + 1
			}
			vocab := tok.VocabSize()
			c.Logger.Debug("building ctc graphs", "target", formatLabels(target), "frames", T, "vocab", vocab)

			st := beginStage(c.Logger, "ctc")
			emissions, err := randomEmissions(T, vocab, cfg.CTC.Seed, false)
			if err != nil {
				return err
			}
			ctc, err := criterion.CTCTargetGraph(target, tok.Blank())
			if err != nil {
				return err
			}
			alignments, err := ops.Compose(ctc, emissions)
			if err != nil {
				return err
			}
			loss, err := criterion.CTCLoss(emissions, target, tok.Blank())
			if err != nil {
				return err
			}
			if math.IsInf(loss.Item(), 1) {
				return fmt.Errorf("target of %d labels cannot be aligned to %d frames over %d symbols",
					len(target), T, vocab)
			}
			best, err := ops.ViterbiPath(alignments)
			if err != nil {
				return err
			}
			path := pathLabels(best)
			decoded, err := tok.DecodeCTC(path)
			if err != nil {
				return err
			}
			st.track(emissions, ctc, alignments, best)
			st.end("scored ctc target")

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, StyleTitle.Render("CTC"))
			printStats(out, "target", ctc.NumNodes(), ctc.NumArcs())
			printStats(out, "emissions", emissions.NumNodes(), emissions.NumArcs())
			printStats(out, "alignments", alignments.NumNodes(), alignments.NumArcs())
			printScore(out, "loss", loss.Item())
			printKeyValue(out, "best path", formatLabels(path))
			printKeyValue(out, "decoded", strconv.Quote(decoded))
			return nil
		},
	}

	cmd.Flags().IntVar(&frames, "frames", 0, "number of emission frames (default: 2*len(target)+1)")
	cmd.Flags().StringVar(&labels, "labels", "", "comma-separated target labels instead of text")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "seed of the random emissions")
	return cmd
}
