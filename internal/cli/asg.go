package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/born-ml/gtn/internal/autodiff/ops"
	"github.com/born-ml/gtn/internal/criterion"
)

// asgCommand computes the ASG loss of a label target.
func (c *CLI) asgCommand() *cobra.Command {
	var (
		frames  int
		classes int
		labels  string
		seed    uint64
	)

	cmd := &cobra.Command{
		Use:   "asg",
		Short: "Compute the ASG loss of a label target",
		Long: `Build the force-aligned (FAL) and fully connected (FCC) graphs of the
auto segmentation criterion over random emissions and zero transition
scores, and report their sizes and the loss.`,
		Example: `  gtn asg --labels 2,0,19 --classes 27 --frames 5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("frames") {
				cfg.ASG.Frames = frames
			}
			if cmd.Flags().Changed("classes") {
				cfg.ASG.Classes = classes
			}
			if cmd.Flags().Changed("seed") {
				cfg.ASG.Seed = seed
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			target, err := parseLabels(labels)
			if err != nil {
				return err
			}
			for _, l := range target {
				if int(l) >= cfg.ASG.Classes {
					return fmt.Errorf("label %d outside %d classes", l, cfg.ASG.Classes)
				}
			}
			if len(target) > cfg.ASG.Frames {
				return fmt.Errorf("target of %d labels does not fit in %d frames", len(target), cfg.ASG.Frames)
			}

			st := beginStage(c.Logger, "asg")
			emissions, err := randomEmissions(cfg.ASG.Frames, cfg.ASG.Classes, cfg.ASG.Seed, false)
			if err != nil {
				return err
			}
			transitions := criterion.ASGTransitions(cfg.ASG.Classes, false)

			fal, err := criterion.FALGraph(target)
			if err != nil {
				return err
			}
			aligned, err := ops.Compose(fal, transitions)
			if err != nil {
				return err
			}
			if aligned, err = ops.Compose(emissions, aligned); err != nil {
				return err
			}
			fcc, err := ops.Compose(emissions, transitions)
			if err != nil {
				return err
			}
			loss, err := criterion.ASGLoss(emissions, transitions, target)
			if err != nil {
				return err
			}
			best, err := ops.ViterbiPath(fcc)
			if err != nil {
				return err
			}
			st.track(emissions, transitions, aligned, fcc, best)
			st.end("scored asg target", "classes", cfg.ASG.Classes)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, StyleTitle.Render("ASG"))
			printStats(out, "transitions", transitions.NumNodes(), transitions.NumArcs())
			printStats(out, "fal", aligned.NumNodes(), aligned.NumArcs())
			printStats(out, "fcc", fcc.NumNodes(), fcc.NumArcs())
			printScore(out, "loss", loss.Item())
			printKeyValue(out, "best path", formatLabels(pathLabels(best)))
			return nil
		},
	}

	cmd.Flags().IntVar(&frames, "frames", 5, "number of emission frames")
	cmd.Flags().IntVar(&classes, "classes", 27, "number of output classes")
	cmd.Flags().StringVar(&labels, "labels", "", "comma-separated target labels")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "seed of the random emissions")
	_ = cmd.MarkFlagRequired("labels")
	return cmd
}
