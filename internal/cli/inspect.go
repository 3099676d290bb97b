package cli

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/born-ml/gtn/internal/serialization"
)

// inspectCommand summarizes a .gtn checkpoint.
func (c *CLI) inspectCommand() *cobra.Command {
	var noVerify bool

	cmd := &cobra.Command{
		Use:   "inspect <file.gtn>",
		Short: "Show the graphs and buffers stored in a checkpoint",
		Example: `  gtn inspect cat.gtn
  gtn inspect --no-verify cat.gtn`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := beginStage(c.Logger, "inspect")
			ckpt, err := serialization.LoadWithOptions(args[0], serialization.ReaderOptions{
				SkipChecksumValidation: noVerify,
				ValidationLevel:        serialization.ValidationStrict,
			})
			if err != nil {
				return err
			}
			for _, g := range ckpt.Graphs {
				st.track(g)
			}
			st.end("read checkpoint", "buffers", len(ckpt.Buffers))

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, StyleTitle.Render(args[0]))
			printKeyValue(out, "created", ckpt.CreatedAt.Format(time.RFC3339))
			if t := ckpt.Training; t != nil {
				printKeyValue(out, "criterion", t.Criterion)
				printKeyValue(out, "optimizer", t.OptimizerType)
				printKeyValue(out, "steps", strconv.Itoa(t.Step))
				printScore(out, "loss", t.Loss)
			}

			fmt.Fprintln(out, StyleTitle.Render("graphs"))
			for _, name := range sortedNames(ckpt.Graphs) {
				g := ckpt.Graphs[name]
				printStats(out, name, g.NumNodes(), g.NumArcs())
			}
			if len(ckpt.Buffers) > 0 {
				fmt.Fprintln(out, StyleTitle.Render("buffers"))
				for _, name := range sortedNames(ckpt.Buffers) {
					fmt.Fprintln(out, "  "+StyleValue.Render(name)+" "+
						StyleDim.Render(fmt.Sprintf("%d values", len(ckpt.Buffers[name]))))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip checksum validation")
	return cmd
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
