package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/gtn/internal/autodiff/ops"
	"github.com/born-ml/gtn/internal/criterion"
	"github.com/born-ml/gtn/internal/graph"
	"github.com/born-ml/gtn/internal/optim"
	"github.com/born-ml/gtn/internal/parallel"
	"github.com/born-ml/gtn/internal/serialization"
	"github.com/born-ml/gtn/internal/tokenizer"
)

// statefulOptimizer is an optimizer whose buffers can be checkpointed.
type statefulOptimizer interface {
	optim.Optimizer
	StateDict() map[string][]float64
	LoadStateDict(map[string][]float64) error
}

// trainRun holds the parameters and targets of a training run.
type trainRun struct {
	tok         *tokenizer.CharTokenizer
	targets     [][]graph.Label
	emissions   []*graph.Graph
	transitions *graph.Graph // asg only
	asg         bool
}

func (r *trainRun) params() []*graph.Graph {
	params := append([]*graph.Graph(nil), r.emissions...)
	if r.transitions != nil {
		params = append(params, r.transitions)
	}
	return params
}

func (r *trainRun) loss(i int) (*graph.Graph, error) {
	if r.asg {
		return criterion.ASGLoss(r.emissions[i], r.transitions, r.targets[i])
	}
	return criterion.CTCLoss(r.emissions[i], r.targets[i], r.tok.Blank())
}

// decode returns the best label sequence of example i as text.
func (r *trainRun) decode(i int) (string, error) {
	g := r.emissions[i]
	if r.asg {
		var err error
		if g, err = ops.Compose(g, r.transitions); err != nil {
			return "", err
		}
	}
	best, err := ops.ViterbiPath(g)
	if err != nil {
		return "", err
	}
	if r.asg {
		return r.tok.Decode(collapseRepeats(pathLabels(best)))
	}
	return r.tok.DecodeCTC(pathLabels(best))
}

// graphs names the trained parameters the way checkpoints store them.
func (r *trainRun) graphs() map[string]*graph.Graph {
	out := make(map[string]*graph.Graph, len(r.emissions)+1)
	for i, e := range r.emissions {
		out["emissions."+strconv.Itoa(i)] = e
	}
	if r.transitions != nil {
		out["transitions"] = r.transitions
	}
	return out
}

// restore copies the weights of a checkpoint into the run's parameters.
func (r *trainRun) restore(ckpt *serialization.Checkpoint) error {
	for name, g := range r.graphs() {
		saved, ok := ckpt.Graphs[name]
		if !ok {
			return fmt.Errorf("checkpoint has no graph %q", name)
		}
		if saved.NumNodes() != g.NumNodes() || saved.NumArcs() != g.NumArcs() {
			return fmt.Errorf("checkpoint graph %q has %d nodes and %d arcs, want %d and %d",
				name, saved.NumNodes(), saved.NumArcs(), g.NumNodes(), g.NumArcs())
		}
		if err := g.SetWeights(saved.Weights()); err != nil {
			return err
		}
	}
	return nil
}

func newOptimizer(cfg TrainConfig, params []*graph.Graph) statefulOptimizer {
	if cfg.Optimizer == "adam" {
		return optim.NewAdam(params, optim.AdamConfig{LR: cfg.LR})
	}
	return optim.NewSGD(params, optim.SGDConfig{LR: cfg.LR, Momentum: cfg.Momentum})
}

func (c *CLI) trainCommand() *cobra.Command {
	var (
		flags        TrainConfig
		save, resume string
	)

	cmd := &cobra.Command{
		Use:   "train [targets...]",
		Short: "Fit emission scores to a batch of text targets",
		Long: `Train one emissions lattice per target (and, for ASG, a shared
transitions graph) by gradient descent on the CTC or ASG loss. Losses of
the batch are computed concurrently. Targets come from the arguments or the
[train] table of the run file.`,
		Example: `  gtn train "the cat" "a dog" --steps 200 --optimizer adam --lr 0.05
  gtn train --config run.toml -v

  # Save and resume
  gtn train "the cat" --steps 50 --save cat.gtn
  gtn train "the cat" --steps 50 --resume cat.gtn --save cat.gtn`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			if fs.Changed("criterion") {
				cfg.Train.Criterion = flags.Criterion
			}
			if fs.Changed("optimizer") {
				cfg.Train.Optimizer = flags.Optimizer
			}
			if fs.Changed("lr") {
				cfg.Train.LR = flags.LR
			}
			if fs.Changed("momentum") {
				cfg.Train.Momentum = flags.Momentum
			}
			if fs.Changed("steps") {
				cfg.Train.Steps = flags.Steps
			}
			if fs.Changed("log-every") {
				cfg.Train.LogEvery = flags.LogEvery
			}
			if fs.Changed("workers") {
				cfg.Train.Workers = flags.Workers
			}
			if len(args) > 0 {
				cfg.Train.Targets = args
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if len(cfg.Train.Targets) == 0 {
				return fmt.Errorf("no training targets")
			}

			run, err := c.newTrainRun(cfg)
			if err != nil {
				return err
			}
			return c.train(cmd.Context(), cmd, cfg.Train, run, resume, save)
		},
	}

	cmd.Flags().StringVar(&flags.Criterion, "criterion", "ctc", "loss to train: ctc or asg")
	cmd.Flags().StringVar(&flags.Optimizer, "optimizer", "sgd", "optimizer: sgd or adam")
	cmd.Flags().Float64Var(&flags.LR, "lr", 0.5, "learning rate")
	cmd.Flags().Float64Var(&flags.Momentum, "momentum", 0, "SGD momentum")
	cmd.Flags().IntVar(&flags.Steps, "steps", 100, "number of optimization steps")
	cmd.Flags().IntVar(&flags.LogEvery, "log-every", 10, "log the batch loss every n steps")
	cmd.Flags().IntVar(&flags.Workers, "workers", 0, "concurrent examples (default: one per CPU)")
	cmd.Flags().StringVar(&save, "save", "", "write the trained graphs and optimizer state to a .gtn file")
	cmd.Flags().StringVar(&resume, "resume", "", "start from the weights and optimizer state of a .gtn file")
	return cmd
}

func (c *CLI) newTrainRun(cfg RunConfig) (*trainRun, error) {
	tok, err := cfg.CTC.charTokenizer()
	if err != nil {
		return nil, err
	}
	run := &trainRun{tok: tok, asg: cfg.Train.Criterion == "asg"}
	vocab := tok.VocabSize()
	if run.asg {
		run.transitions = criterion.ASGTransitions(vocab, true)
	}
	for i, text := range cfg.Train.Targets {
		target, err := tok.Encode(text)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", text, err)
		}
		frames := cfg.CTC.Frames
		if frames == 0 {
			frames = 2*len(target) + 1
		}
		e, err := randomEmissions(frames, vocab, cfg.CTC.Seed+uint64(i), true)
		if err != nil {
			return nil, err
		}
		run.targets = append(run.targets, target)
		run.emissions = append(run.emissions, e)
	}
	return run, nil
}

func (c *CLI) train(ctx context.Context, cmd *cobra.Command, cfg TrainConfig, run *trainRun, resume, save string) error {
	par := parallel.DefaultConfig()
	if cfg.Workers > 0 {
		par.Enabled = cfg.Workers > 1
		par.NumWorkers = cfg.Workers
	}
	optimizer := newOptimizer(cfg, run.params())
	n := len(run.targets)
	if resume != "" {
		ckpt, err := serialization.Load(resume)
		if err != nil {
			return err
		}
		if t := ckpt.Training; t != nil && (t.Criterion != cfg.Criterion || t.OptimizerType != cfg.Optimizer) {
			return fmt.Errorf("checkpoint %s was trained with %s/%s, not %s/%s",
				resume, t.Criterion, t.OptimizerType, cfg.Criterion, cfg.Optimizer)
		}
		if err := run.restore(ckpt); err != nil {
			return fmt.Errorf("resume from %s: %w", resume, err)
		}
		if err := optimizer.LoadStateDict(ckpt.Buffers); err != nil {
			return fmt.Errorf("resume from %s: %w", resume, err)
		}
		c.Logger.Info("resumed", "path", resume, "graphs", len(ckpt.Graphs))
	}

	c.Logger.Info("training", "criterion", cfg.Criterion, "optimizer", cfg.Optimizer,
		"examples", n, "steps", cfg.Steps, "lr", optimizer.GetLR())
	st := beginStage(c.Logger, "train")

	var first, last float64
	for step := 0; step <= cfg.Steps; step++ {
		optimizer.ZeroGrad()
		losses, err := criterion.BatchBackward(ctx, n, run.loss, par)
		if err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		mean := 0.0
		for _, l := range losses {
			mean += l
		}
		mean /= float64(n)
		if step == 0 {
			first = mean
		}
		last = mean
		if cfg.LogEvery > 0 && step%cfg.LogEvery == 0 {
			c.Logger.Info("step", "step", step, "loss", fmt.Sprintf("%.4f", mean))
		}
		if step == cfg.Steps {
			break
		}
		if err := optimizer.Step(); err != nil {
			return err
		}
	}
	st.end("training finished", "loss", fmt.Sprintf("%.4f", last))

	if save != "" {
		err := serialization.Save(save, &serialization.Checkpoint{
			Graphs:   run.graphs(),
			Buffers:  optimizer.StateDict(),
			Metadata: map[string]string{"targets": strings.Join(cfg.Targets, "\n")},
			Training: &serialization.TrainingMeta{
				Step:            cfg.Steps,
				Loss:            last,
				Criterion:       cfg.Criterion,
				OptimizerType:   cfg.Optimizer,
				OptimizerConfig: map[string]float64{"lr": cfg.LR, "momentum": cfg.Momentum},
			},
		})
		if err != nil {
			return err
		}
		c.Logger.Info("saved checkpoint", "path", save)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	printSuccess(out, "trained %d examples for %d steps", n, cfg.Steps)
	printScore(out, "initial loss", first)
	printScore(out, "final loss", last)
	for i := range run.targets {
		text, err := run.decode(i)
		if err != nil {
			return err
		}
		printKeyValue(out, "example "+strconv.Itoa(i), strconv.Quote(text))
	}
	return nil
}
