// Package cli implements the gtn command-line interface.
//
// The commands build the graphs behind common sequence criteria from text or
// label lists, score them, and train learned weights:
//   - ctc: CTC loss and best alignment of a target against random emissions
//   - asg: ASG loss with its force-aligned and fully connected graphs
//   - edit-distance: Levenshtein distance through an edit transducer
//   - ngram: n-gram counting through a counting transducer
//   - train: fit emissions (and ASG transitions) to a batch of targets
//   - inspect: summarize a .gtn checkpoint written by train --save
//
// All commands support --verbose (-v) for debug-level logging and --config to
// read defaults from a TOML run file.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const (
	// appName is the application name used for display.
	appName = "gtn"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var (
	version = "v0.1.0-dev" // semantic version
	commit  string         // git commit SHA
	date    string         // build timestamp
)

// SetVersion sets the version information displayed by --version and the
// version command. main sets it from ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "gtn builds, scores and trains weighted finite-state graphs",
		Long:         `gtn computes sequence criteria (CTC, ASG, edit distance, n-gram counts) with differentiable weighted finite-state transducers.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(versionString() + "\n")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "TOML run file with [ctc], [asg] and [train] tables")

	root.AddCommand(c.ctcCommand())
	root.AddCommand(c.asgCommand())
	root.AddCommand(c.editDistanceCommand())
	root.AddCommand(c.ngramCommand())
	root.AddCommand(c.trainCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.versionCommand())

	return root
}

func versionString() string {
	s := appName + " " + version
	if commit != "" {
		s += "\ncommit: " + commit
	}
	if date != "" {
		s += "\nbuilt: " + date
	}
	return s
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printInfo(cmd.OutOrStdout(), "%s", versionString())
		},
	}
}

// loadConfig reads the --config file, or returns the defaults.
func (c *CLI) loadConfig() (RunConfig, error) {
	if c.configPath == "" {
		return DefaultRunConfig(), nil
	}
	cfg, err := LoadRunConfig(c.configPath)
	if err != nil {
		return RunConfig{}, err
	}
	c.Logger.Debug("loaded run config", "path", c.configPath)
	return cfg, nil
}
