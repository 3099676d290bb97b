package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// execute runs the root command with args and returns stdout, without
// styling, and the log.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	c := New(&logs, LogInfo)
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return ansi.ReplaceAllString(out.String(), ""), logs.String(), err
}

func assertLine(t *testing.T, out, key, value string) {
	t.Helper()
	re := regexp.MustCompile(regexp.QuoteMeta(key) + `\s+` + regexp.QuoteMeta(value))
	assert.Regexp(t, re, out)
}

func TestCTCCommand_Labels(t *testing.T) {
	out, logs, err := execute(t, "ctc", "--labels", "3,1,20", "--frames", "5")
	require.NoError(t, err)

	assert.Contains(t, out, "7 nodes · 15 arcs")
	assert.Contains(t, out, "18 nodes · 30 arcs")
	// Labels 3, 1 and 20 are "b", " " and "s" in the default table.
	assertLine(t, out, "decoded", `"b s"`)
	assert.Contains(t, logs, "scored ctc target")
}

func TestCTCCommand_Text(t *testing.T) {
	out, _, err := execute(t, "ctc", "the cat", "--seed", "7")
	require.NoError(t, err)
	assertLine(t, out, "decoded", `"the cat"`)
}

func TestCTCCommand_Errors(t *testing.T) {
	_, _, err := execute(t, "ctc", "--labels", "1,2", "--frames", "1")
	assert.Error(t, err)

	_, _, err = execute(t, "ctc")
	assert.Error(t, err)

	_, _, err = execute(t, "ctc", "--labels", "1,x")
	assert.Error(t, err)
}

func TestASGCommand(t *testing.T) {
	out, _, err := execute(t, "asg", "--labels", "2,0,19", "--classes", "27", "--frames", "5")
	require.NoError(t, err)

	assert.Contains(t, out, "28 nodes · 756 arcs")
	assert.Contains(t, out, "10 nodes · 13 arcs")
	assert.Contains(t, out, "136 nodes · 2943 arcs")

	_, _, err = execute(t, "asg", "--labels", "30")
	assert.Error(t, err)
}

func TestEditDistanceCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"edit-distance", "kitten", "sitting"}, "3"},
		{[]string{"edit-distance", "same", "same"}, "0"},
		{[]string{"edit-distance", "--labels", "0,1,0,1", "0,0,0,1,1"}, "2"},
	}
	for _, tt := range tests {
		out, _, err := execute(t, tt.args...)
		require.NoError(t, err)
		assertLine(t, out, "distance", tt.want)
	}
}

func TestNGramCommand(t *testing.T) {
	out, _, err := execute(t, "ngram", "abcabcab", "abc")
	require.NoError(t, err)
	assertLine(t, out, "count", "2")

	out, _, err = execute(t, "ngram", "--labels", "0,1,0,1", "0,1")
	require.NoError(t, err)
	assertLine(t, out, "count", "2")

	_, _, err = execute(t, "ngram", "abc", "")
	assert.Error(t, err)
}

func TestTrainCommand(t *testing.T) {
	out, logs, err := execute(t, "train", "ab", "ba", "--steps", "20", "--workers", "2", "--log-every", "5")
	require.NoError(t, err)

	assert.Contains(t, out, "trained 2 examples for 20 steps")
	assert.Contains(t, out, "final loss")
	assert.Contains(t, out, "example 1")
	assert.Contains(t, logs, "training finished")
}

func TestTrainCommand_ASG(t *testing.T) {
	out, _, err := execute(t, "train", "ab", "--criterion", "asg", "--optimizer", "adam", "--lr", "0.05", "--steps", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "trained 1 examples for 3 steps")
}

func TestTrainCommand_InvalidOptimizer(t *testing.T) {
	_, _, err := execute(t, "train", "ab", "--optimizer", "rmsprop")
	assert.Error(t, err)
}

func TestTrainCommand_Config(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[ctc]
symbols = ["_", "h", "i"]
blank = "_"

[train]
optimizer = "adam"
lr = 0.1
steps = 2
targets = ["hi"]
`), 0o600))

	out, _, err := execute(t, "train", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "trained 1 examples for 2 steps")
}

func TestVersionCommand(t *testing.T) {
	SetVersion("v1.2.3", "abc123", "2025-01-01")
	t.Cleanup(func() { SetVersion("v0.1.0-dev", "", "") })

	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gtn v1.2.3")
	assert.Contains(t, out, "commit: abc123")
}

func TestTrainCommand_SaveResume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ab.gtn")
	_, _, err := execute(t, "train", "ab", "--criterion", "asg", "--optimizer", "adam",
		"--lr", "0.05", "--steps", "2", "--save", path)
	require.NoError(t, err)

	out, _, err := execute(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "emissions.0")
	// 28 classes: 28 start arcs and 28*28 transition arcs.
	assert.Contains(t, out, "29 nodes · 812 arcs")
	assert.Contains(t, out, "m.1")
	assertLine(t, out, "optimizer", "adam")
	assertLine(t, out, "steps", "2")

	out, logs, err := execute(t, "train", "ab", "--criterion", "asg", "--optimizer", "adam",
		"--lr", "0.05", "--steps", "1", "--resume", path)
	require.NoError(t, err)
	assert.Contains(t, out, "trained 1 examples for 1 steps")
	assert.Contains(t, logs, "resumed")

	_, _, err = execute(t, "train", "ab", "--steps", "1", "--resume", path)
	assert.Error(t, err, "sgd/ctc run cannot resume an adam/asg checkpoint")

	_, _, err = execute(t, "inspect", filepath.Join(t.TempDir(), "missing.gtn"))
	assert.Error(t, err)
}
