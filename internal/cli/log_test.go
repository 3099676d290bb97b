package cli

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/born-ml/gtn/internal/graph"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	logger.Info("test message")
	if buf.Len() == 0 {
		t.Error("logger should have written output")
	}

	buf.Reset()
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug message written at info level: %q", buf.String())
	}
}

func TestStageEnd(t *testing.T) {
	var buf bytes.Buffer
	st := beginStage(newLogger(&buf, log.InfoLevel), "score")
	st.track(graph.LinearGraph(2, 3, false), nil, graph.Scalar(1, false))
	st.end("finished", "target", "1,2")

	out := buf.String()
	for _, want := range []string{"gtn", "finished", "stage=score", "target=1,2", "graphs=2", "nodes=5", "arcs=7", "took="} {
		if !strings.Contains(out, want) {
			t.Errorf("stage output %q missing %q", out, want)
		}
	}

	buf.Reset()
	beginStage(newLogger(&buf, log.InfoLevel), "empty").end("nothing built")
	if strings.Contains(buf.String(), "graphs=") {
		t.Errorf("untracked stage reported graph totals: %q", buf.String())
	}
}

func TestCollapseRepeats(t *testing.T) {
	got := formatLabels(collapseRepeats(nil))
	if got != "" {
		t.Errorf("collapse of empty path = %q", got)
	}
	got = formatLabels(collapseRepeats(mustLabels(t, "1,1,2,2,2,1")))
	if got != "1,2,1" {
		t.Errorf("collapse = %q, want 1,2,1", got)
	}
}

func TestRandomEmissions(t *testing.T) {
	g, err := randomEmissions(3, 4, 42, false)
	if err != nil {
		t.Fatal(err)
	}
	w := g.Weights()
	for f := 0; f < 3; f++ {
		sum := 0.0
		for v := 0; v < 4; v++ {
			sum += math.Exp(w[f*4+v])
		}
		if sum < 1-1e-9 || sum > 1+1e-9 {
			t.Errorf("frame %d probabilities sum to %f", f, sum)
		}
	}
}

func mustLabels(t *testing.T, s string) []graph.Label {
	t.Helper()
	ls, err := parseLabels(s)
	if err != nil {
		t.Fatal(err)
	}
	return ls
}
