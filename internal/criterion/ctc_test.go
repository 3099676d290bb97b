package criterion_test

import (
	"math"
	"testing"

	"github.com/born-ml/gtn/internal/autodiff"
	"github.com/born-ml/gtn/internal/autodiff/ops"
	"github.com/born-ml/gtn/internal/criterion"
	"github.com/born-ml/gtn/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCTCTargetGraph(t *testing.T) {
	g, err := criterion.CTCTargetGraph(labels(3, 1, 20), 0)
	require.NoError(t, err)

	assert.Equal(t, 7, g.NumNodes())
	assert.Equal(t, 15, g.NumArcs())
	assert.Equal(t, []int{0}, g.Start())
	assert.Equal(t, []int{5, 6}, g.Accept())
	assert.Contains(t, acceptedStrings(g, 5, false), "3 1 20")
	assert.Contains(t, acceptedStrings(g, 5, false), "0 3 1 1 20")
}

func TestCTCTargetGraph_RepeatedLabel(t *testing.T) {
	g, err := criterion.CTCTargetGraph(labels(1, 1), 0)
	require.NoError(t, err)

	// No skip arc between equal labels, so a blank must separate them.
	assert.Equal(t, 5, g.NumNodes())
	assert.Equal(t, 9, g.NumArcs())
	accepted := acceptedStrings(g, 3, false)
	assert.Contains(t, accepted, "1 0 1")
	assert.NotContains(t, accepted, "1 1")
}

func TestCTCTargetGraph_Empty(t *testing.T) {
	g, err := criterion.CTCTargetGraph(nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, g.NumNodes())
	assert.Equal(t, 1, g.NumArcs())
	assert.True(t, g.IsStart(0))
	assert.True(t, g.IsAccept(0))
}

func TestCTCTargetGraph_InvalidLabel(t *testing.T) {
	_, err := criterion.CTCTargetGraph(labels(1, -4), 0)
	assert.ErrorIs(t, err, graph.ErrLabel)

	_, err = criterion.CTCTargetGraph(labels(1), graph.Epsilon)
	assert.ErrorIs(t, err, graph.ErrLabel)
}

func TestCTCLoss(t *testing.T) {
	const frames, vocab = 5, 28
	target := labels(3, 1, 20)

	ctc, err := criterion.CTCTargetGraph(target, 0)
	require.NoError(t, err)
	alignments, err := ops.Compose(ctc, graph.LinearGraph(frames, vocab, false))
	require.NoError(t, err)
	assert.Equal(t, 18, alignments.NumNodes())
	assert.Equal(t, 30, alignments.NumArcs())

	emissions := graph.LinearGraph(frames, vocab, true)
	loss, err := criterion.CTCLoss(emissions, target, 0)
	require.NoError(t, err)
	// With zero emission scores the loss is minus the log of the number of
	// alignments.
	assert.InDelta(t, -math.Log(28), loss.Item(), 1e-9)

	require.NoError(t, autodiff.Backward(loss))
	grad, err := emissions.Grad()
	require.NoError(t, err)
	for f := 0; f < frames; f++ {
		sum := 0.0
		for v := 0; v < vocab; v++ {
			sum += grad[f*vocab+v]
		}
		assert.InDelta(t, -1.0, sum, 1e-9, "frame %d", f)
	}
	// Label 5 appears in no alignment.
	assert.Zero(t, grad[5])
}

func TestCTCLoss_NumericalGradient(t *testing.T) {
	const frames, vocab = 4, 4
	target := labels(1, 2)
	w := []float64{
		0.1, -0.3, 0.5, 0.2,
		-0.7, 0.4, 0.0, 0.3,
		0.2, 0.2, -0.1, 0.6,
		0.9, -0.2, 0.3, -0.4,
	}
	lossAt := func(weights []float64) float64 {
		e := graph.LinearGraph(frames, vocab, false)
		require.NoError(t, e.SetWeights(weights))
		loss, err := criterion.CTCLoss(e, target, 0)
		require.NoError(t, err)
		return loss.Item()
	}

	emissions := graph.LinearGraph(frames, vocab, true)
	require.NoError(t, emissions.SetWeights(w))
	loss, err := criterion.CTCLoss(emissions, target, 0)
	require.NoError(t, err)
	require.NoError(t, autodiff.Backward(loss))
	grad, err := emissions.Grad()
	require.NoError(t, err)

	const h = 1e-5
	for i := range w {
		plus := append([]float64(nil), w...)
		minus := append([]float64(nil), w...)
		plus[i] += h
		minus[i] -= h
		numeric := (lossAt(plus) - lossAt(minus)) / (2 * h)
		assert.InDelta(t, numeric, grad[i], 1e-4, "weight %d", i)
	}
}

func TestCTCLoss_TooFewFrames(t *testing.T) {
	// Two distinct labels need at least two frames.
	loss, err := criterion.CTCLoss(graph.LinearGraph(1, 3, false), labels(1, 2), 0)
	require.NoError(t, err)
	assert.True(t, math.IsInf(loss.Item(), 1))
}

func TestOptionalInsertionGraph(t *testing.T) {
	wfst := criterion.OptionalInsertionGraph(labels(1, 2), labels(1), labels(3, 4))
	assert.Equal(t, 2, wfst.NumNodes())

	c, err := ops.Compose(criterion.ChainGraph(labels(2, 1), false), wfst)
	require.NoError(t, err)
	assert.Equal(t, []string{"2 1", "2 1 3", "2 1 4"}, acceptedStrings(c, 4, true))

	c, err = ops.Compose(criterion.ChainGraph(labels(1, 2), false), wfst)
	require.NoError(t, err)
	assert.Equal(t, []string{"1 2", "1 3 2", "1 4 2"}, acceptedStrings(c, 4, true))
}
