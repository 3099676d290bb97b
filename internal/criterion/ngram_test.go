package criterion_test

import (
	"testing"

	"github.com/born-ml/gtn/internal/criterion"
	"github.com/born-ml/gtn/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNGramCounter(t *testing.T) {
	g := criterion.NGramCounter(2, 3)
	assert.Equal(t, 3, g.NumNodes())
	assert.Equal(t, 2*3+2*3, g.NumArcs())
	assert.Equal(t, []int{2}, g.Accept())
	for _, a := range g.In(0) {
		assert.Equal(t, graph.Epsilon, g.OLabel(a))
	}
}

func TestCountNGram(t *testing.T) {
	n, err := criterion.CountNGram(labels(0, 1, 0, 1), labels(0, 1), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	input := labels(0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1)
	for _, ngram := range [][]graph.Label{labels(0, 1, 2), labels(1, 2, 0), labels(2, 0, 1)} {
		n, err := criterion.CountNGram(input, ngram, 28)
		require.NoError(t, err)
		assert.Equal(t, 3, n, "ngram %v", ngram)
	}

	n, err = criterion.CountNGram(input, labels(2, 2), 28)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCountNGram_Empty(t *testing.T) {
	_, err := criterion.CountNGram(labels(0, 1), nil, 2)
	assert.ErrorIs(t, err, graph.ErrShape)
}

func TestCountNGram_LabelOutsideVocabulary(t *testing.T) {
	_, err := criterion.CountNGram(labels(0, 1, 3), labels(0, 1), 3)
	assert.ErrorIs(t, err, graph.ErrLabel)

	_, err = criterion.CountNGram(labels(0, 1), labels(5), 3)
	assert.ErrorIs(t, err, graph.ErrLabel)
}
