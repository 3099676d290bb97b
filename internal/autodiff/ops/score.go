package ops

import (
	"math"

	"github.com/born-ml/gtn/internal/graph"
	"github.com/born-ml/gtn/internal/parallel"
)

type forwardPayload struct {
	alpha []float64
	score float64
	cfg   Config
}

// ForwardScore returns a scalar graph holding the log-semiring sum over all
// accepting paths of g, log Σ exp(path weight). The result is -Inf when no
// accepting path exists.
func ForwardScore(g *graph.Graph) (*graph.Graph, error) {
	return ForwardScoreWith(g, DefaultConfig())
}

// ForwardScoreWith is ForwardScore with an explicit configuration.
func ForwardScoreWith(g *graph.Graph, cfg Config) (*graph.Graph, error) {
	if g == nil {
		return nil, graph.NewShapeError("forward_score", "nil graph")
	}
	weights := g.Weights()
	alpha, err := logDistances(g, fromStart, weights, cfg)
	if err != nil {
		return nil, err
	}
	terms := make([]float64, 0, g.NumAccept())
	for _, f := range g.Accept() {
		terms = append(terms, alpha[f])
	}
	score := logSumExp(terms)
	if !finite(score) {
		return nil, graph.NewDivergentScoreError("forward_score", "score is %v", score)
	}

	out := graph.Scalar(score, g.CalcGrad())
	out.SetRecord(graph.OpForwardScore, &forwardPayload{alpha: alpha, score: score, cfg: cfg}, g)
	return out, nil
}

// forwardScoreGrad distributes the upstream gradient by arc posterior,
// exp(α[src] + w + β[dst] - Z).
func forwardScoreGrad(_ *graph.Graph, rec *graph.Record, grad []float64, _ Config) ([][]float64, error) {
	in := rec.Inputs[0]
	if !in.CalcGrad() {
		return [][]float64{nil}, nil
	}
	p := rec.Payload.(*forwardPayload)
	res := make([]float64, in.NumArcs())
	if math.IsInf(p.score, -1) {
		return [][]float64{res}, nil
	}

	weights := in.Weights()
	beta, err := logDistances(in, fromAccept, weights, p.cfg)
	if err != nil {
		return nil, err
	}
	upstream := grad[0]
	parallel.For(len(res), func(a int) {
		res[a] = upstream * math.Exp(p.alpha[in.Src(a)]+weights[a]+beta[in.Dst(a)]-p.score)
	}, p.cfg.Parallel)
	return [][]float64{res}, nil
}

// ViterbiScore returns a scalar graph holding the weight of the best
// accepting path of g in the max-plus semiring, or -Inf if none exists.
func ViterbiScore(g *graph.Graph) (*graph.Graph, error) {
	if g == nil {
		return nil, graph.NewShapeError("viterbi_score", "nil graph")
	}
	score, path, err := bestPath(g, g.Weights())
	if err != nil {
		return nil, err
	}
	out := graph.Scalar(score, g.CalcGrad())
	out.SetRecord(graph.OpViterbiScore, path, g)
	return out, nil
}

func viterbiScoreGrad(_ *graph.Graph, rec *graph.Record, grad []float64, _ Config) ([][]float64, error) {
	in := rec.Inputs[0]
	if !in.CalcGrad() {
		return [][]float64{nil}, nil
	}
	res := make([]float64, in.NumArcs())
	for _, a := range rec.Payload.([]int) {
		res[a] += grad[0]
	}
	return [][]float64{res}, nil
}

// ViterbiPath returns the best accepting path of g as a linear graph whose
// arcs copy the labels and weights of the chosen arcs. When g has no
// accepting path the result has no nodes.
func ViterbiPath(g *graph.Graph) (*graph.Graph, error) {
	if g == nil {
		return nil, graph.NewShapeError("viterbi_path", "nil graph")
	}
	weights := g.Weights()
	score, path, err := bestPath(g, weights)
	if err != nil {
		return nil, err
	}

	out := graph.New(g.CalcGrad())
	if !math.IsInf(score, -1) {
		out.AddNode(true, len(path) == 0)
		for i, a := range path {
			out.AddNode(false, i == len(path)-1)
			out.MustAddArc(i, i+1, g.ILabel(a), graph.WithOutput(g.OLabel(a)), graph.WithWeight(weights[a]))
		}
	}
	out.SetRecord(graph.OpViterbiPath, path, g)
	return out, nil
}

func viterbiPathGrad(_ *graph.Graph, rec *graph.Record, grad []float64, _ Config) ([][]float64, error) {
	in := rec.Inputs[0]
	if !in.CalcGrad() {
		return [][]float64{nil}, nil
	}
	res := make([]float64, in.NumArcs())
	for i, a := range rec.Payload.([]int) {
		res[a] += grad[i]
	}
	return [][]float64{res}, nil
}
