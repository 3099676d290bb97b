package ops

import "github.com/born-ml/gtn/internal/graph"

// component is a strongly connected component in topological position.
type component struct {
	nodes  []int
	cyclic bool // More than one node, or a self loop
}

// components returns the strongly connected components of g in topological
// order: every arc goes from a component to itself or to a later one.
// It runs Tarjan's algorithm with an explicit stack.
func components(g *graph.Graph) []component {
	n := g.NumNodes()
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	type frame struct {
		node int
		next int // Position in Out(node)
	}

	var (
		stack   []int
		call    []frame
		counter int
		result  []component
	)

	for root := 0; root < n; root++ {
		if index[root] >= 0 {
			continue
		}
		call = append(call, frame{node: root})
		index[root], low[root] = counter, counter
		counter++
		stack = append(stack, root)
		onStack[root] = true

		for len(call) > 0 {
			top := &call[len(call)-1]
			u := top.node
			out := g.Out(u)
			if top.next < len(out) {
				v := g.Dst(out[top.next])
				top.next++
				if index[v] < 0 {
					index[v], low[v] = counter, counter
					counter++
					stack = append(stack, v)
					onStack[v] = true
					call = append(call, frame{node: v})
				} else if onStack[v] {
					low[u] = min(low[u], index[v])
				}
				continue
			}

			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := call[len(call)-1].node
				low[parent] = min(low[parent], low[u])
			}
			if low[u] != index[u] {
				continue
			}
			var c component
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				c.nodes = append(c.nodes, w)
				if w == u {
					break
				}
			}
			c.cyclic = len(c.nodes) > 1 || hasSelfLoop(g, u)
			result = append(result, c)
		}
	}

	// Tarjan emits sinks first.
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}

func hasSelfLoop(g *graph.Graph, u int) bool {
	for _, a := range g.Out(u) {
		if g.Dst(a) == u {
			return true
		}
	}
	return false
}
