// Package parallel provides data-parallel helpers for graph scoring and
// gradient accumulation.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 256, // Arcs are cheap; keep small graphs sequential.
	}
}

// Sequential returns a config that disables parallelism.
func Sequential() Config {
	return Config{NumWorkers: 1, MinChunkSize: 1}
}

func (cfg Config) chunks(n int) (size int, parallel bool) {
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < cfg.MinChunkSize || n < 2 {
		return n, false
	}
	return max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize), true
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
// f must only write to locations owned by index i.
func For(n int, f func(i int), cfg Config) {
	chunkSize, par := cfg.chunks(n)
	if !par {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ScatterAdd runs f(i, dst) for i in [0, n) and returns the sum of every
// contribution f adds into dst, a buffer of length size.
//
// Each chunk accumulates into its own buffer and the buffers are merged in
// chunk order, so the result does not depend on goroutine scheduling.
func ScatterAdd(n, size int, f func(i int, dst []float64), cfg Config) []float64 {
	out := make([]float64, size)
	chunkSize, par := cfg.chunks(n)
	if !par {
		for i := 0; i < n; i++ {
			f(i, out)
		}
		return out
	}

	numChunks := (n + chunkSize - 1) / chunkSize
	partial := make([][]float64, numChunks)
	For(numChunks, func(c int) {
		buf := make([]float64, size)
		for i := c * chunkSize; i < min((c+1)*chunkSize, n); i++ {
			f(i, buf)
		}
		partial[c] = buf
	}, Config{Enabled: true, NumWorkers: numChunks, MinChunkSize: 1})

	for _, buf := range partial {
		for j, v := range buf {
			out[j] += v
		}
	}
	return out
}

// Map runs f for every index in [0, n) on at most cfg.NumWorkers goroutines
// and returns the first error. Results are written by f into caller-owned
// slots.
func Map(ctx context.Context, n int, f func(ctx context.Context, i int) error, cfg Config) error {
	g, ctx := errgroup.WithContext(ctx)
	limit := 1
	if cfg.Enabled && cfg.NumWorkers > 1 {
		limit = cfg.NumWorkers
	}
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return f(ctx, i)
		})
	}
	return g.Wait()
}
