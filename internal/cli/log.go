package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/born-ml/gtn/internal/graph"
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Level:           level,
	})
}

// stage times one step of a command and totals the size of the graphs it
// builds.
type stage struct {
	name   string
	logger *log.Logger
	began  time.Time

	graphs, nodes, arcs int
}

func beginStage(l *log.Logger, name string) *stage {
	l.Debug("stage started", "stage", name)
	return &stage{name: name, logger: l, began: time.Now()}
}

func (s *stage) track(gs ...*graph.Graph) {
	for _, g := range gs {
		if g == nil {
			continue
		}
		s.graphs++
		s.nodes += g.NumNodes()
		s.arcs += g.NumArcs()
	}
}

// end logs msg at info level with the stage name, the tracked graph totals
// and the wall time since beginStage.
func (s *stage) end(msg string, keyvals ...any) {
	kv := append([]any{"stage", s.name}, keyvals...)
	if s.graphs > 0 {
		kv = append(kv, "graphs", s.graphs, "nodes", s.nodes, "arcs", s.arcs)
	}
	kv = append(kv, "took", time.Since(s.began).Round(time.Millisecond))
	s.logger.Info(msg, kv...)
}
