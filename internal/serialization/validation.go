package serialization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/gtn/internal/graph"
)

// Validation limits for security and resource protection.
const (
	MaxHeaderSize  = 256 * 1024 * 1024 // 256MB; graph structure lives in the header
	MaxEntryCount  = 100_000
	MaxEntryName   = 4096
	MaxGraphNodes  = 1 << 26
	MaxGraphArcs   = 1 << 28
	MaxBufferFloat = 1 << 30
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict performs all checks (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal skips the data section overlap checks.
	ValidationNormal
	// ValidationNone skips validation. Use only with trusted input.
	ValidationNone
)

// ValidateOffsets checks that entries lie inside the data section and do not
// overlap.
func ValidateOffsets(regions []region, dataSize int64) error {
	sorted := make([]region, len(regions))
	copy(sorted, regions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].offset < sorted[j].offset })

	for i, r := range sorted {
		if r.offset < 0 || r.size < 0 {
			return &ValidationError{
				Kind:    ErrOutOfBounds,
				Name:    r.name,
				Details: fmt.Sprintf("offset=%d, size=%d (negative values not allowed)", r.offset, r.size),
			}
		}
		if r.offset+r.size > dataSize {
			return &ValidationError{
				Kind:    ErrOutOfBounds,
				Name:    r.name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", r.offset, r.size, dataSize),
			}
		}
		if i < len(sorted)-1 {
			next := sorted[i+1]
			if r.offset+r.size > next.offset {
				return &ValidationError{
					Kind:    ErrOffsetOverlap,
					Name:    r.name,
					Name2:   next.name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap", r.offset, r.offset+r.size, next.offset, next.offset+next.size),
				}
			}
		}
	}
	return nil
}

// ValidateName rejects empty, oversized and path-like entry names.
func ValidateName(name string) error {
	switch {
	case name == "":
		return &ValidationError{Kind: ErrInvalidName, Details: "empty name"}
	case len(name) > MaxEntryName:
		return &ValidationError{Kind: ErrInvalidName, Name: name[:32] + "...",
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxEntryName)}
	case strings.Contains(name, ".."):
		return &ValidationError{Kind: ErrInvalidName, Name: name, Details: "contains '..'"}
	case strings.ContainsAny(name, "/\\"):
		return &ValidationError{Kind: ErrInvalidName, Name: name, Details: "contains a path separator"}
	case strings.Contains(name, "\x00"):
		return &ValidationError{Kind: ErrInvalidName, Name: name, Details: "contains a null byte"}
	}
	return nil
}

// ValidateGraph checks that a graph description can be rebuilt.
func ValidateGraph(m *GraphMeta) error {
	invalid := func(format string, args ...any) error {
		return &ValidationError{Kind: ErrInvalidGraph, Name: m.Name, Details: fmt.Sprintf(format, args...)}
	}
	if m.Nodes < 0 || m.Nodes > MaxGraphNodes {
		return invalid("node count %d outside [0, %d]", m.Nodes, MaxGraphNodes)
	}
	if len(m.Arcs) > MaxGraphArcs {
		return invalid("arc count %d > max %d", len(m.Arcs), MaxGraphArcs)
	}
	if m.Size != int64(len(m.Arcs))*weightSize {
		return invalid("size %d does not hold %d weights", m.Size, len(m.Arcs))
	}
	for _, nodes := range [][]int{m.Start, m.Accept} {
		for _, n := range nodes {
			if n < 0 || n >= m.Nodes {
				return invalid("node %d out of range [0, %d)", n, m.Nodes)
			}
		}
	}
	for i, a := range m.Arcs {
		if a[0] < 0 || a[0] >= m.Nodes || a[1] < 0 || a[1] >= m.Nodes {
			return invalid("arc %d joins nodes %d and %d outside [0, %d)", i, a[0], a[1], m.Nodes)
		}
		if !graph.Label(a[2]).Valid() || !graph.Label(a[3]).Valid() {
			return invalid("arc %d has labels %d:%d", i, a[2], a[3])
		}
	}
	return nil
}

// ValidateHeader performs header validation at the given level.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}
	if n := len(h.Graphs) + len(h.Buffers); n > MaxEntryCount {
		return &ValidationError{Kind: ErrTooManyEntries, Details: fmt.Sprintf("got %d, max %d", n, MaxEntryCount)}
	}

	seen := make(map[string]bool)
	check := func(name string) error {
		if err := ValidateName(name); err != nil {
			return err
		}
		if seen[name] {
			return &ValidationError{Kind: ErrDuplicateName, Name: name, Details: "listed twice"}
		}
		seen[name] = true
		return nil
	}
	for i := range h.Graphs {
		if err := check(h.Graphs[i].Name); err != nil {
			return err
		}
		if err := ValidateGraph(&h.Graphs[i]); err != nil {
			return err
		}
	}
	for _, b := range h.Buffers {
		if err := check(b.Name); err != nil {
			return err
		}
		if b.Size%weightSize != 0 || b.Size/weightSize > MaxBufferFloat {
			return &ValidationError{Kind: ErrOutOfBounds, Name: b.Name,
				Details: fmt.Sprintf("size %d is not a float64 buffer", b.Size)}
		}
	}

	if level == ValidationStrict {
		return ValidateOffsets(h.regions(), dataSize)
	}
	return nil
}
