package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/born-ml/gtn/internal/graph"
)

const gtnVersion = "0.1.0"

// Checkpoint is the content of a .gtn file.
type Checkpoint struct {
	Graphs   map[string]*graph.Graph
	Buffers  map[string][]float64
	Metadata map[string]string
	Training *TrainingMeta
	// CreatedAt is set when the checkpoint is read.
	CreatedAt time.Time
}

// Writer writes checkpoints in .gtn format.
type Writer struct {
	w      io.Writer
	file   *os.File
	closed bool
}

// NewWriter writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Create creates a .gtn file writer.
func Create(path string) (*Writer, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint saving
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &Writer{w: file, file: file}, nil
}

// Save writes c to path.
func Save(path string, c *Checkpoint) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	if err := w.Write(c); err != nil {
		_ = w.Close() // Best effort close
		return err
	}
	return w.Close()
}

// Write writes c. Graphs and buffers are stored in name order.
func (w *Writer) Write(c *Checkpoint) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	header := Header{
		FormatVersion: FormatVersion,
		GTNVersion:    gtnVersion,
		CreatedAt:     time.Now().UTC(),
		Metadata:      c.Metadata,
		Training:      c.Training,
	}

	var data []byte
	for _, name := range sortedKeys(c.Graphs) {
		if err := ValidateName(name); err != nil {
			return err
		}
		g := c.Graphs[name]
		meta := describeGraph(name, g)
		meta.Offset = int64(len(data))
		data = appendFloats(data, g.Weights())
		meta.Size = int64(len(data)) - meta.Offset
		header.Graphs = append(header.Graphs, meta)
	}
	for _, name := range sortedKeys(c.Buffers) {
		if err := ValidateName(name); err != nil {
			return err
		}
		if _, ok := c.Graphs[name]; ok {
			return &ValidationError{Kind: ErrDuplicateName, Name: name, Details: "used by a graph and a buffer"}
		}
		meta := BufferMeta{Name: name, Offset: int64(len(data))}
		data = appendFloats(data, c.Buffers[name])
		meta.Size = int64(len(data)) - meta.Offset
		header.Buffers = append(header.Buffers, meta)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	// 0x00 magic, 0x04 version, 0x08 flags, 0x0C reserved,
	// 0x10 header size, 0x18 data size, 0x20 checksum.
	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], header.flags())
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(data)))
	sum := checksum(headerJSON, data)
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], sum[:])

	if _, err := w.w.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}
	if pad := padding(int64(len(headerJSON))); pad > 0 {
		if _, err := w.w.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	return nil
}

// Close closes the underlying file, if the writer owns one.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.file == nil {
		return nil
	}
	return w.file.Close()
}

func (h *Header) flags() uint32 {
	var flags uint32
	if len(h.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if h.Training != nil {
		flags |= FlagHasCheckpoint
	}
	if len(h.Buffers) > 0 {
		flags |= FlagHasBuffers
	}
	return flags
}

func describeGraph(name string, g *graph.Graph) GraphMeta {
	meta := GraphMeta{
		Name:     name,
		CalcGrad: g.CalcGrad(),
		Nodes:    g.NumNodes(),
		Start:    g.Start(),
		Accept:   g.Accept(),
		Arcs:     make([][4]int, g.NumArcs()),
	}
	for a := range meta.Arcs {
		meta.Arcs[a] = [4]int{g.Src(a), g.Dst(a), int(g.ILabel(a)), int(g.OLabel(a))}
	}
	return meta
}

func appendFloats(dst []byte, xs []float64) []byte {
	for _, x := range xs {
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(x))
	}
	return dst
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
