package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/born-ml/gtn/internal/graph"
)

// ReaderOptions configures Read.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// Load reads a .gtn file with strict validation.
func Load(path string) (*Checkpoint, error) {
	return LoadWithOptions(path, ReaderOptions{ValidationLevel: ValidationStrict})
}

// LoadWithOptions reads a .gtn file.
func LoadWithOptions(path string, opts ReaderOptions) (*Checkpoint, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	c, err := Read(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ReadHeader reads the fixed and JSON headers from r, leaving r at the
// start of the padding.
func ReadHeader(r io.Reader) (*Header, []byte, [ChecksumSize]byte, uint64, error) {
	var sum [ChecksumSize]byte
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, nil, sum, 0, fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, nil, sum, 0, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(fixed[4:8]); v != FormatVersion {
		return nil, nil, sum, 0, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, v, FormatVersion)
	}
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	copy(sum[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])
	if headerSize > MaxHeaderSize {
		return nil, nil, sum, 0, ErrHeaderTooLarge
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, nil, sum, 0, fmt.Errorf("failed to read header JSON: %w", err)
	}
	var h Header
	if err := json.Unmarshal(headerJSON, &h); err != nil {
		return nil, nil, sum, 0, fmt.Errorf("failed to parse header JSON: %w", err)
	}
	return &h, headerJSON, sum, dataSize, nil
}

// Read reads a checkpoint from r.
func Read(r io.Reader, opts ReaderOptions) (*Checkpoint, error) {
	h, headerJSON, sum, dataSize, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	//nolint:gosec // G115: dataSize is bounded by the entry limits checked below
	if err := ValidateHeader(h, int64(dataSize), opts.ValidationLevel); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if pad := padding(int64(len(headerJSON))); pad > 0 {
		if _, err := io.CopyN(io.Discard, r, pad); err != nil {
			return nil, fmt.Errorf("failed to skip padding: %w", err)
		}
	}
	var data bytes.Buffer
	if n, err := io.CopyN(&data, r, int64(dataSize)); err != nil {
		return nil, fmt.Errorf("failed to read data: got %d of %d bytes: %w", n, dataSize, err)
	}
	if !opts.SkipChecksumValidation {
		if checksum(headerJSON, data.Bytes()) != sum {
			return nil, ErrChecksumMismatch
		}
	}

	c := &Checkpoint{
		Graphs:    make(map[string]*graph.Graph, len(h.Graphs)),
		Buffers:   make(map[string][]float64, len(h.Buffers)),
		Metadata:  h.Metadata,
		Training:  h.Training,
		CreatedAt: h.CreatedAt,
	}
	raw := data.Bytes()
	slice := func(name string, offset, size int64) ([]float64, error) {
		if offset < 0 || size < 0 || offset+size > int64(len(raw)) {
			return nil, &ValidationError{Kind: ErrOutOfBounds, Name: name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", offset, size, len(raw))}
		}
		return readFloats(raw[offset : offset+size]), nil
	}
	for i := range h.Graphs {
		m := &h.Graphs[i]
		weights, err := slice(m.Name, m.Offset, m.Size)
		if err != nil {
			return nil, err
		}
		g, err := buildGraph(m, weights)
		if err != nil {
			return nil, fmt.Errorf("graph %q: %w", m.Name, err)
		}
		c.Graphs[m.Name] = g
	}
	for _, b := range h.Buffers {
		buf, err := slice(b.Name, b.Offset, b.Size)
		if err != nil {
			return nil, err
		}
		c.Buffers[b.Name] = buf
	}
	return c, nil
}

func buildGraph(m *GraphMeta, weights []float64) (*graph.Graph, error) {
	if len(weights) != len(m.Arcs) {
		return nil, &ValidationError{Kind: ErrInvalidGraph, Name: m.Name,
			Details: fmt.Sprintf("%d weights for %d arcs", len(weights), len(m.Arcs))}
	}
	if m.Nodes < 0 || m.Nodes > MaxGraphNodes {
		return nil, &ValidationError{Kind: ErrInvalidGraph, Name: m.Name,
			Details: fmt.Sprintf("node count %d", m.Nodes)}
	}
	start := make([]bool, m.Nodes)
	accept := make([]bool, m.Nodes)
	for _, n := range m.Start {
		if n >= 0 && n < m.Nodes {
			start[n] = true
		}
	}
	for _, n := range m.Accept {
		if n >= 0 && n < m.Nodes {
			accept[n] = true
		}
	}
	g := graph.New(m.CalcGrad)
	for n := 0; n < m.Nodes; n++ {
		g.AddNode(start[n], accept[n])
	}
	for _, a := range m.Arcs {
		if _, err := g.AddArc(a[0], a[1], graph.Label(a[2]),
			graph.WithOutput(graph.Label(a[3]))); err != nil {
			return nil, err
		}
	}
	if err := g.SetWeights(weights); err != nil {
		return nil, err
	}
	return g, nil
}

func readFloats(b []byte) []float64 {
	out := make([]float64, len(b)/weightSize)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*weightSize:]))
	}
	return out
}
