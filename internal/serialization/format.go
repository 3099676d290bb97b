package serialization

import (
	"crypto/sha256"
	"time"
)

// Format constants.
const (
	MagicBytes      = "GTNG"
	FormatVersion   = 1
	FixedHeaderSize = 64   // bytes before the JSON header
	ChecksumSize    = 32   // SHA-256
	ChecksumOffset  = 0x20 // checksum position in the fixed header
	DataAlignment   = 64   // the data section starts on a 64-byte boundary
	weightSize      = 8    // float64
)

// Flags for the .gtn format.
const (
	FlagHasMetadata   uint32 = 1 << 0
	FlagHasCheckpoint uint32 = 1 << 1
	FlagHasBuffers    uint32 = 1 << 2
)

// Header is the JSON header of a .gtn file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	GTNVersion    string            `json:"gtn_version"`
	CreatedAt     time.Time         `json:"created_at"`
	Graphs        []GraphMeta       `json:"graphs"`
	Buffers       []BufferMeta      `json:"buffers,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Training      *TrainingMeta     `json:"training,omitempty"`
}

// TrainingMeta records where a training run stopped.
type TrainingMeta struct {
	Step            int                `json:"step"`
	Loss            float64            `json:"loss"`
	Criterion       string             `json:"criterion"`
	OptimizerType   string             `json:"optimizer_type"`
	OptimizerConfig map[string]float64 `json:"optimizer_config,omitempty"`
}

// GraphMeta describes one graph. Arcs are (src, dst, ilabel, olabel) in arc
// order; the weights live in the data section.
type GraphMeta struct {
	Name     string   `json:"name"`
	CalcGrad bool     `json:"calc_grad"`
	Nodes    int      `json:"nodes"`
	Start    []int    `json:"start"`
	Accept   []int    `json:"accept"`
	Arcs     [][4]int `json:"arcs"`
	Offset   int64    `json:"offset"` // bytes from the start of the data section
	Size     int64    `json:"size"`
}

// BufferMeta describes a named float64 buffer.
type BufferMeta struct {
	Name   string `json:"name"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}

// region is a named byte range of the data section.
type region struct {
	name         string
	offset, size int64
}

func (h *Header) regions() []region {
	out := make([]region, 0, len(h.Graphs)+len(h.Buffers))
	for _, g := range h.Graphs {
		out = append(out, region{g.Name, g.Offset, g.Size})
	}
	for _, b := range h.Buffers {
		out = append(out, region{b.Name, b.Offset, b.Size})
	}
	return out
}

// checksum hashes the JSON header followed by the data section.
func checksum(header, data []byte) [ChecksumSize]byte {
	h := sha256.New()
	h.Write(header)
	h.Write(data)
	var sum [ChecksumSize]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// padding returns the zero bytes needed after a JSON header of n bytes.
func padding(n int64) int64 {
	pos := int64(FixedHeaderSize) + n
	return (DataAlignment - pos%DataAlignment) % DataAlignment
}
