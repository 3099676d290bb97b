package serialization

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/born-ml/gtn/internal/graph"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(true)
	g.AddNode(true, false)
	g.AddNode(false, false)
	g.AddNode(false, true)
	g.MustAddArc(0, 1, 0, graph.WithWeight(0.5))
	g.MustAddArc(0, 1, 1, graph.WithOutput(graph.Epsilon), graph.WithWeight(-1.25))
	g.MustAddArc(1, 2, graph.Epsilon, graph.WithOutput(3), graph.WithWeight(2))
	g.MustAddArc(2, 2, 2)
	return g
}

func testCheckpoint(t *testing.T) *Checkpoint {
	t.Helper()
	return &Checkpoint{
		Graphs: map[string]*graph.Graph{
			"transitions": testGraph(t),
			"emissions.0": graph.LinearGraph(2, 3, false),
		},
		Buffers: map[string][]float64{
			"velocity.0": {0.1, 0.2, 0.3},
			"t":          {7},
		},
		Metadata: map[string]string{"criterion": "asg"},
		Training: &TrainingMeta{Step: 12, Loss: 3.5, Criterion: "asg", OptimizerType: "sgd",
			OptimizerConfig: map[string]float64{"lr": 0.5}},
	}
}

// TestRoundTrip tests write → read → compare.
func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckpt.gtn")
	want := testCheckpoint(t)
	if err := Save(path, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(got.Graphs) != 2 {
		t.Fatalf("expected 2 graphs, got %d", len(got.Graphs))
	}
	for name, g := range want.Graphs {
		loaded, ok := got.Graphs[name]
		if !ok {
			t.Fatalf("graph %q missing", name)
		}
		if !graph.Equal(g, loaded) {
			t.Errorf("graph %q differs after round trip", name)
		}
		if loaded.CalcGrad() != g.CalcGrad() {
			t.Errorf("graph %q: calcGrad = %v, want %v", name, loaded.CalcGrad(), g.CalcGrad())
		}
	}
	for name, buf := range want.Buffers {
		loaded := got.Buffers[name]
		if len(loaded) != len(buf) {
			t.Fatalf("buffer %q: length %d, want %d", name, len(loaded), len(buf))
		}
		for i := range buf {
			if loaded[i] != buf[i] {
				t.Errorf("buffer %q[%d] = %v, want %v", name, i, loaded[i], buf[i])
			}
		}
	}
	if got.Metadata["criterion"] != "asg" {
		t.Errorf("metadata lost: %v", got.Metadata)
	}
	if got.Training == nil || got.Training.Step != 12 || got.Training.OptimizerConfig["lr"] != 0.5 {
		t.Errorf("training metadata lost: %+v", got.Training)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestRoundTrip_EmptyGraph(t *testing.T) {
	var buf bytes.Buffer
	c := &Checkpoint{Graphs: map[string]*graph.Graph{"empty": graph.New(false)}}
	if err := NewWriter(&buf).Write(c); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Read(&buf, ReaderOptions{})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if g := got.Graphs["empty"]; g == nil || g.NumNodes() != 0 || g.NumArcs() != 0 {
		t.Errorf("empty graph not preserved: %v", g)
	}
}

func encode(t *testing.T, c *Checkpoint) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := NewWriter(&buf).Write(c); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return buf.Bytes()
}

func TestLayout(t *testing.T) {
	data := encode(t, testCheckpoint(t))
	if string(data[0:4]) != MagicBytes {
		t.Fatalf("magic = %q", data[0:4])
	}
	flags := binary.LittleEndian.Uint32(data[8:12])
	want := FlagHasMetadata | FlagHasCheckpoint | FlagHasBuffers
	if flags != want {
		t.Errorf("flags = %b, want %b", flags, want)
	}
	headerSize := int64(binary.LittleEndian.Uint64(data[16:24]))
	dataSize := int64(binary.LittleEndian.Uint64(data[24:32]))
	start := FixedHeaderSize + headerSize + padding(headerSize)
	if start%DataAlignment != 0 {
		t.Errorf("data starts at %d, not aligned", start)
	}
	// 4 + 6 arc weights and 3 + 1 buffer floats.
	if dataSize != 14*8 || int64(len(data)) != start+dataSize {
		t.Errorf("data size %d, file size %d, data start %d", dataSize, len(data), start)
	}

	h, _, _, _, err := ReadHeader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadHeader failed: %v", err)
	}
	// Entries are written in name order.
	if h.Graphs[0].Name != "emissions.0" || h.Graphs[1].Name != "transitions" {
		t.Errorf("graph order = %s, %s", h.Graphs[0].Name, h.Graphs[1].Name)
	}
	if h.Graphs[1].Arcs[1] != [4]int{0, 1, 1, -1} {
		t.Errorf("arc 1 = %v", h.Graphs[1].Arcs[1])
	}
}

func TestChecksumMismatch(t *testing.T) {
	data := encode(t, testCheckpoint(t))
	data[len(data)-1] ^= 0xff

	_, err := Read(bytes.NewReader(data), ReaderOptions{})
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}

	if _, err := Read(bytes.NewReader(data), ReaderOptions{SkipChecksumValidation: true}); err != nil {
		t.Errorf("read without checksum validation failed: %v", err)
	}
}

func TestReadErrors(t *testing.T) {
	data := encode(t, testCheckpoint(t))

	badMagic := append([]byte(nil), data...)
	copy(badMagic, "BORN")
	if _, err := Read(bytes.NewReader(badMagic), ReaderOptions{}); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}

	badVersion := append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(badVersion[4:8], 9)
	if _, err := Read(bytes.NewReader(badVersion), ReaderOptions{}); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}

	hugeHeader := append([]byte(nil), data...)
	binary.LittleEndian.PutUint64(hugeHeader[16:24], MaxHeaderSize+1)
	if _, err := Read(bytes.NewReader(hugeHeader), ReaderOptions{}); !errors.Is(err, ErrHeaderTooLarge) {
		t.Errorf("expected ErrHeaderTooLarge, got %v", err)
	}

	if _, err := Read(bytes.NewReader(data[:len(data)-8]), ReaderOptions{}); err == nil {
		t.Error("expected error for truncated data")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.gtn")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteInvalidName(t *testing.T) {
	var buf bytes.Buffer
	c := &Checkpoint{Graphs: map[string]*graph.Graph{"../x": graph.New(false)}}
	if err := NewWriter(&buf).Write(c); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}

	c = &Checkpoint{
		Graphs:  map[string]*graph.Graph{"a": graph.New(false)},
		Buffers: map[string][]float64{"a": {1}},
	}
	if err := NewWriter(&buf).Write(c); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestWriterClosed(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "closed.gtn"))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(&Checkpoint{}); err == nil {
		t.Error("expected error writing to a closed writer")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}
}
