package serialization

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"transitions", false},
		{"emissions.0", false},
		{"m.3", false},
		{"", true},
		{"../etc/passwd", true},
		{"a/b", true},
		{`a\b`, true},
		{"a\x00b", true},
		{strings.Repeat("x", MaxEntryName+1), true},
	}
	for _, tt := range tests {
		err := ValidateName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateName(%.20q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%.20q) error %v is not ErrInvalidName", tt.name, err)
		}
	}
}

func TestValidateOffsets(t *testing.T) {
	ok := []region{{"a", 0, 16}, {"b", 16, 8}}
	if err := ValidateOffsets(ok, 24); err != nil {
		t.Errorf("valid regions rejected: %v", err)
	}

	overlap := []region{{"a", 0, 16}, {"b", 8, 8}}
	err := ValidateOffsets(overlap, 24)
	if !errors.Is(err, ErrOffsetOverlap) {
		t.Errorf("expected ErrOffsetOverlap, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Name2 != "b" {
		t.Errorf("overlap error does not name both entries: %v", err)
	}

	if err := ValidateOffsets([]region{{"a", 8, 24}}, 24); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if err := ValidateOffsets([]region{{"a", -8, 8}}, 24); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds for negative offset, got %v", err)
	}
}

func TestValidateGraph(t *testing.T) {
	valid := GraphMeta{Name: "g", Nodes: 2, Start: []int{0}, Accept: []int{1},
		Arcs: [][4]int{{0, 1, 3, -1}}, Size: 8}
	if err := ValidateGraph(&valid); err != nil {
		t.Fatalf("valid graph rejected: %v", err)
	}

	tests := map[string]func(m *GraphMeta){
		"negative nodes":  func(m *GraphMeta) { m.Nodes = -1 },
		"size mismatch":   func(m *GraphMeta) { m.Size = 16 },
		"start range":     func(m *GraphMeta) { m.Start = []int{2} },
		"accept range":    func(m *GraphMeta) { m.Accept = []int{-1} },
		"arc endpoint":    func(m *GraphMeta) { m.Arcs = [][4]int{{0, 5, 3, 3}} },
		"negative ilabel": func(m *GraphMeta) { m.Arcs = [][4]int{{0, 1, -2, 3}} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			m := valid
			m.Arcs = append([][4]int(nil), valid.Arcs...)
			mutate(&m)
			if err := ValidateGraph(&m); !errors.Is(err, ErrInvalidGraph) {
				t.Errorf("expected ErrInvalidGraph, got %v", err)
			}
		})
	}
}

func TestValidateHeader(t *testing.T) {
	h := &Header{
		Graphs:  []GraphMeta{{Name: "g", Nodes: 1, Start: []int{0}, Accept: []int{0}}},
		Buffers: []BufferMeta{{Name: "g", Offset: 0, Size: 8}},
	}
	if err := ValidateHeader(h, 8, ValidationStrict); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
	if err := ValidateHeader(h, 8, ValidationNone); err != nil {
		t.Errorf("ValidationNone returned %v", err)
	}

	h.Buffers[0].Name = "b"
	h.Buffers[0].Size = 12
	if err := ValidateHeader(h, 16, ValidationStrict); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds for partial float, got %v", err)
	}

	h.Buffers[0].Size = 16
	if err := ValidateHeader(h, 8, ValidationNormal); err != nil {
		t.Errorf("normal level checked offsets: %v", err)
	}
	if err := ValidateHeader(h, 8, ValidationStrict); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
}
