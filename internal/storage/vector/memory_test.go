package vector

import (
	"testing"
)

func TestMemoryIndex_Add_Search(t *testing.T) {
	idx := NewMemoryIndex(0)
	err := idx.Add(
		&Vector{ID: "v1", Values: []float64{1, 0}, Metadata: map[string]string{"filename": "a.pdf"}},
		&Vector{ID: "v2", Values: []float64{0, 1}},
		&Vector{ID: "v3", Values: []float64{1, 1}},
	)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if idx.Len() != 3 {
		t.Fatalf("Len = %d", idx.Len())
	}
	results, err := idx.Search([]float64{1, 0}, 2, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search: expected 2 results, got %d", len(results))
	}
	if results[0].ID != "v1" || results[1].ID != "v3" {
		t.Errorf("Search order = %s, %s", results[0].ID, results[1].ID)
	}
	if results[0].Metadata["filename"] != "a.pdf" {
		t.Errorf("metadata lost: %v", results[0].Metadata)
	}
}

func TestMemoryIndex_Threshold(t *testing.T) {
	idx := NewMemoryIndex(2)
	_ = idx.Add(&Vector{ID: "v1", Values: []float64{1, 0}}, &Vector{ID: "v2", Values: []float64{0, 1}})
	results, err := idx.Search([]float64{1, 0}, 10, 0.5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "v1" {
		t.Errorf("threshold not applied: %+v", results)
	}
}

func TestMemoryIndex_DimensionMismatch(t *testing.T) {
	idx := NewMemoryIndex(2)
	if err := idx.Add(&Vector{ID: "v1", Values: []float64{1, 0, 0}}); err == nil {
		t.Error("Add with wrong dimension should error")
	}
	_ = idx.Add(&Vector{ID: "v1", Values: []float64{1, 0}})
	if _, err := idx.Search([]float64{1}, 1, 0); err == nil {
		t.Error("Search with wrong dimension should error")
	}
}

func TestMemoryIndex_Empty(t *testing.T) {
	results, err := NewMemoryIndex(0).Search([]float64{1}, 3, 0)
	if err != nil || len(results) != 0 {
		t.Errorf("empty index: %v %v", results, err)
	}
}

func TestCosine(t *testing.T) {
	if got := Cosine([]float64{1, 0}, []float64{0, 0}); got != 0 {
		t.Errorf("zero vector = %v", got)
	}
	if got := Cosine([]float64{2, 0}, []float64{5, 0}); got != 1 {
		t.Errorf("parallel = %v", got)
	}
}
