package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Vector is a fixed-length sequence of float32 components.
//
// The backing slice is never shared: NewVector copies its input and Data
// returns a copy, so a Vector is immutable once constructed.
type Vector struct {
	data []float32
}

// NewVector creates a Vector from a defensive copy of data.
func NewVector(data []float32) Vector {
	cp := make([]float32, len(data))
	copy(cp, data)
	return Vector{data: cp}
}

// Dim returns the number of components.
func (v Vector) Dim() int {
	return len(v.data)
}

// At returns the i-th component. Panics if i is out of range.
func (v Vector) At(i int) float32 {
	return v.data[i]
}

// Data returns a copy of the components.
func (v Vector) Data() []float32 {
	cp := make([]float32, len(v.data))
	copy(cp, v.data)
	return cp
}

// String renders the pgvector literal form, e.g. "[0.1,0.2,0.9]".
// Components use the shortest float32 representation that round-trips.
func (v Vector) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v.data {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// ParseVector parses the pgvector literal form produced by Vector.String.
// Whitespace around components is ignored; "[]" is the empty vector.
func ParseVector(s string) (Vector, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return Vector{}, fmt.Errorf("invalid vector literal %q", s)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return Vector{data: []float32{}}, nil
	}

	parts := strings.Split(body, ",")
	data := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return Vector{}, fmt.Errorf("invalid vector component %d in %q: %w", i, s, err)
		}
		data[i] = float32(f)
	}
	return Vector{data: data}, nil
}
