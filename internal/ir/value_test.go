package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	// Verify all types implement Value (compile-time check via assignment)
	var _ Value = Null{}
	var _ Value = Int(42)
	var _ Value = Float(1.5)
	var _ Value = Text("test")
	var _ Value = Bool(true)
	var _ Value = NewVector([]float32{1, 2})
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(Null{}))
	assert.False(t, IsNull(Int(0)))
	assert.False(t, IsNull(Text("")))
}

func TestIsNumber(t *testing.T) {
	assert.True(t, IsNumber(Int(1)))
	assert.True(t, IsNumber(Float(1)))
	assert.False(t, IsNumber(Text("1")))
	assert.False(t, IsNumber(NewVector([]float32{1})))
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"null", Null{}, "NULL"},
		{"nil", nil, "NULL"},
		{"int", Int(-7), "-7"},
		{"float", Float(0.25), "0.25"},
		{"text", Text("blue-sofa"), "blue-sofa"},
		{"bool", Bool(true), "true"},
		{"vector", NewVector([]float32{0.1, 0.2, 0.9}), "[0.1,0.2,0.9]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatValue(tt.value))
		})
	}
}

func TestFromNative(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		typ      Type
		expected Value
	}{
		{"nil is null", nil, TypeInteger, Null{}},
		{"int to integer", 3, TypeInteger, Int(3)},
		{"int64 to integer", int64(3), TypeInteger, Int(3)},
		{"uint64 to integer", uint64(3), TypeInteger, Int(3)},
		{"whole float to integer", float64(4), TypeInteger, Int(4)},
		{"json number to integer", json.Number("12"), TypeInteger, Int(12)},
		{"int to float", 2, TypeFloat, Float(2)},
		{"float32 to float", float32(0.5), TypeFloat, Float(0.5)},
		{"string to text", "red-chair", TypeText, Text("red-chair")},
		{"bytes to text", []byte("abc"), TypeText, Text("abc")},
		{"bool to boolean", true, TypeBoolean, Bool(true)},
		{"int to boolean", int64(0), TypeBoolean, Bool(false)},
		{"any slice to vector", []any{0.1, 0.2, 1}, TypeVector, NewVector([]float32{0.1, 0.2, 1})},
		{"literal to vector", "[0.8,0.1,0.1]", TypeVector, NewVector([]float32{0.8, 0.1, 0.1})},
		{"bytes literal to vector", []byte("[1,2]"), TypeVector, NewVector([]float32{1, 2})},
		{"unknown keeps string", "x", TypeUnknown, Text("x")},
		{"unknown keeps int", int64(9), TypeUnknown, Int(9)},
		{"unknown keeps float", 1.5, TypeUnknown, Float(1.5)},
		{"value passes through", Text("v"), TypeInteger, Text("v")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromNative(tt.input, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFromNativeRejects(t *testing.T) {
	tests := []struct {
		name  string
		input any
		typ   Type
	}{
		{"fractional float to integer", 1.5, TypeInteger},
		{"text to integer", "abc", TypeInteger},
		{"text to boolean", "maybe", TypeBoolean},
		{"bad vector literal", "0.1,0.2", TypeVector},
		{"vector with text component", []any{0.1, "x"}, TypeVector},
		{"map to vector", map[string]any{}, TypeVector},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromNative(tt.input, tt.typ)
			assert.Error(t, err)
		})
	}
}

func TestVectorDefensiveCopy(t *testing.T) {
	src := []float32{0.1, 0.2, 0.9}
	v := NewVector(src)

	src[0] = 99
	assert.Equal(t, float32(0.1), v.At(0), "mutating the input must not affect the vector")

	out := v.Data()
	out[1] = 99
	assert.Equal(t, float32(0.2), v.At(1), "mutating the output must not affect the vector")
	assert.Equal(t, 3, v.Dim())
}

func TestVectorStringRoundTrip(t *testing.T) {
	v := NewVector([]float32{0.1, 0.2, 0.9})
	assert.Equal(t, "[0.1,0.2,0.9]", v.String())

	parsed, err := ParseVector(v.String())
	require.NoError(t, err)
	assert.Equal(t, v.Data(), parsed.Data())
}

func TestParseVector(t *testing.T) {
	v, err := ParseVector(" [ 1 , 2.5,-3 ] ")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2.5, -3}, v.Data())

	empty, err := ParseVector("[]")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Dim())

	_, err = ParseVector("1,2")
	assert.Error(t, err)
	_, err = ParseVector("[1,x]")
	assert.Error(t, err)
}
