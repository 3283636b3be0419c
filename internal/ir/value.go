package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a sealed interface representing a single table cell.
// Only Null, Int, Float, Text, Bool, and Vector implement this.
type Value interface {
	cellValue() // Sealed - only these types implement it
}

// Null represents SQL NULL.
// Using an explicit type ensures all cells satisfy the sealed interface.
type Null struct{}

func (Null) cellValue() {}

// Int represents an integer cell. Always int64 (the widest representation).
type Int int64

func (Int) cellValue() {}

// Float represents a floating-point cell.
type Float float64

func (Float) cellValue() {}

// Text represents a string cell.
type Text string

func (Text) cellValue() {}

// Bool represents a boolean cell.
type Bool bool

func (Bool) cellValue() {}

func (Vector) cellValue() {}

// IsNull reports whether v is SQL NULL (or a nil interface).
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// IsNumber reports whether v is an Int or a Float.
func IsNumber(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	default:
		return false
	}
}

// FormatValue renders a value for diagnostics and text output.
// Vectors use the pgvector literal form; NULL renders as "NULL".
func FormatValue(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "NULL"
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Text:
		return string(val)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Vector:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FromNative converts a decoded Go value into a cell of the declared type.
//
// Sources are YAML/CUE example documents and database/sql scans, so the
// accepted inputs are the types those decoders produce: integers of any
// width, float32/float64, json.Number, string, []byte, bool, and []any
// (vector components). nil always becomes Null.
//
// Under TypeUnknown the value keeps whatever class it arrived with.
func FromNative(v any, t Type) (Value, error) {
	if v == nil {
		return Null{}, nil
	}
	if val, ok := v.(Value); ok {
		return val, nil
	}

	switch t {
	case TypeInteger:
		return toInt(v)
	case TypeFloat:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case TypeText:
		switch s := v.(type) {
		case string:
			return Text(s), nil
		case []byte:
			return Text(s), nil
		default:
			return Text(fmt.Sprintf("%v", v)), nil
		}
	case TypeBoolean:
		return toBool(v)
	case TypeVector:
		return toVector(v)
	default:
		return inferValue(v)
	}
}

// inferValue classifies a native value without a declared type.
func inferValue(v any) (Value, error) {
	switch val := v.(type) {
	case string:
		return Text(val), nil
	case []byte:
		return Text(val), nil
	case bool:
		return Bool(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return Float(f), nil
	case []any, []float32, []float64:
		return toVector(v)
	default:
		return toInt(v)
	}
}

func toInt(v any) (Value, error) {
	switch val := v.(type) {
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return Int(val), nil
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("not an integer: %s", val)
		}
		return Int(i), nil
	case float64:
		if val != math.Trunc(val) {
			return nil, fmt.Errorf("not an integer: %v", val)
		}
		return Int(int64(val)), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", val)
		}
		return Int(i), nil
	case []byte:
		return toInt(string(val))
	default:
		return nil, fmt.Errorf("unsupported integer value: %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case json.Number:
		return val.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(val), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
	default:
		return 0, fmt.Errorf("unsupported float value: %T", v)
	}
}

func toBool(v any) (Value, error) {
	switch val := v.(type) {
	case bool:
		return Bool(val), nil
	case int64:
		return Bool(val != 0), nil
	case int:
		return Bool(val != 0), nil
	case string:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return nil, fmt.Errorf("not a boolean: %q", val)
		}
		return Bool(b), nil
	case []byte:
		return toBool(string(val))
	default:
		return nil, fmt.Errorf("unsupported boolean value: %T", v)
	}
}

func toVector(v any) (Value, error) {
	switch val := v.(type) {
	case Vector:
		return val, nil
	case []float32:
		return NewVector(val), nil
	case []float64:
		data := make([]float32, len(val))
		for i, f := range val {
			data[i] = float32(f)
		}
		return NewVector(data), nil
	case []any:
		data := make([]float32, len(val))
		for i, elem := range val {
			f, err := toFloat(elem)
			if err != nil {
				return nil, fmt.Errorf("vector[%d]: %w", i, err)
			}
			data[i] = float32(f)
		}
		return NewVector(data), nil
	case string:
		return ParseVector(val)
	case []byte:
		return ParseVector(string(val))
	default:
		return nil, fmt.Errorf("unsupported vector value: %T", v)
	}
}
