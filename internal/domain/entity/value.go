package entity

import (
	"encoding/json"
	"strings"
)

// ValueKind tags the shape of a decoded value
type ValueKind int

const (
	// ScalarValue holds a single textual value (number, address, bool, bytes, string)
	ScalarValue ValueKind = iota
	// ArrayValue holds the elements of a fixed or dynamic array
	ArrayValue
	// TupleValue holds the components of a tuple in declaration order
	TupleValue
)

// String returns the kind name
func (k ValueKind) String() string {
	switch k {
	case ScalarValue:
		return "scalar"
	case ArrayValue:
		return "array"
	case TupleValue:
		return "tuple"
	default:
		return "unknown"
	}
}

// Value is a decoded ABI value
type Value struct {
	Kind   ValueKind
	Text   string
	Elems  []Value
	Fields []string
}

// Scalar creates a scalar value
func Scalar(text string) Value {
	return Value{Kind: ScalarValue, Text: text}
}

// Array creates an array value
func Array(elems ...Value) Value {
	return Value{Kind: ArrayValue, Elems: elems}
}

// Tuple creates a tuple value. names may be nil for positional tuples.
func Tuple(names []string, elems ...Value) Value {
	return Value{Kind: TupleValue, Elems: elems, Fields: names}
}

// IsScalar reports whether v is a scalar
func (v Value) IsScalar() bool {
	return v.Kind == ScalarValue
}

// Field returns the tuple component with the given name
func (v Value) Field(name string) (Value, bool) {
	if v.Kind != TupleValue {
		return Value{}, false
	}
	for i, f := range v.Fields {
		if f == name && i < len(v.Elems) {
			return v.Elems[i], true
		}
	}
	return Value{}, false
}

// String renders the value the way it would appear inside a signature-like listing
func (v Value) String() string {
	switch v.Kind {
	case ScalarValue:
		return v.Text
	case ArrayValue, TupleValue:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = e.String()
		}
		if v.Kind == TupleValue {
			return "(" + strings.Join(parts, ",") + ")"
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return ""
	}
}

// MarshalJSON encodes scalars as strings and arrays/tuples as nested arrays
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == ScalarValue {
		return json.Marshal(v.Text)
	}
	elems := v.Elems
	if elems == nil {
		elems = []Value{}
	}
	return json.Marshal(elems)
}

// UnmarshalJSON is the inverse of MarshalJSON. Tuples come back as arrays.
func (v *Value) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*v = Scalar(text)
		return nil
	}
	var elems []Value
	if err := json.Unmarshal(data, &elems); err != nil {
		return err
	}
	*v = Array(elems...)
	return nil
}
