package blockchain

import (
	"fmt"
	"math/big"
	"strings"

	"abi-decoder/internal/domain/entity"
	"abi-decoder/internal/domain/service"
)

// addressHexLen is the length of "0x" followed by 40 hex characters
const addressHexLen = 42

// formatReturnData pairs decoded call values with their parameters and
// normalizes them by type prefix: uint*/int* become decimal strings and
// address* values are lowercased. Tuples are normalized through their components.
func formatReturnData(params []entity.Parameter, values []entity.Value) ([]entity.DecodedParam, error) {
	out := make([]entity.DecodedParam, 0, len(values))
	for i, v := range values {
		if i >= len(params) {
			break
		}
		p := params[i]
		normalized, err := formatCallValue(p, v)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		out = append(out, entity.DecodedParam{Name: p.Name, Type: p.Type, Value: normalized})
	}
	return out, nil
}

func formatCallValue(p entity.Parameter, v entity.Value) (entity.Value, error) {
	switch {
	case strings.HasPrefix(p.Type, "uint"), strings.HasPrefix(p.Type, "int"):
		return normalizeNumber(v)
	case strings.HasPrefix(p.Type, "address"):
		return lowercaseValue(v), nil
	case strings.HasPrefix(p.Type, entity.TupleType):
		return formatTupleValue(p.Components, v)
	default:
		return v, nil
	}
}

// formatTupleValue walks a tuple, or an array of tuples, applying the call
// formatter to every component
func formatTupleValue(components []entity.Parameter, v entity.Value) (entity.Value, error) {
	switch v.Kind {
	case entity.ArrayValue:
		elems := make([]entity.Value, len(v.Elems))
		for i, e := range v.Elems {
			n, err := formatTupleValue(components, e)
			if err != nil {
				return entity.Value{}, err
			}
			elems[i] = n
		}
		return entity.Array(elems...), nil
	case entity.TupleValue:
		elems := make([]entity.Value, len(v.Elems))
		for i, e := range v.Elems {
			if i >= len(components) {
				elems[i] = e
				continue
			}
			n, err := formatCallValue(components[i], e)
			if err != nil {
				return entity.Value{}, err
			}
			elems[i] = n
		}
		return entity.Tuple(v.Fields, elems...), nil
	default:
		return v, nil
	}
}

// normalizeLogValue applies the event normalization rules, which match the
// exact types address, uint256, uint8 and int only
func normalizeLogValue(p entity.Parameter, v entity.Value) (entity.Value, error) {
	switch p.Type {
	case "address":
		if !v.IsScalar() {
			return lowercaseValue(v), nil
		}
		return entity.Scalar(trimPaddedAddress(strings.ToLower(v.Text))), nil
	case "uint256", "uint8", "int":
		return normalizeNumber(v)
	default:
		return v, nil
	}
}

// trimPaddedAddress drops the zero padding of a topic-encoded address by
// removing the excess characters that follow the 0x prefix
func trimPaddedAddress(s string) string {
	if len(s) <= addressHexLen {
		return s
	}
	return s[:2] + s[len(s)-(addressHexLen-2):]
}

// normalizeNumber renders numbers as base-10 strings. Text starting with 0x is
// read as base 16, anything else as base 10. Arrays are mapped element-wise.
func normalizeNumber(v entity.Value) (entity.Value, error) {
	if v.Kind != entity.ScalarValue {
		elems := make([]entity.Value, len(v.Elems))
		for i, e := range v.Elems {
			n, err := normalizeNumber(e)
			if err != nil {
				return entity.Value{}, err
			}
			elems[i] = n
		}
		return entity.Value{Kind: v.Kind, Elems: elems, Fields: v.Fields}, nil
	}

	text, base := v.Text, 10
	if strings.HasPrefix(text, "0x") {
		text, base = text[2:], 16
		if text == "" {
			return entity.Scalar("0"), nil
		}
	}
	n, ok := new(big.Int).SetString(text, base)
	if !ok {
		return entity.Value{}, fmt.Errorf("%w: %q", service.ErrInvalidNumber, v.Text)
	}
	return entity.Scalar(n.String()), nil
}

func lowercaseValue(v entity.Value) entity.Value {
	if v.Kind == entity.ScalarValue {
		return entity.Scalar(strings.ToLower(v.Text))
	}
	elems := make([]entity.Value, len(v.Elems))
	for i, e := range v.Elems {
		elems[i] = lowercaseValue(e)
	}
	return entity.Value{Kind: v.Kind, Elems: elems, Fields: v.Fields}
}
