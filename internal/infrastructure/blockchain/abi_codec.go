package blockchain

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"abi-decoder/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ABICodec implements service.ParameterCodec on top of go-ethereum's abi package
type ABICodec struct{}

// NewABICodec creates a new ABI codec
func NewABICodec() *ABICodec {
	return &ABICodec{}
}

// DecodeParameters decodes data against params and converts the unpacked Go
// values into entity.Value trees
func (c *ABICodec) DecodeParameters(params []entity.Parameter, data string) ([]entity.Value, error) {
	args, err := toArguments(params)
	if err != nil {
		return nil, err
	}

	payload, err := hexutil.Decode("0x" + strings.TrimPrefix(data, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex payload: %w", err)
	}

	unpacked, err := args.UnpackValues(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack parameters: %w", err)
	}

	values := make([]entity.Value, len(unpacked))
	for i, raw := range unpacked {
		values[i], err = toValue(args[i].Type, raw, params[i].Components)
		if err != nil {
			return nil, fmt.Errorf("failed to convert parameter %d (%s): %w", i, params[i].Type, err)
		}
	}
	return values, nil
}

// toArguments builds abi.Arguments from parameters. Indexed flags are dropped:
// callers pass exactly the parameters present in the payload.
func toArguments(params []entity.Parameter) (abi.Arguments, error) {
	args := make(abi.Arguments, len(params))
	for i, p := range params {
		typ, err := abi.NewType(p.Type, p.InternalType, toMarshaling(p.Components))
		if err != nil {
			return nil, fmt.Errorf("invalid abi type %q: %w", p.Type, err)
		}
		args[i] = abi.Argument{Name: p.Name, Type: typ}
	}
	return args, nil
}

// toMarshaling converts components for abi.NewType. go-ethereum rejects
// anonymous tuple fields, so unnamed components get a positional name.
func toMarshaling(components []entity.Parameter) []abi.ArgumentMarshaling {
	if len(components) == 0 {
		return nil
	}
	out := make([]abi.ArgumentMarshaling, len(components))
	for i, c := range components {
		name := c.Name
		if strings.Trim(name, "_") == "" {
			name = "field" + strconv.Itoa(i)
		}
		out[i] = abi.ArgumentMarshaling{
			Name:         name,
			Type:         c.Type,
			InternalType: c.InternalType,
			Components:   toMarshaling(c.Components),
		}
	}
	return out
}

func toValue(t abi.Type, raw interface{}, components []entity.Parameter) (entity.Value, error) {
	switch t.T {
	case abi.IntTy, abi.UintTy:
		if n, ok := raw.(*big.Int); ok {
			return entity.Scalar(n.String()), nil
		}
		return entity.Scalar(fmt.Sprint(raw)), nil
	case abi.BoolTy:
		b, ok := raw.(bool)
		if !ok {
			return entity.Value{}, fmt.Errorf("unexpected bool value %T", raw)
		}
		return entity.Scalar(strconv.FormatBool(b)), nil
	case abi.StringTy:
		s, ok := raw.(string)
		if !ok {
			return entity.Value{}, fmt.Errorf("unexpected string value %T", raw)
		}
		return entity.Scalar(s), nil
	case abi.AddressTy:
		addr, ok := raw.(common.Address)
		if !ok {
			return entity.Value{}, fmt.Errorf("unexpected address value %T", raw)
		}
		return entity.Scalar(addr.Hex()), nil
	case abi.BytesTy:
		b, ok := raw.([]byte)
		if !ok {
			return entity.Value{}, fmt.Errorf("unexpected bytes value %T", raw)
		}
		return entity.Scalar(hexutil.Encode(b)), nil
	case abi.FixedBytesTy, abi.HashTy, abi.FunctionTy:
		rv := reflect.ValueOf(raw)
		if rv.Kind() != reflect.Array && rv.Kind() != reflect.Slice {
			return entity.Value{}, fmt.Errorf("unexpected fixed bytes value %T", raw)
		}
		buf := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(buf), rv)
		return entity.Scalar(hexutil.Encode(buf)), nil
	case abi.SliceTy, abi.ArrayTy:
		rv := reflect.ValueOf(raw)
		elems := make([]entity.Value, rv.Len())
		for i := range elems {
			v, err := toValue(*t.Elem, rv.Index(i).Interface(), components)
			if err != nil {
				return entity.Value{}, err
			}
			elems[i] = v
		}
		return entity.Array(elems...), nil
	case abi.TupleTy:
		rv := reflect.Indirect(reflect.ValueOf(raw))
		if rv.Kind() != reflect.Struct {
			return entity.Value{}, fmt.Errorf("unexpected tuple value %T", raw)
		}
		names := make([]string, len(t.TupleElems))
		elems := make([]entity.Value, len(t.TupleElems))
		for i, et := range t.TupleElems {
			var nested []entity.Parameter
			if i < len(components) {
				names[i] = components[i].Name
				nested = components[i].Components
			} else {
				names[i] = t.TupleRawNames[i]
			}
			v, err := toValue(*et, rv.Field(i).Interface(), nested)
			if err != nil {
				return entity.Value{}, err
			}
			elems[i] = v
		}
		return entity.Tuple(names, elems...), nil
	default:
		return entity.Scalar(fmt.Sprint(raw)), nil
	}
}
