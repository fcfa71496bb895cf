package blockchain

import (
	"math/big"
	"strings"
	"testing"

	"abi-decoder/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "0x742d35Cc6B7d72F4B73A3623b498b9b3B8b2F6E0"

// word left-pads hex (without 0x) to one 32-byte ABI word
func word(hex string) string {
	return strings.Repeat("0", 64-len(hex)) + hex
}

func mustType(t *testing.T, typ string) abi.Type {
	t.Helper()
	out, err := abi.NewType(typ, "", nil)
	require.NoError(t, err)
	return out
}

func TestABICodec_DecodeElementaryTypes(t *testing.T) {
	args := abi.Arguments{
		{Type: mustType(t, "address")},
		{Type: mustType(t, "uint256")},
		{Type: mustType(t, "int256")},
		{Type: mustType(t, "bool")},
		{Type: mustType(t, "string")},
		{Type: mustType(t, "bytes")},
		{Type: mustType(t, "uint8")},
	}
	packed, err := args.Pack(
		common.HexToAddress(testAddress),
		big.NewInt(1000),
		big.NewInt(-5),
		true,
		"hello",
		[]byte{0xde, 0xad},
		uint8(7),
	)
	require.NoError(t, err)

	params := []entity.Parameter{
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "delta", Type: "int256"},
		{Name: "ok", Type: "bool"},
		{Name: "memo", Type: "string"},
		{Name: "blob", Type: "bytes"},
		{Name: "decimals", Type: "uint8"},
	}
	values, err := NewABICodec().DecodeParameters(params, hexutil.Encode(packed))
	require.NoError(t, err)
	require.Len(t, values, len(params))

	assert.Equal(t, common.HexToAddress(testAddress).Hex(), values[0].Text)
	assert.Equal(t, "1000", values[1].Text)
	assert.Equal(t, "-5", values[2].Text)
	assert.Equal(t, "true", values[3].Text)
	assert.Equal(t, "hello", values[4].Text)
	assert.Equal(t, "0xdead", values[5].Text)
	assert.Equal(t, "7", values[6].Text)
}

func TestABICodec_AcceptsDataWithoutPrefix(t *testing.T) {
	values, err := NewABICodec().DecodeParameters(
		[]entity.Parameter{{Name: "value", Type: "uint256"}},
		word("2a"),
	)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "42", values[0].Text)
}

func TestABICodec_DecodeArrays(t *testing.T) {
	args := abi.Arguments{{Type: mustType(t, "uint256[]")}, {Type: mustType(t, "bytes32")}}
	var hash [32]byte
	hash[31] = 0x01
	packed, err := args.Pack([]*big.Int{big.NewInt(1), big.NewInt(2)}, hash)
	require.NoError(t, err)

	values, err := NewABICodec().DecodeParameters(
		[]entity.Parameter{{Name: "ids", Type: "uint256[]"}, {Name: "root", Type: "bytes32"}},
		hexutil.Encode(packed),
	)
	require.NoError(t, err)

	assert.Equal(t, entity.ArrayValue, values[0].Kind)
	assert.Equal(t, "[1,2]", values[0].String())
	assert.Equal(t, "0x"+word("1"), values[1].Text)
}

func TestABICodec_DecodeTuple(t *testing.T) {
	params := []entity.Parameter{
		{Name: "order", Type: "tuple", Components: []entity.Parameter{
			{Name: "id", Type: "uint256"},
			{Name: "owner", Type: "address"},
		}},
	}
	data := "0x" + word("7") + word(strings.ToLower(testAddress[2:]))

	values, err := NewABICodec().DecodeParameters(params, data)
	require.NoError(t, err)
	require.Len(t, values, 1)

	order := values[0]
	assert.Equal(t, entity.TupleValue, order.Kind)
	assert.Equal(t, []string{"id", "owner"}, order.Fields)

	id, ok := order.Field("id")
	require.True(t, ok)
	assert.Equal(t, "7", id.Text)

	owner, ok := order.Field("owner")
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress(testAddress).Hex(), owner.Text)
}

func TestABICodec_DecodeTupleWithUnnamedComponents(t *testing.T) {
	params := []entity.Parameter{
		{Type: "tuple", Components: []entity.Parameter{
			{Type: "uint256"},
			{Type: "bool"},
		}},
	}

	values, err := NewABICodec().DecodeParameters(params, "0x"+word("5")+word("1"))
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "(5,true)", values[0].String())
}

func TestABICodec_Errors(t *testing.T) {
	codec := NewABICodec()
	uint256 := []entity.Parameter{{Name: "value", Type: "uint256"}}

	tests := []struct {
		name   string
		params []entity.Parameter
		data   string
	}{
		{name: "unknown type", params: []entity.Parameter{{Type: "foo"}}, data: "0x" + word("1")},
		{name: "invalid hex", params: uint256, data: "0xzz"},
		{name: "odd length", params: uint256, data: "0x123"},
		{name: "empty payload", params: uint256, data: "0x"},
		{name: "short payload", params: uint256, data: "0x01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.DecodeParameters(tt.params, tt.data)
			assert.Error(t, err)
		})
	}
}

func TestABICodec_NoParameters(t *testing.T) {
	values, err := NewABICodec().DecodeParameters(nil, "0x")
	require.NoError(t, err)
	assert.Empty(t, values)
}
