package database

import (
	"context"
	"testing"
	"time"

	"abi-decoder/internal/domain/entity"
	"abi-decoder/internal/infrastructure/config"
	"abi-decoder/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var blockTime = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

func sampleCall() *entity.DecodedCallRecord {
	return &entity.DecodedCallRecord{
		TxHash:          "0xabc",
		ContractAddress: "0xA0b86a33E6411dD02d5bB2BB4CB4ecEC4f5C87c6",
		From:            "0xF39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		BlockNumber:     "18000000",
		Timestamp:       blockTime,
		Network:         "ethereum",
		Method: &entity.DecodedMethod{
			Name: "transfer",
			Params: []entity.DecodedParam{
				{Name: "to", Type: "address", Value: entity.Scalar("0x742d35cc6b7d72f4b73a3623b498b9b3b8b2f6e0")},
				{Name: "value", Type: "uint256", Value: entity.Scalar("1000")},
			},
			Outputs: []entity.DecodedParam{{Type: "bool", Value: entity.Scalar("true")}},
		},
	}
}

func sampleEvent() *entity.DecodedEventRecord {
	return &entity.DecodedEventRecord{
		TxHash:      "0xabc",
		LogIndex:    4,
		BlockNumber: "18000000",
		Timestamp:   blockTime,
		Network:     "ethereum",
		Event: &entity.DecodedLog{
			Name:    "Transfer",
			Address: "0xA0b86a33E6411dD02d5bB2BB4CB4ecEC4f5C87c6",
			Params: []entity.DecodedParam{
				{Name: "value", Type: "uint256", Value: entity.Scalar("1000")},
			},
		},
	}
}

func TestCallRecordParams(t *testing.T) {
	params, err := callRecordParams([]*entity.DecodedCallRecord{sampleCall(), nil, {TxHash: "0xnomethod"}})
	require.NoError(t, err)
	require.Len(t, params, 1)

	p := params[0]
	assert.Equal(t, "0xabc", p["tx_hash"])
	assert.Equal(t, "0xa0b86a33e6411dd02d5bb2bb4cb4ecec4f5c87c6", p["contract_address"])
	assert.Equal(t, "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", p["from"])
	assert.Equal(t, "2024-03-01T12:30:00.000Z", p["timestamp"])
	assert.Equal(t, "transfer", p["method"])
	assert.JSONEq(t, `[{"name":"to","type":"address","value":"0x742d35cc6b7d72f4b73a3623b498b9b3b8b2f6e0"},{"name":"value","type":"uint256","value":"1000"}]`, p["params"].(string))
	assert.JSONEq(t, `[{"name":"","type":"bool","value":"true"}]`, p["outputs"].(string))
}

func TestCallRecordParams_NoOutputs(t *testing.T) {
	call := sampleCall()
	call.Method.Outputs = nil

	params, err := callRecordParams([]*entity.DecodedCallRecord{call})
	require.NoError(t, err)
	assert.Equal(t, "", params[0]["outputs"])
}

func TestEventRecordParams(t *testing.T) {
	params, err := eventRecordParams([]*entity.DecodedEventRecord{sampleEvent(), {TxHash: "0xnoevent"}})
	require.NoError(t, err)
	require.Len(t, params, 1)

	p := params[0]
	assert.Equal(t, int64(4), p["log_index"])
	assert.Equal(t, "0xa0b86a33e6411dd02d5bb2bb4cb4ecec4f5c87c6", p["address"])
	assert.Equal(t, "Transfer", p["name"])
	assert.Equal(t, int64(18000000), p["block_number"])
}

func TestParseBlockNumber(t *testing.T) {
	assert.Equal(t, int64(18000000), parseBlockNumber("18000000"))
	assert.Equal(t, int64(18000000), parseBlockNumber("0x112a880"))
	assert.Equal(t, int64(0), parseBlockNumber(""))
	assert.Equal(t, int64(0), parseBlockNumber("latest"))
	assert.Equal(t, int64(0), parseBlockNumber("18446744073709551615"))

	// Stored values must order numerically, not as text
	assert.Less(t, parseBlockNumber("999999"), parseBlockNumber("1000000"))
}

func TestCallRecordParams_BlockNumberIsInteger(t *testing.T) {
	call := sampleCall()
	call.BlockNumber = "0x10"

	params, err := callRecordParams([]*entity.DecodedCallRecord{call})
	require.NoError(t, err)
	assert.Equal(t, int64(16), params[0]["block_number"])
}

func TestBlockNumberValue(t *testing.T) {
	assert.Equal(t, "18000000", blockNumberValue(int64(18000000)))
	assert.Equal(t, "17999999", blockNumberValue("17999999"))
	assert.Equal(t, "", blockNumberValue(nil))
}

func TestRecordToEvent(t *testing.T) {
	params, err := eventRecordParams([]*entity.DecodedEventRecord{sampleEvent()})
	require.NoError(t, err)

	event, err := recordToEvent(params[0])
	require.NoError(t, err)

	assert.Equal(t, "0xabc", event.TxHash)
	assert.Equal(t, uint(4), event.LogIndex)
	assert.Equal(t, "18000000", event.BlockNumber)
	assert.True(t, blockTime.Equal(event.Timestamp))
	assert.Equal(t, "Transfer", event.Event.Name)
	assert.Equal(t, "0xa0b86a33e6411dd02d5bb2bb4cb4ecec4f5c87c6", event.Event.Address)
	require.Len(t, event.Event.Params, 1)
	assert.Equal(t, "1000", event.Event.Params[0].Value.Text)
}

func TestRecordToCall(t *testing.T) {
	params, err := callRecordParams([]*entity.DecodedCallRecord{sampleCall()})
	require.NoError(t, err)

	call, err := recordToCall(params[0])
	require.NoError(t, err)

	assert.Equal(t, "transfer", call.Method.Name)
	assert.Len(t, call.Method.Params, 2)
	assert.Len(t, call.Method.Outputs, 1)
	assert.Equal(t, "18000000", call.BlockNumber)
}

func TestRecordToCall_InvalidParams(t *testing.T) {
	_, err := recordToCall(map[string]any{"method": "transfer", "params": "{not json"})
	assert.Error(t, err)
}

func TestParseTimestamp_Invalid(t *testing.T) {
	assert.True(t, parseTimestamp("yesterday").IsZero())
}

func TestNeo4JDecodedRepository_NotConnected(t *testing.T) {
	client := NewNeo4JClient(&config.Neo4JConfig{Enabled: false}, logger.NewNopLogger())
	require.NoError(t, client.Connect(context.Background()))
	repo := NewNeo4JDecodedRepository(client, logger.NewNopLogger())
	ctx := context.Background()

	assert.ErrorIs(t, repo.SaveDecodedCall(ctx, sampleCall()), ErrNotConnected)
	assert.ErrorIs(t, repo.SaveDecodedEvents(ctx, []*entity.DecodedEventRecord{sampleEvent()}), ErrNotConnected)

	// nothing to write never touches the driver
	assert.NoError(t, repo.BatchSave(ctx, []*entity.DecodedTransaction{{}}))
	assert.NoError(t, repo.SaveDecodedCall(ctx, nil))

	_, err := repo.GetEventsByName(ctx, "Transfer", 10)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, client.IsConnected(ctx))
}
