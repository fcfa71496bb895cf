package blockchain

import (
	"context"
	"strings"
	"testing"

	"abi-decoder/internal/infrastructure/config"
	"abi-decoder/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToEntityLogs(t *testing.T) {
	address := common.HexToAddress(testAddress)
	selector := common.HexToHash(transferEventSelector)
	txHash := common.HexToHash("0x" + strings.Repeat("ab", 32))

	logs := ToEntityLogs([]*types.Log{
		{
			Address:     address,
			Topics:      []common.Hash{selector},
			Data:        []byte{0x01, 0x02},
			BlockNumber: 18000000,
			TxHash:      txHash,
			Index:       3,
			Removed:     true,
		},
		nil,
	})

	require.Len(t, logs, 1)
	log := logs[0]
	assert.Equal(t, address.Hex(), log.Address)
	assert.Equal(t, []string{"0x" + transferEventSelector}, log.Topics)
	assert.Equal(t, "0x0102", log.Data)
	assert.Equal(t, "18000000", log.BlockNumber)
	assert.Equal(t, txHash.Hex(), log.TransactionHash)
	assert.Equal(t, uint(3), log.LogIndex)
	assert.True(t, log.Removed)
}

func TestValidTxHash(t *testing.T) {
	hash := "0x" + strings.Repeat("ab", common.HashLength)

	assert.True(t, validTxHash(hash))
	assert.True(t, validTxHash("0x"+strings.ToUpper(hash[2:])))
	assert.False(t, validTxHash(hash[2:]), "missing prefix")
	assert.False(t, validTxHash(hash[:64]), "short")
	assert.False(t, validTxHash(hash+"ab"), "long")
	assert.False(t, validTxHash(hash[:65]), "odd length")
	assert.False(t, validTxHash("0x"+strings.Repeat("zz", common.HashLength)), "non-hex")
	assert.False(t, validTxHash(""))
}

func TestEthereumClient_Disabled(t *testing.T) {
	client := NewEthereumClient(&config.EthereumConfig{Enabled: false}, logger.NewNopLogger())

	require.NoError(t, client.Connect(context.Background()))
	assert.False(t, client.Enabled())

	_, err := client.GetReceiptLogs(context.Background(), "0x"+strings.Repeat("ab", 32))
	assert.ErrorIs(t, err, ErrReceiptsDisabled)

	client.Close()
}
