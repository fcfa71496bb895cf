package blockchain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"abi-decoder/internal/domain/entity"
	"abi-decoder/internal/domain/service"
	"abi-decoder/internal/infrastructure/config"
	"abi-decoder/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// ErrReceiptsDisabled is returned when receipts are requested without an RPC connection
var ErrReceiptsDisabled = errors.New("receipt fetching is disabled")

var _ service.ReceiptSource = (*EthereumClient)(nil)

// EthereumClient fetches transaction receipts over JSON-RPC
type EthereumClient struct {
	config *config.EthereumConfig
	client *ethclient.Client
	logger *logger.Logger
}

// NewEthereumClient creates a new Ethereum client. Connect must be called
// before receipts can be fetched.
func NewEthereumClient(cfg *config.EthereumConfig, logger *logger.Logger) *EthereumClient {
	return &EthereumClient{
		config: cfg,
		logger: logger.WithComponent("ethereum-client"),
	}
}

// Connect dials the configured RPC endpoint
func (ec *EthereumClient) Connect(ctx context.Context) error {
	if !ec.config.Enabled || ec.config.RPCURL == "" {
		ec.logger.Info("Receipt fetching is disabled, skipping RPC connection")
		return nil
	}

	ec.logger.Info("Connecting to Ethereum RPC", zap.String("url", ec.config.RPCURL))

	client, err := ethclient.DialContext(ctx, ec.config.RPCURL)
	if err != nil {
		ec.logger.Error("Failed to connect to Ethereum RPC", zap.Error(err))
		return fmt.Errorf("failed to connect to Ethereum RPC: %w", err)
	}

	ec.client = client
	return nil
}

// Close closes the RPC connection
func (ec *EthereumClient) Close() {
	if ec.client != nil {
		ec.client.Close()
		ec.client = nil
	}
}

// Enabled reports whether the client is connected
func (ec *EthereumClient) Enabled() bool {
	return ec.client != nil
}

// GetReceiptLogs returns the logs of the receipt for txHash
func (ec *EthereumClient) GetReceiptLogs(ctx context.Context, txHash string) ([]entity.Log, error) {
	if ec.client == nil {
		return nil, ErrReceiptsDisabled
	}
	if !validTxHash(txHash) {
		return nil, fmt.Errorf("invalid transaction hash %q", txHash)
	}

	if ec.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ec.config.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	receipt, err := ec.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receipt %s: %w", txHash, err)
	}

	ec.logger.Debug("Fetched receipt",
		zap.String("tx_hash", txHash),
		zap.Int("logs", len(receipt.Logs)),
		zap.Duration("elapsed", time.Since(start)))

	return ToEntityLogs(receipt.Logs), nil
}

// ToEntityLogs converts go-ethereum logs into decoder logs
func ToEntityLogs(logs []*types.Log) []entity.Log {
	out := make([]entity.Log, 0, len(logs))
	for _, l := range logs {
		if l == nil {
			continue
		}
		topics := make([]string, len(l.Topics))
		for i, t := range l.Topics {
			topics[i] = t.Hex()
		}
		out = append(out, entity.Log{
			Address:         l.Address.Hex(),
			Topics:          topics,
			Data:            hexutil.Encode(l.Data),
			BlockNumber:     strconv.FormatUint(l.BlockNumber, 10),
			TransactionHash: l.TxHash.Hex(),
			LogIndex:        l.Index,
			Removed:         l.Removed,
		})
	}
	return out
}

func validTxHash(s string) bool {
	b, err := hexutil.Decode(s)
	return err == nil && len(b) == common.HashLength
}
