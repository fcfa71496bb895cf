package service

import (
	"context"

	"abi-decoder/internal/domain/entity"
)

// DecodingService defines the interface for the long-running decoding pipeline
type DecodingService interface {
	// ApplyABICommand adds or removes ABI items at runtime
	ApplyABICommand(ctx context.Context, cmd *entity.ABICommand) error

	// DecodeTransaction decodes the call and logs of a transaction without persisting
	DecodeTransaction(ctx context.Context, tx *entity.Transaction) (*entity.DecodedTransaction, error)

	// ProcessTransaction decodes a transaction and persists the results
	ProcessTransaction(ctx context.Context, tx *entity.Transaction) error

	// ProcessTransactionBatch decodes and persists multiple transactions
	ProcessTransactionBatch(ctx context.Context, transactions []*entity.Transaction) error
}

// ReceiptSource fetches the logs emitted by a transaction
type ReceiptSource interface {
	// Enabled reports whether receipts can be fetched
	Enabled() bool

	// GetReceiptLogs returns the logs of the receipt for txHash
	GetReceiptLogs(ctx context.Context, txHash string) ([]entity.Log, error)
}
