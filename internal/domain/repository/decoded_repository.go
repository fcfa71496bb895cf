package repository

import (
	"context"

	"abi-decoder/internal/domain/entity"
)

// DecodedRepository defines the interface for persisting decoded calls and events
type DecodedRepository interface {
	// SaveDecodedCall stores a decoded call
	SaveDecodedCall(ctx context.Context, call *entity.DecodedCallRecord) error

	// SaveDecodedEvents stores decoded events
	SaveDecodedEvents(ctx context.Context, events []*entity.DecodedEventRecord) error

	// BatchSave stores the results of several transactions in one write
	BatchSave(ctx context.Context, decoded []*entity.DecodedTransaction) error

	// GetEventsByName retrieves decoded events with the given name
	GetEventsByName(ctx context.Context, name string, limit int) ([]*entity.DecodedEventRecord, error)

	// GetCallsForContract retrieves decoded calls made to a contract
	GetCallsForContract(ctx context.Context, address string, limit int) ([]*entity.DecodedCallRecord, error)
}
