package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"abi-decoder/internal/domain/entity"
	"abi-decoder/internal/domain/repository"
	"abi-decoder/internal/domain/service"
	"abi-decoder/internal/infrastructure/logger"
	"abi-decoder/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

var _ service.DecodingService = (*DecodingApplicationService)(nil)

// DecodingApplicationService implements DecodingService. It owns the decoder
// and serializes registry changes against concurrent decodes.
type DecodingApplicationService struct {
	mu       sync.RWMutex
	decoder  service.ABIDecoder
	repo     repository.DecodedRepository
	receipts service.ReceiptSource
	metrics  *metrics.DecoderMetrics
	logger   *logger.Logger
}

// NewDecodingApplicationService creates a new decoding application service.
// receipts may be nil when logs always arrive with the transaction.
func NewDecodingApplicationService(
	decoder service.ABIDecoder,
	repo repository.DecodedRepository,
	receipts service.ReceiptSource,
	decoderMetrics *metrics.DecoderMetrics,
	logger *logger.Logger,
) *DecodingApplicationService {
	return &DecodingApplicationService{
		decoder:  decoder,
		repo:     repo,
		receipts: receipts,
		metrics:  decoderMetrics,
		logger:   logger.WithComponent("decoding-service"),
	}
}

// RegisterABI registers items loaded at startup
func (s *DecodingApplicationService) RegisterABI(items []entity.InterfaceItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decoder.AddABI(items)
	s.updateSelectorGauge()
	s.logger.Info("Registered ABI items",
		zap.Int("items", len(items)),
		zap.Int("selectors", len(s.decoder.GetMethodIDs())))
}

// ApplyABICommand adds or removes ABI items at runtime
func (s *DecodingApplicationService) ApplyABICommand(ctx context.Context, cmd *entity.ABICommand) error {
	if cmd == nil {
		return fmt.Errorf("%w: nil ABI command", service.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch cmd.Action {
	case entity.ABICommandAdd:
		err = s.decoder.AddABIJSON(cmd.ABI)
	case entity.ABICommandRemove:
		err = s.decoder.RemoveABIJSON(cmd.ABI)
	default:
		return fmt.Errorf("%w: unknown ABI command action %q", service.ErrInvalidInput, cmd.Action)
	}
	if err != nil {
		s.logger.Error("Failed to apply ABI command",
			zap.String("action", string(cmd.Action)),
			zap.String("source", cmd.Source),
			zap.Error(err))
		return fmt.Errorf("failed to apply ABI command: %w", err)
	}

	s.observeABICommand(string(cmd.Action))
	s.updateSelectorGauge()
	s.logger.Info("Applied ABI command",
		zap.String("action", string(cmd.Action)),
		zap.String("source", cmd.Source),
		zap.Int("selectors", len(s.decoder.GetMethodIDs())))
	return nil
}

// DecodeTransaction decodes the call and logs of a transaction. When the
// transaction carries no logs they are fetched from the receipt source.
func (s *DecodingApplicationService) DecodeTransaction(ctx context.Context, tx *entity.Transaction) (*entity.DecodedTransaction, error) {
	logs := tx.Logs
	if len(logs) == 0 && s.receipts != nil && s.receipts.Enabled() {
		fetched, err := s.receipts.GetReceiptLogs(ctx, tx.Hash)
		if err != nil {
			s.logger.Warn("Failed to fetch receipt logs",
				zap.String("tx_hash", tx.Hash),
				zap.Error(err))
		} else {
			logs = fetched
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := &entity.DecodedTransaction{}
	var errs []error

	if tx.HasInput() {
		method, err := s.decoder.DecodeMethod(tx.Input, tx.Output)
		switch {
		case err != nil:
			s.observeCall(metrics.ResultError)
			errs = append(errs, fmt.Errorf("call: %w", err))
		case method == nil:
			s.observeCall(metrics.ResultUnknown)
		default:
			s.observeCall(metrics.ResultDecoded)
			result.Call = &entity.DecodedCallRecord{
				TxHash:          tx.Hash,
				ContractAddress: tx.To,
				From:            tx.From,
				BlockNumber:     tx.BlockNumber,
				Timestamp:       tx.Timestamp,
				Network:         tx.Network,
				Method:          method,
			}
		}
	}

	// Logs are decoded one by one so that one malformed log does not hide the others
	for _, log := range logs {
		if len(log.Topics) == 0 || log.Removed {
			continue
		}
		decoded, err := s.decoder.DecodeLog(log)
		switch {
		case err != nil:
			s.observeLog(metrics.ResultError)
			errs = append(errs, fmt.Errorf("log %d: %w", log.LogIndex, err))
		case decoded == nil:
			s.observeLog(metrics.ResultUnknown)
		default:
			s.observeLog(metrics.ResultDecoded)
			blockNumber := log.BlockNumber
			if blockNumber == "" {
				blockNumber = tx.BlockNumber
			}
			result.Events = append(result.Events, &entity.DecodedEventRecord{
				TxHash:      tx.Hash,
				LogIndex:    log.LogIndex,
				BlockNumber: blockNumber,
				Timestamp:   tx.Timestamp,
				Network:     tx.Network,
				Event:       decoded,
			})
		}
	}

	return result, errors.Join(errs...)
}

// ProcessTransaction decodes a transaction and persists the results
func (s *DecodingApplicationService) ProcessTransaction(ctx context.Context, tx *entity.Transaction) error {
	decoded, err := s.DecodeTransaction(ctx, tx)
	if err != nil {
		s.logger.Warn("Transaction decoded with errors",
			zap.String("tx_hash", tx.Hash),
			zap.Error(err))
	}

	if decoded.Call != nil {
		if err := s.repo.SaveDecodedCall(ctx, decoded.Call); err != nil {
			return fmt.Errorf("failed to save decoded call: %w", err)
		}
	}
	if len(decoded.Events) > 0 {
		if err := s.repo.SaveDecodedEvents(ctx, decoded.Events); err != nil {
			return fmt.Errorf("failed to save decoded events: %w", err)
		}
	}

	s.logger.Debug("Processed transaction",
		zap.String("tx_hash", tx.Hash),
		zap.Bool("call_decoded", decoded.Call != nil),
		zap.Int("events_decoded", len(decoded.Events)))
	return nil
}

// ProcessTransactionBatch decodes transactions and persists all results in one write.
// Decode errors are logged and do not fail the batch.
func (s *DecodingApplicationService) ProcessTransactionBatch(ctx context.Context, transactions []*entity.Transaction) error {
	s.logger.Info("Processing transaction batch", zap.Int("count", len(transactions)))

	batch := make([]*entity.DecodedTransaction, 0, len(transactions))
	calls, events := 0, 0
	for _, tx := range transactions {
		if tx == nil {
			continue
		}
		decoded, err := s.DecodeTransaction(ctx, tx)
		if err != nil {
			s.logger.Warn("Transaction decoded with errors",
				zap.String("tx_hash", tx.Hash),
				zap.Error(err))
		}
		if decoded.Call == nil && len(decoded.Events) == 0 {
			continue
		}
		if decoded.Call != nil {
			calls++
		}
		events += len(decoded.Events)
		batch = append(batch, decoded)
	}

	if len(batch) == 0 {
		s.logger.Debug("Nothing decoded in batch", zap.Int("count", len(transactions)))
		return nil
	}

	if err := s.repo.BatchSave(ctx, batch); err != nil {
		return fmt.Errorf("failed to save decoded batch: %w", err)
	}

	s.logger.Info("Successfully processed transaction batch",
		zap.Int("transactions", len(transactions)),
		zap.Int("calls_decoded", calls),
		zap.Int("events_decoded", events))
	return nil
}

func (s *DecodingApplicationService) observeCall(result string) {
	if s.metrics != nil {
		s.metrics.ObserveCall(result)
	}
}

func (s *DecodingApplicationService) observeLog(result string) {
	if s.metrics != nil {
		s.metrics.ObserveLog(result)
	}
}

func (s *DecodingApplicationService) observeABICommand(action string) {
	if s.metrics != nil {
		s.metrics.ObserveABICommand(action)
	}
}

func (s *DecodingApplicationService) updateSelectorGauge() {
	if s.metrics != nil {
		s.metrics.SetRegisteredSelectors(len(s.decoder.GetMethodIDs()))
	}
}
