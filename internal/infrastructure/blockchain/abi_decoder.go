package blockchain

import (
	"fmt"
	"strings"

	"abi-decoder/internal/domain/entity"
	"abi-decoder/internal/domain/service"
	"abi-decoder/internal/infrastructure/logger"

	"go.uber.org/zap"
)

const (
	// selectorEnd is the end of the 4-byte selector in 0x-prefixed call data
	selectorEnd = 2 + callSelectorHexLen

	// emptyOutput is returned by calls to functions that return nothing. Some
	// ERC20 tokens omit the bool from transfer, so it must not be decoded.
	emptyOutput = "0x"
)

var _ service.ABIDecoder = (*ABIDecoderService)(nil)

// ABIDecoderService implements service.ABIDecoder
type ABIDecoderService struct {
	index  *SelectorIndex
	codec  service.ParameterCodec
	logger *logger.Logger
}

// NewABIDecoderService creates a decoder with its own selector index
func NewABIDecoderService(hasher service.Hasher, codec service.ParameterCodec, logger *logger.Logger) *ABIDecoderService {
	if codec == nil {
		codec = NewABICodec()
	}
	return &ABIDecoderService{
		index:  NewSelectorIndex(hasher),
		codec:  codec,
		logger: logger.WithComponent("abi-decoder"),
	}
}

// NewDefaultABIDecoderService creates a decoder backed by Keccak-256 and go-ethereum's abi codec
func NewDefaultABIDecoderService(logger *logger.Logger) service.ABIDecoder {
	return NewABIDecoderService(NewKeccakHasher(), NewABICodec(), logger)
}

// GetABIs returns every registered item in insertion order
func (d *ABIDecoderService) GetABIs() []entity.InterfaceItem {
	return d.index.Items()
}

// AddABI registers items
func (d *ABIDecoderService) AddABI(items []entity.InterfaceItem) {
	d.index.Add(items)
	d.logger.Debug("Registered ABI items",
		zap.Int("items", len(items)),
		zap.Int("selectors", d.index.Len()))
}

// RemoveABI unregisters items
func (d *ABIDecoderService) RemoveABI(items []entity.InterfaceItem) {
	d.index.Remove(items)
	d.logger.Debug("Removed ABI items",
		zap.Int("items", len(items)),
		zap.Int("selectors", d.index.Len()))
}

// AddABIJSON registers the items of a JSON ABI document
func (d *ABIDecoderService) AddABIJSON(raw []byte) error {
	items, err := ParseABI(raw)
	if err != nil {
		return err
	}
	d.AddABI(items)
	return nil
}

// RemoveABIJSON unregisters the items of a JSON ABI document
func (d *ABIDecoderService) RemoveABIJSON(raw []byte) error {
	items, err := ParseABI(raw)
	if err != nil {
		return err
	}
	d.RemoveABI(items)
	return nil
}

// GetMethodIDs returns the merged selector map
func (d *ABIDecoderService) GetMethodIDs() map[string]entity.InterfaceItem {
	return d.index.MethodIDs()
}

// SelectorCount returns the number of indexed selectors
func (d *ABIDecoderService) SelectorCount() int {
	return d.index.Len()
}

// DecodeMethod decodes call data and, when given, the call's return data.
// An unknown selector yields a nil result and a nil error.
func (d *ABIDecoderService) DecodeMethod(input, output string) (*entity.DecodedMethod, error) {
	if len(input) < selectorEnd {
		return nil, nil
	}

	selector := input[2:selectorEnd]
	item, ok := d.index.LookupCall(selector)
	if !ok {
		d.logger.Debug("Unknown method selector", zap.String("selector", selector))
		return nil, nil
	}

	if item.Name == "" {
		return nil, fmt.Errorf("%w: missing abi item name for selector %s", service.ErrMalformedDescriptor, selector)
	}

	values, err := d.codec.DecodeParameters(item.Inputs, input[selectorEnd:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s inputs: %w", item.Name, err)
	}

	params, err := formatReturnData(item.Inputs, values)
	if err != nil {
		return nil, fmt.Errorf("failed to format %s inputs: %w", item.Name, err)
	}

	decoded := &entity.DecodedMethod{
		Name:   item.Name,
		Params: params,
	}

	if item.HasOutputs() && output != "" && output != emptyOutput {
		values, err := d.codec.DecodeParameters(item.Outputs, output)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s outputs: %w", item.Name, err)
		}
		decoded.Outputs, err = formatReturnData(item.Outputs, values)
		if err != nil {
			return nil, fmt.Errorf("failed to format %s outputs: %w", item.Name, err)
		}
	}

	d.logger.Debug("Decoded method",
		zap.String("selector", selector),
		zap.String("name", decoded.Name),
		zap.Int("params", len(decoded.Params)),
		zap.Int("outputs", len(decoded.Outputs)))

	return decoded, nil
}

// DecodeLog decodes a log whose first topic is a registered event selector.
// Logs without topics or with an unknown selector yield a nil result.
func (d *ABIDecoderService) DecodeLog(log entity.Log) (*entity.DecodedLog, error) {
	if len(log.Topics) == 0 {
		return nil, nil
	}

	selector := strings.TrimPrefix(log.Topics[0], "0x")
	item, ok := d.index.LookupEvent(selector)
	if !ok {
		d.logger.Debug("Unknown event selector",
			zap.String("selector", selector),
			zap.String("address", log.Address))
		return nil, nil
	}

	if indexed := item.IndexedInputs(); len(indexed) > len(log.Topics)-1 {
		return nil, fmt.Errorf("%w: %s has %d indexed inputs, log has %d topics",
			service.ErrMissingTopic, item.Name, len(indexed), len(log.Topics))
	}

	data, err := d.codec.DecodeParameters(item.NonIndexedInputs(), log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s data: %w", item.Name, err)
	}

	params := make([]entity.DecodedParam, 0, len(item.Inputs))
	dataIndex, topicIndex := 0, 1
	for _, input := range item.Inputs {
		var value entity.Value
		if input.Indexed {
			value = entity.Scalar(log.Topics[topicIndex])
			topicIndex++
		} else {
			value = data[dataIndex]
			dataIndex++
		}

		value, err = normalizeLogValue(input, value)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize %s.%s: %w", item.Name, input.Name, err)
		}

		params = append(params, entity.DecodedParam{
			Name:  input.Name,
			Type:  input.Type,
			Value: value,
		})
	}

	return &entity.DecodedLog{
		Name:    item.Name,
		Params:  params,
		Address: log.Address,
	}, nil
}

// DecodeLogs decodes logs in order. Logs without topics are dropped from the
// result; logs with an unknown selector keep their position as nil.
func (d *ABIDecoderService) DecodeLogs(logs []entity.Log) ([]*entity.DecodedLog, error) {
	decoded := make([]*entity.DecodedLog, 0, len(logs))
	for i, log := range logs {
		if len(log.Topics) == 0 {
			continue
		}
		result, err := d.DecodeLog(log)
		if err != nil {
			return nil, fmt.Errorf("failed to decode log %d: %w", i, err)
		}
		decoded = append(decoded, result)
	}
	return decoded, nil
}
