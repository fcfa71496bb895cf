package service

import (
	"abi-decoder/internal/domain/entity"
)

// Hasher derives selectors from canonical signatures
type Hasher interface {
	// Keccak256Hex returns the 0x-prefixed hex digest of s
	Keccak256Hex(s string) string
}

// ParameterCodec decodes ABI-encoded payloads into values
type ParameterCodec interface {
	// DecodeParameters decodes data (hex, with or without 0x) against params.
	// The result holds one value per parameter, in order.
	DecodeParameters(params []entity.Parameter, data string) ([]entity.Value, error)
}

// ABIDecoder defines the interface for selector indexing and payload decoding
type ABIDecoder interface {
	// GetABIs returns every registered item in insertion order, duplicates included
	GetABIs() []entity.InterfaceItem

	// AddABI registers items and indexes the named ones by selector
	AddABI(items []entity.InterfaceItem)

	// RemoveABI drops the selectors computed from the items' raw input types
	RemoveABI(items []entity.InterfaceItem)

	// AddABIJSON registers items from a JSON array
	AddABIJSON(raw []byte) error

	// RemoveABIJSON removes items described by a JSON array
	RemoveABIJSON(raw []byte) error

	// GetMethodIDs returns the merged call and event selector view
	GetMethodIDs() map[string]entity.InterfaceItem

	// DecodeMethod decodes call input and optional output. A nil result means no match.
	DecodeMethod(input, output string) (*entity.DecodedMethod, error)

	// DecodeLog decodes a single log. A nil result means no match.
	DecodeLog(log entity.Log) (*entity.DecodedLog, error)

	// DecodeLogs decodes logs, dropping those without topics
	DecodeLogs(logs []entity.Log) ([]*entity.DecodedLog, error)
}
