package blockchain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"abi-decoder/internal/domain/entity"
	"abi-decoder/internal/domain/service"
)

// ParseABI parses a JSON ABI document. The document is either an array of
// items or a compiler artifact object carrying the array under "abi".
func ParseABI(raw []byte) ([]entity.InterfaceItem, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: expected ABI array, got empty document", service.ErrInvalidInput)
	}

	switch trimmed[0] {
	case '[':
		var items []entity.InterfaceItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to parse ABI array: %w", err)
		}
		return items, nil
	case '{':
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(trimmed, &artifact); err != nil {
			return nil, fmt.Errorf("failed to parse ABI artifact: %w", err)
		}
		abiRaw := bytes.TrimSpace(artifact.ABI)
		if len(abiRaw) == 0 || abiRaw[0] != '[' {
			return nil, fmt.Errorf("%w: expected ABI array, got object", service.ErrInvalidInput)
		}
		return ParseABI(abiRaw)
	default:
		return nil, fmt.Errorf("%w: expected ABI array, got %s", service.ErrInvalidInput, jsonKind(trimmed[0]))
	}
}

// LoadABIFile reads and parses one ABI file
func LoadABIFile(path string) ([]entity.InterfaceItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ABI file %s: %w", path, err)
	}
	items, err := ParseABI(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to load ABI file %s: %w", path, err)
	}
	return items, nil
}

// LoadABIFiles loads the given files followed by every *.json file of the
// given directories (sorted by name)
func LoadABIFiles(files []string, dirs []string) ([]entity.InterfaceItem, error) {
	paths := append([]string(nil), files...)
	for _, dir := range dirs {
		matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("failed to scan ABI directory %s: %w", dir, err)
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}

	var items []entity.InterfaceItem
	for _, path := range paths {
		loaded, err := LoadABIFile(path)
		if err != nil {
			return nil, err
		}
		items = append(items, loaded...)
	}
	return items, nil
}

func jsonKind(first byte) string {
	switch first {
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
