package blockchain

import (
	"strings"

	"abi-decoder/internal/domain/entity"
	"abi-decoder/internal/domain/service"
)

// callSelectorHexLen is the hex length of a 4-byte function selector
const callSelectorHexLen = 8

// SelectorIndex maps selectors to ABI items. Function selectors (4 bytes) and
// event selectors (32 bytes) live in separate maps.
//
// SelectorIndex is not safe for concurrent mutation; callers that share one
// across goroutines must serialize Add and Remove themselves.
type SelectorIndex struct {
	hasher service.Hasher
	items  []entity.InterfaceItem
	calls  map[string]entity.InterfaceItem
	events map[string]entity.InterfaceItem
}

// NewSelectorIndex creates an empty selector index
func NewSelectorIndex(hasher service.Hasher) *SelectorIndex {
	if hasher == nil {
		hasher = NewKeccakHasher()
	}
	return &SelectorIndex{
		hasher: hasher,
		calls:  make(map[string]entity.InterfaceItem),
		events: make(map[string]entity.InterfaceItem),
	}
}

// Items returns every registered item in insertion order
func (idx *SelectorIndex) Items() []entity.InterfaceItem {
	out := make([]entity.InterfaceItem, len(idx.items))
	copy(out, idx.items)
	return out
}

// Add indexes the named items and appends all of them to the item list.
// A later item with the same selector replaces the earlier one.
func (idx *SelectorIndex) Add(items []entity.InterfaceItem) {
	for _, item := range items {
		if item.Name == "" {
			continue
		}
		idx.put(item, idx.digest(Signature(item.Name, item.Inputs)))
	}
	idx.items = append(idx.items, items...)
}

// Remove deletes the selectors of the named items. The key is computed from
// the raw input types only, so tuple-bearing items registered with their
// expanded signature are not removed by a descriptor of the same shape.
func (idx *SelectorIndex) Remove(items []entity.InterfaceItem) {
	for _, item := range items {
		if item.Name == "" {
			continue
		}
		digest := idx.digest(ShallowSignature(item.Name, item.Inputs))
		if item.IsEvent() {
			delete(idx.events, digest)
		} else {
			delete(idx.calls, digest[:callSelectorHexLen])
		}
	}
}

// MethodIDs returns a merged copy of the call and event selector maps
func (idx *SelectorIndex) MethodIDs() map[string]entity.InterfaceItem {
	out := make(map[string]entity.InterfaceItem, len(idx.calls)+len(idx.events))
	for k, v := range idx.calls {
		out[k] = v
	}
	for k, v := range idx.events {
		out[k] = v
	}
	return out
}

// LookupCall resolves an 8-hex-char function selector
func (idx *SelectorIndex) LookupCall(selector string) (entity.InterfaceItem, bool) {
	item, ok := idx.calls[strings.ToLower(selector)]
	return item, ok
}

// LookupEvent resolves a 64-hex-char event selector
func (idx *SelectorIndex) LookupEvent(selector string) (entity.InterfaceItem, bool) {
	item, ok := idx.events[strings.ToLower(selector)]
	return item, ok
}

// Len returns the number of indexed selectors across both keyspaces
func (idx *SelectorIndex) Len() int {
	return len(idx.calls) + len(idx.events)
}

func (idx *SelectorIndex) put(item entity.InterfaceItem, digest string) {
	if item.IsEvent() {
		idx.events[digest] = item
		return
	}
	idx.calls[digest[:callSelectorHexLen]] = item
}

// digest hashes a signature and strips the 0x prefix
func (idx *SelectorIndex) digest(signature string) string {
	return strings.TrimPrefix(idx.hasher.Keccak256Hex(signature), "0x")
}
