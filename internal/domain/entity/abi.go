package entity

// ItemType is the kind of an ABI item
type ItemType string

const (
	ItemFunction    ItemType = "function"
	ItemConstructor ItemType = "constructor"
	ItemEvent       ItemType = "event"
	ItemFallback    ItemType = "fallback"
	ItemReceive     ItemType = "receive"
	ItemError       ItemType = "error"
)

// TupleType is the only type whose components take part in the canonical signature
const TupleType = "tuple"

// Parameter represents one input or output of an ABI item
type Parameter struct {
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	InternalType string      `json:"internalType,omitempty"`
	Indexed      bool        `json:"indexed,omitempty"`
	Components   []Parameter `json:"components,omitempty"`
}

// InterfaceItem represents a single ABI descriptor (function, event, constructor, fallback)
type InterfaceItem struct {
	Type            ItemType    `json:"type"`
	Name            string      `json:"name,omitempty"`
	Inputs          []Parameter `json:"inputs,omitempty"`
	Outputs         []Parameter `json:"outputs,omitempty"`
	Anonymous       bool        `json:"anonymous,omitempty"`
	StateMutability string      `json:"stateMutability,omitempty"`
	Constant        bool        `json:"constant,omitempty"`
	Payable         bool        `json:"payable,omitempty"`
}

// IsEvent reports whether the item lives in the event selector keyspace
func (i InterfaceItem) IsEvent() bool {
	return i.Type == ItemEvent
}

// HasOutputs reports whether the item declares return values
func (i InterfaceItem) HasOutputs() bool {
	return len(i.Outputs) > 0
}

// IndexedInputs returns the indexed event inputs in declaration order
func (i InterfaceItem) IndexedInputs() []Parameter {
	var out []Parameter
	for _, p := range i.Inputs {
		if p.Indexed {
			out = append(out, p)
		}
	}
	return out
}

// NonIndexedInputs returns the inputs carried in the log data blob, in declaration order
func (i InterfaceItem) NonIndexedInputs() []Parameter {
	var out []Parameter
	for _, p := range i.Inputs {
		if !p.Indexed {
			out = append(out, p)
		}
	}
	return out
}
