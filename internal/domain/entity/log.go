package entity

// Log represents an event log record as emitted by a contract
type Log struct {
	// Address is the contract that emitted the log
	Address string `json:"address"`
	// Topics holds zero to four 32-byte hex words. For non-anonymous events
	// topic 0 is the event selector.
	Topics []string `json:"topics"`
	// Data holds the ABI-encoded non-indexed arguments
	Data string `json:"data"`

	BlockNumber     string `json:"block_number,omitempty"`
	TransactionHash string `json:"transaction_hash,omitempty"`
	LogIndex        uint   `json:"log_index,omitempty"`
	Removed         bool   `json:"removed,omitempty"`
}
