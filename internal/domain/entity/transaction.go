package entity

import (
	"time"
)

// Transaction represents a transaction message received from NATS
type Transaction struct {
	Hash        string    `json:"hash"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Value       string    `json:"value"`
	Input       string    `json:"input"`
	Output      string    `json:"output,omitempty"`
	BlockNumber string    `json:"block_number"`
	BlockHash   string    `json:"block_hash"`
	Timestamp   time.Time `json:"timestamp"`
	Network     string    `json:"network"`
	Logs        []Log     `json:"logs,omitempty"`
}

// HasInput reports whether the transaction carries call data
func (t *Transaction) HasInput() bool {
	return t.Input != "" && t.Input != "0x"
}
