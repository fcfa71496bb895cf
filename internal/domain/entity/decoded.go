package entity

import (
	"time"
)

// DecodedParam is one decoded parameter in declaration order
type DecodedParam struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value Value  `json:"value"`
}

// DecodedMethod represents a decoded function call and, when available, its return values
type DecodedMethod struct {
	Name    string         `json:"name"`
	Params  []DecodedParam `json:"params"`
	Outputs []DecodedParam `json:"outputs,omitempty"`
}

// DecodedLog represents a decoded event log
type DecodedLog struct {
	Name    string         `json:"name"`
	Params  []DecodedParam `json:"params"`
	Address string         `json:"address"`
}

// Param returns the decoded parameter with the given name
func (l *DecodedLog) Param(name string) (DecodedParam, bool) {
	for _, p := range l.Params {
		if p.Name == name {
			return p, true
		}
	}
	return DecodedParam{}, false
}

// DecodedCallRecord is a decoded call together with the transaction it came from
type DecodedCallRecord struct {
	TxHash          string         `json:"tx_hash"`
	ContractAddress string         `json:"contract_address"`
	From            string         `json:"from"`
	BlockNumber     string         `json:"block_number"`
	Timestamp       time.Time      `json:"timestamp"`
	Network         string         `json:"network"`
	Method          *DecodedMethod `json:"method"`
}

// DecodedEventRecord is a decoded log together with its chain position
type DecodedEventRecord struct {
	TxHash      string      `json:"tx_hash"`
	LogIndex    uint        `json:"log_index"`
	BlockNumber string      `json:"block_number"`
	Timestamp   time.Time   `json:"timestamp"`
	Network     string      `json:"network"`
	Event       *DecodedLog `json:"event"`
}

// DecodedTransaction groups everything decoded from one transaction
type DecodedTransaction struct {
	Call   *DecodedCallRecord
	Events []*DecodedEventRecord
}
