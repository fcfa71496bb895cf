package entity

import "encoding/json"

// ABICommandAction selects what an ABICommand does to the selector index
type ABICommandAction string

const (
	ABICommandAdd    ABICommandAction = "add"
	ABICommandRemove ABICommandAction = "remove"
)

// ABICommand is a runtime request to register or unregister ABI items
type ABICommand struct {
	Action ABICommandAction `json:"action"`
	Source string           `json:"source,omitempty"`
	ABI    json.RawMessage  `json:"abi"`
}
