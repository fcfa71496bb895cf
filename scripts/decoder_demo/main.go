// ABI decoder demo
package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"abi-decoder/internal/domain/entity"
	"abi-decoder/internal/infrastructure/blockchain"
	"abi-decoder/internal/infrastructure/logger"
)

const erc20ABI = `[
  {"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"approve","inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"balanceOf","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"balance","type":"uint256"}]},
  {"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

const (
	sender    = "f39fd6e51aad88f6f4ce6ab8827279cfffb92266"
	recipient = "742d35cc6b7d72f4b73a3623b498b9b3b8b2f6e0"
	oneEther  = "de0b6b3a7640000"
)

// word left-pads a hex string to one 32-byte ABI word
func word(hex string) string {
	return strings.Repeat("0", 64-len(hex)) + hex
}

func main() {
	log, _ := logger.NewConsoleLogger("info")
	decoder := blockchain.NewDefaultABIDecoderService(log)

	if err := decoder.AddABIJSON([]byte(erc20ABI)); err != nil {
		fmt.Printf("❌ Failed to register ABI: %v\n", err)
		return
	}

	fmt.Println("🚀 ABI Decoder Demo")
	fmt.Println("===================")

	fmt.Println("\n🔑 Registered selectors:")
	for selector, item := range decoder.GetMethodIDs() {
		fmt.Printf("   %s → %s(%d inputs)\n", selector, item.Name, len(item.Inputs))
	}

	calls := []struct {
		label  string
		input  string
		output string
	}{
		{"transfer", "0xa9059cbb" + word(recipient) + word(oneEther), "0x" + word("1")},
		{"approve", "0x095ea7b3" + word(recipient) + word(oneEther), "0x"},
		{"balanceOf", "0x70a08231" + word(sender), "0x" + word(oneEther)},
		{"unknown", "0xabcdef12" + word("1"), ""},
	}

	fmt.Println("\n📞 Calls:")
	for i, c := range calls {
		fmt.Printf("\n%d. %s\n", i+1, c.label)
		method, err := decoder.DecodeMethod(c.input, c.output)
		if err != nil {
			fmt.Printf("   ❌ Error: %v\n", err)
			continue
		}
		if method == nil {
			fmt.Printf("   ⚪ No matching ABI item\n")
			continue
		}
		printJSON(method)
	}

	transferLog := entity.Log{
		Address: "0xA0b86a33E6411dD02d5bB2BB4CB4ecEC4f5C87c6",
		Topics: []string{
			"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
			"0x" + word(sender),
			"0x" + word(recipient),
		},
		Data: "0x" + word(oneEther),
	}

	fmt.Println("\n📜 Logs:")
	decoded, err := decoder.DecodeLogs([]entity.Log{transferLog, {Address: transferLog.Address}})
	if err != nil {
		fmt.Printf("   ❌ Error: %v\n", err)
		return
	}
	fmt.Printf("   %d of 2 logs carried topics\n", len(decoded))
	for _, d := range decoded {
		printJSON(d)
	}

	// Removal only matches selectors computed from the raw input types
	var items []entity.InterfaceItem
	if err := json.Unmarshal([]byte(erc20ABI), &items); err == nil {
		decoder.RemoveABI(items[:1])
	}
	method, _ := decoder.DecodeMethod(calls[0].input, calls[0].output)
	fmt.Printf("\n🧹 transfer decodes after removal: %t\n", method != nil)
	fmt.Printf("📦 Items still listed: %d\n", len(decoder.GetABIs()))

	fmt.Println("\n🎉 ABI Decoder Demo Completed!")
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "   ", "  ")
	if err != nil {
		fmt.Printf("   ❌ Error: %v\n", err)
		return
	}
	fmt.Printf("   %s\n", out)
}
