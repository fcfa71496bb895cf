package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"abi-decoder/internal/domain/entity"
	"abi-decoder/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const tokenABI = `[
  {"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"event","name":"Transfer","inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

func word(hex string) string {
	return strings.Repeat("0", 64-len(hex)) + hex
}

type recordingService struct {
	mu       sync.Mutex
	batches  [][]*entity.Transaction
	commands []*entity.ABICommand
}

func (s *recordingService) ApplyABICommand(ctx context.Context, cmd *entity.ABICommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
	return nil
}

func (s *recordingService) DecodeTransaction(ctx context.Context, tx *entity.Transaction) (*entity.DecodedTransaction, error) {
	return &entity.DecodedTransaction{}, nil
}

func (s *recordingService) ProcessTransaction(ctx context.Context, tx *entity.Transaction) error {
	return nil
}

func (s *recordingService) ProcessTransactionBatch(ctx context.Context, txs []*entity.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, txs)
	return nil
}

func (s *recordingService) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func TestProcessMessages_FlushesOnSizeAndClose(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{BatchSize: 2, WorkerPoolSize: 2, FlushInterval: time.Hour}}
	svc := &recordingService{}
	msgs := make(chan *entity.Transaction, 5)
	for i := 0; i < 5; i++ {
		msgs <- &entity.Transaction{Hash: "0x0" + string(rune('a'+i))}
	}
	close(msgs)

	processMessages(context.Background(), msgs, svc, zap.NewNop(), cfg)

	assert.Equal(t, 5, svc.total())
	assert.Len(t, svc.batches, 3)
}

func TestProcessMessages_FlushesOnTicker(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{BatchSize: 100, WorkerPoolSize: 1, FlushInterval: 10 * time.Millisecond}}
	svc := &recordingService{}
	msgs := make(chan *entity.Transaction, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		processMessages(ctx, msgs, svc, zap.NewNop(), cfg)
		close(done)
	}()

	msgs <- &entity.Transaction{Hash: "0x01"}
	assert.Eventually(t, func() bool { return svc.total() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestProcessABICommands(t *testing.T) {
	svc := &recordingService{}
	commands := make(chan *entity.ABICommand, 2)
	commands <- &entity.ABICommand{Action: entity.ABICommandAdd}
	commands <- &entity.ABICommand{Action: entity.ABICommandRemove}
	close(commands)

	processABICommands(context.Background(), commands, svc, zap.NewNop())

	require.Len(t, svc.commands, 2)
	assert.Equal(t, entity.ABICommandRemove, svc.commands[1].Action)
}

func TestDecodeCommands(t *testing.T) {
	abiPath := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(abiPath, []byte(tokenABI), 0o644))

	recipient := "742d35cc6b7d72f4b73a3623b498b9b3b8b2f6e0"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"decode", "call",
		"--abi", abiPath,
		"--input", "0xa9059cbb" + word(recipient) + word("3e8"),
		"--output", "0x" + word("1"),
	})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), `"name": "transfer"`)
	assert.Contains(t, out.String(), `"value": "1000"`)
	assert.Contains(t, out.String(), `"0x`+recipient+`"`)

	out.Reset()
	rootCmd.SetArgs([]string{
		"decode", "log",
		"--abi", abiPath,
		"--topic", "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		"--topic", "0x" + word("f39fd6e51aad88f6f4ce6ab8827279cfffb92266"),
		"--topic", "0x" + word(recipient),
		"--data", "0x" + word("3e8"),
		"--address", "0xA0b86a33E6411dD02d5bB2BB4CB4ecEC4f5C87c6",
	})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), `"name": "Transfer"`)
	assert.Contains(t, out.String(), `"0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"`)
	assert.Contains(t, out.String(), `"address": "0xA0b86a33E6411dD02d5bB2BB4CB4ecEC4f5C87c6"`)
}
