package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"abi-decoder/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepository struct {
	events []*entity.DecodedEventRecord
	calls  []*entity.DecodedCallRecord
	err    error

	gotName    string
	gotAddress string
	gotLimit   int
}

func (r *stubRepository) SaveDecodedCall(ctx context.Context, call *entity.DecodedCallRecord) error {
	return nil
}

func (r *stubRepository) SaveDecodedEvents(ctx context.Context, events []*entity.DecodedEventRecord) error {
	return nil
}

func (r *stubRepository) BatchSave(ctx context.Context, decoded []*entity.DecodedTransaction) error {
	return nil
}

func (r *stubRepository) GetEventsByName(ctx context.Context, name string, limit int) ([]*entity.DecodedEventRecord, error) {
	r.gotName, r.gotLimit = name, limit
	return r.events, r.err
}

func (r *stubRepository) GetCallsForContract(ctx context.Context, address string, limit int) ([]*entity.DecodedCallRecord, error) {
	r.gotAddress, r.gotLimit = address, limit
	return r.calls, r.err
}

func TestQueryEvents(t *testing.T) {
	repo := &stubRepository{events: []*entity.DecodedEventRecord{{
		TxHash:      "0xabc",
		LogIndex:    3,
		BlockNumber: "18000000",
		Event:       &entity.DecodedLog{Name: "Transfer", Address: "0xa0b8"},
	}}}

	var out bytes.Buffer
	require.NoError(t, queryEvents(context.Background(), repo, "Transfer", 5, &out))

	assert.Equal(t, "Transfer", repo.gotName)
	assert.Equal(t, 5, repo.gotLimit)
	assert.Contains(t, out.String(), `"tx_hash": "0xabc"`)
	assert.Contains(t, out.String(), `"block_number": "18000000"`)
	assert.Contains(t, out.String(), `"name": "Transfer"`)
}

func TestQueryCalls(t *testing.T) {
	repo := &stubRepository{calls: []*entity.DecodedCallRecord{{
		TxHash:          "0xdef",
		ContractAddress: "0xa0b8",
		Method:          &entity.DecodedMethod{Name: "transfer"},
	}}}

	var out bytes.Buffer
	require.NoError(t, queryCalls(context.Background(), repo, "0xA0B8", 2, &out))

	assert.Equal(t, "0xA0B8", repo.gotAddress)
	assert.Equal(t, 2, repo.gotLimit)
	assert.Contains(t, out.String(), `"name": "transfer"`)
}

func TestQuery_InvalidLimit(t *testing.T) {
	repo := &stubRepository{}
	var out bytes.Buffer

	assert.Error(t, queryEvents(context.Background(), repo, "Transfer", 0, &out))
	assert.Error(t, queryCalls(context.Background(), repo, "0xa0b8", -1, &out))
	assert.Empty(t, repo.gotName)
	assert.Empty(t, out.String())
}

func TestQuery_RepositoryError(t *testing.T) {
	failure := errors.New("connection refused")
	repo := &stubRepository{err: failure}

	assert.ErrorIs(t, queryEvents(context.Background(), repo, "Transfer", 1, &bytes.Buffer{}), failure)
	assert.ErrorIs(t, queryCalls(context.Background(), repo, "0xa0b8", 1, &bytes.Buffer{}), failure)
}

func TestQueryCommand_Neo4JDisabled(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("neo4j:\n  enabled: false\n"), 0o644))
	t.Cleanup(func() { configFile = "" })

	rootCmd.SetArgs([]string{"--config", configPath, "query", "events", "--name", "Transfer"})
	assert.ErrorIs(t, rootCmd.Execute(), errNeo4JDisabled)
}
