package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"abi-decoder/internal/domain/entity"
	"abi-decoder/internal/domain/repository"
	"abi-decoder/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// timestampLayout matches the layout stored on every node
const timestampLayout = "2006-01-02T15:04:05.000Z"

// ErrNotConnected is returned when the repository is used without a driver
var ErrNotConnected = errors.New("neo4j is not connected")

const saveCallsQuery = `
	UNWIND $calls AS call
	MERGE (t:Transaction {hash: call.tx_hash})
	ON CREATE SET
		t.from = call.from,
		t.block_number = call.block_number,
		t.timestamp = call.timestamp,
		t.network = call.network
	MERGE (c:Contract {address: call.contract_address})
	MERGE (t)-[r:CALLED]->(c)
	SET r.method = call.method,
		r.params = call.params,
		r.outputs = call.outputs
`

const saveEventsQuery = `
	UNWIND $events AS event
	MERGE (c:Contract {address: event.address})
	MERGE (e:DecodedEvent {tx_hash: event.tx_hash, log_index: event.log_index})
	SET e.name = event.name,
		e.params = event.params,
		e.block_number = event.block_number,
		e.timestamp = event.timestamp,
		e.network = event.network
	MERGE (c)-[:EMITTED]->(e)
	MERGE (t:Transaction {hash: event.tx_hash})
	MERGE (t)-[:HAS_EVENT]->(e)
`

// Neo4JDecodedRepository implements DecodedRepository using Neo4J
type Neo4JDecodedRepository struct {
	client *Neo4JClient
	logger *logger.Logger
}

// NewNeo4JDecodedRepository creates a new Neo4J decoded repository
func NewNeo4JDecodedRepository(client *Neo4JClient, logger *logger.Logger) repository.DecodedRepository {
	return &Neo4JDecodedRepository{
		client: client,
		logger: logger.WithComponent("neo4j-decoded-repository"),
	}
}

// SaveDecodedCall stores a decoded call
func (r *Neo4JDecodedRepository) SaveDecodedCall(ctx context.Context, call *entity.DecodedCallRecord) error {
	if call == nil || call.Method == nil {
		return nil
	}
	return r.write(ctx, []*entity.DecodedCallRecord{call}, nil)
}

// SaveDecodedEvents stores decoded events
func (r *Neo4JDecodedRepository) SaveDecodedEvents(ctx context.Context, events []*entity.DecodedEventRecord) error {
	return r.write(ctx, nil, events)
}

// BatchSave stores the results of several transactions in one write transaction
func (r *Neo4JDecodedRepository) BatchSave(ctx context.Context, decoded []*entity.DecodedTransaction) error {
	var calls []*entity.DecodedCallRecord
	var events []*entity.DecodedEventRecord
	for _, d := range decoded {
		if d == nil {
			continue
		}
		if d.Call != nil && d.Call.Method != nil {
			calls = append(calls, d.Call)
		}
		events = append(events, d.Events...)
	}
	return r.write(ctx, calls, events)
}

func (r *Neo4JDecodedRepository) write(ctx context.Context, calls []*entity.DecodedCallRecord, events []*entity.DecodedEventRecord) error {
	callParams, err := callRecordParams(calls)
	if err != nil {
		return err
	}
	eventParams, err := eventRecordParams(events)
	if err != nil {
		return err
	}
	if len(callParams) == 0 && len(eventParams) == 0 {
		return nil
	}

	driver := r.client.GetDriver()
	if driver == nil {
		return ErrNotConnected
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.client.Database()})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if len(callParams) > 0 {
			if _, err := tx.Run(ctx, saveCallsQuery, map[string]any{"calls": callParams}); err != nil {
				return nil, err
			}
		}
		if len(eventParams) > 0 {
			if _, err := tx.Run(ctx, saveEventsQuery, map[string]any{"events": eventParams}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		r.logger.Error("Failed to save decoded results",
			zap.Int("calls", len(callParams)),
			zap.Int("events", len(eventParams)),
			zap.Error(err))
		return fmt.Errorf("failed to save decoded results: %w", err)
	}

	r.logger.Debug("Saved decoded results",
		zap.Int("calls", len(callParams)),
		zap.Int("events", len(eventParams)))
	return nil
}

// GetEventsByName retrieves decoded events with the given name, newest first
func (r *Neo4JDecodedRepository) GetEventsByName(ctx context.Context, name string, limit int) ([]*entity.DecodedEventRecord, error) {
	query := `
		MATCH (c:Contract)-[:EMITTED]->(e:DecodedEvent {name: $name})
		RETURN e.tx_hash AS tx_hash, e.log_index AS log_index, e.block_number AS block_number,
			e.timestamp AS timestamp, e.network AS network, e.name AS name,
			e.params AS params, c.address AS address
		ORDER BY e.block_number DESC, e.log_index DESC
		LIMIT $limit
	`
	records, err := r.read(ctx, query, map[string]any{"name": name, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to get events by name: %w", err)
	}

	events := make([]*entity.DecodedEventRecord, 0, len(records))
	for _, record := range records {
		event, err := recordToEvent(record.AsMap())
		if err != nil {
			r.logger.Warn("Skipping unreadable event record", zap.Error(err))
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// GetCallsForContract retrieves decoded calls made to a contract, newest first
func (r *Neo4JDecodedRepository) GetCallsForContract(ctx context.Context, address string, limit int) ([]*entity.DecodedCallRecord, error) {
	query := `
		MATCH (t:Transaction)-[r:CALLED]->(c:Contract {address: $address})
		RETURN t.hash AS tx_hash, t.from AS from, t.block_number AS block_number,
			t.timestamp AS timestamp, t.network AS network, c.address AS contract_address,
			r.method AS method, r.params AS params, r.outputs AS outputs
		ORDER BY t.block_number DESC, t.timestamp DESC
		LIMIT $limit
	`
	records, err := r.read(ctx, query, map[string]any{"address": strings.ToLower(address), "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to get calls for contract: %w", err)
	}

	calls := make([]*entity.DecodedCallRecord, 0, len(records))
	for _, record := range records {
		call, err := recordToCall(record.AsMap())
		if err != nil {
			r.logger.Warn("Skipping unreadable call record", zap.Error(err))
			continue
		}
		calls = append(calls, call)
	}
	return calls, nil
}

func (r *Neo4JDecodedRepository) read(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	driver := r.client.GetDriver()
	if driver == nil {
		return nil, ErrNotConnected
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.client.Database()})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*neo4j.Record), nil
}

// callRecordParams flattens calls into Cypher parameters. Addresses are
// lowercased so lookups by contract match regardless of checksum casing.
func callRecordParams(calls []*entity.DecodedCallRecord) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(calls))
	for _, call := range calls {
		if call == nil || call.Method == nil {
			continue
		}
		params, err := json.Marshal(call.Method.Params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode call params: %w", err)
		}
		outputs := ""
		if len(call.Method.Outputs) > 0 {
			raw, err := json.Marshal(call.Method.Outputs)
			if err != nil {
				return nil, fmt.Errorf("failed to encode call outputs: %w", err)
			}
			outputs = string(raw)
		}
		out = append(out, map[string]any{
			"tx_hash":          call.TxHash,
			"from":             strings.ToLower(call.From),
			"contract_address": strings.ToLower(call.ContractAddress),
			"block_number":     parseBlockNumber(call.BlockNumber),
			"timestamp":        call.Timestamp.UTC().Format(timestampLayout),
			"network":          call.Network,
			"method":           call.Method.Name,
			"params":           string(params),
			"outputs":          outputs,
		})
	}
	return out, nil
}

// eventRecordParams flattens events into Cypher parameters
func eventRecordParams(events []*entity.DecodedEventRecord) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(events))
	for _, event := range events {
		if event == nil || event.Event == nil {
			continue
		}
		params, err := json.Marshal(event.Event.Params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode event params: %w", err)
		}
		out = append(out, map[string]any{
			"tx_hash":      event.TxHash,
			"log_index":    int64(event.LogIndex),
			"address":      strings.ToLower(event.Event.Address),
			"name":         event.Event.Name,
			"params":       string(params),
			"block_number": parseBlockNumber(event.BlockNumber),
			"timestamp":    event.Timestamp.UTC().Format(timestampLayout),
			"network":      event.Network,
		})
	}
	return out, nil
}

func recordToEvent(values map[string]any) (*entity.DecodedEventRecord, error) {
	var params []entity.DecodedParam
	if raw := stringValue(values["params"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return nil, fmt.Errorf("failed to decode event params: %w", err)
		}
	}
	logIndex, _ := values["log_index"].(int64)
	return &entity.DecodedEventRecord{
		TxHash:      stringValue(values["tx_hash"]),
		LogIndex:    uint(logIndex),
		BlockNumber: blockNumberValue(values["block_number"]),
		Timestamp:   parseTimestamp(stringValue(values["timestamp"])),
		Network:     stringValue(values["network"]),
		Event: &entity.DecodedLog{
			Name:    stringValue(values["name"]),
			Params:  params,
			Address: stringValue(values["address"]),
		},
	}, nil
}

func recordToCall(values map[string]any) (*entity.DecodedCallRecord, error) {
	method := &entity.DecodedMethod{Name: stringValue(values["method"])}
	if raw := stringValue(values["params"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &method.Params); err != nil {
			return nil, fmt.Errorf("failed to decode call params: %w", err)
		}
	}
	if raw := stringValue(values["outputs"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &method.Outputs); err != nil {
			return nil, fmt.Errorf("failed to decode call outputs: %w", err)
		}
	}
	return &entity.DecodedCallRecord{
		TxHash:          stringValue(values["tx_hash"]),
		ContractAddress: stringValue(values["contract_address"]),
		From:            stringValue(values["from"]),
		BlockNumber:     blockNumberValue(values["block_number"]),
		Timestamp:       parseTimestamp(stringValue(values["timestamp"])),
		Network:         stringValue(values["network"]),
		Method:          method,
	}, nil
}

// parseBlockNumber converts a decimal or 0x-prefixed block number into the
// integer stored on nodes, so ORDER BY block_number sorts numerically.
// Unparseable or empty values are stored as 0.
func parseBlockNumber(s string) int64 {
	n, ok := math.ParseUint64(strings.TrimSpace(s))
	if !ok || n > 1<<63-1 {
		return 0
	}
	return int64(n)
}

// blockNumberValue reads block_number back as decimal text. Nodes written
// before block numbers were stored as integers still hold strings.
func blockNumberValue(v any) string {
	switch n := v.(type) {
	case int64:
		return strconv.FormatInt(n, 10)
	case string:
		return n
	default:
		return ""
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
