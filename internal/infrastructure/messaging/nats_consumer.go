package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"abi-decoder/internal/domain/entity"
	"abi-decoder/internal/infrastructure/config"
	"abi-decoder/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSConsumer consumes transactions and ABI commands from NATS
type NATSConsumer struct {
	conn      *nats.Conn
	js        nats.JetStreamContext
	subs      []*nats.Subscription
	config    *config.NATSConfig
	logger    *logger.Logger
	txChan    chan *entity.Transaction
	abiChan   chan *entity.ABICommand
	isRunning atomic.Bool
	wg        sync.WaitGroup

	// chanMu guards the channels against late subscription callbacks
	chanMu sync.RWMutex
	closed bool
}

// NewNATSConsumer creates a new NATS consumer
func NewNATSConsumer(cfg *config.NATSConfig, logger *logger.Logger) *NATSConsumer {
	return &NATSConsumer{
		config:  cfg,
		logger:  logger.WithComponent("nats-consumer"),
		txChan:  make(chan *entity.Transaction, cfg.MaxPendingMessages),
		abiChan: make(chan *entity.ABICommand, 64),
	}
}

// Connect connects to NATS server and sets up the subscriptions
func (n *NATSConsumer) Connect(ctx context.Context) error {
	if !n.config.Enabled {
		n.logger.Info("NATS is disabled, skipping connection")
		return nil
	}

	n.logger.Info("Connecting to NATS server", zap.String("url", n.config.URL))

	opts := []nats.Option{
		nats.Name("abi-decoder"),
		nats.Timeout(n.config.ConnectTimeout),
		nats.ReconnectWait(n.config.ReconnectDelay),
		nats.MaxReconnects(n.config.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			n.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		n.logger.Error("Failed to connect to NATS", zap.Error(err))
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	n.conn = conn

	// ABI commands are low volume and always use core NATS
	abiSub, err := conn.Subscribe(n.config.ABISubject(), n.handleABIMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", n.config.ABISubject(), err)
	}
	n.subs = append(n.subs, abiSub)

	// Try JetStream first, if not available fall back to core NATS
	js, err := conn.JetStream()
	if err != nil {
		n.logger.Warn("JetStream not available, using core NATS", zap.Error(err))
		return n.setupCoreNATSSubscription()
	}

	n.js = js
	return n.setupJetStreamSubscription()
}

// setupJetStreamSubscription binds a pull subscription to the durable consumer
func (n *NATSConsumer) setupJetStreamSubscription() error {
	subject := n.config.TransactionsSubject()
	durable := n.config.ConsumerGroup

	n.logger.Info("Setting up JetStream subscription",
		zap.String("subject", subject),
		zap.String("stream", n.config.StreamName),
		zap.String("consumer", durable))

	sub, err := n.js.PullSubscribe(subject, durable, nats.Bind(n.config.StreamName, durable))
	if err != nil {
		n.logger.Warn("Failed to bind to JetStream consumer, falling back to core NATS", zap.Error(err))
		return n.setupCoreNATSSubscription()
	}

	n.subs = append(n.subs, sub)
	n.isRunning.Store(true)

	n.wg.Add(1)
	go n.processJetStreamMessages(sub)

	n.logger.Info("Successfully connected to NATS JetStream",
		zap.String("subject", subject),
		zap.String("consumer", durable))

	return nil
}

// processJetStreamMessages fetches from the pull subscription until disconnected
func (n *NATSConsumer) processJetStreamMessages(sub *nats.Subscription) {
	defer n.wg.Done()
	n.logger.Info("Starting JetStream message processing")

	for n.isRunning.Load() {
		msgs, err := sub.Fetch(n.config.FetchBatchSize, nats.MaxWait(n.config.FetchTimeout))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			if !n.isRunning.Load() {
				break
			}
			n.logger.Error("Failed to fetch messages", zap.Error(err))
			continue
		}

		n.logger.Debug("Fetched messages from JetStream", zap.Int("count", len(msgs)))

		for _, msg := range msgs {
			n.handleTransactionMessage(msg)
		}
	}

	n.logger.Info("Stopped JetStream message processing")
}

// setupCoreNATSSubscription sets up a core NATS queue subscription
func (n *NATSConsumer) setupCoreNATSSubscription() error {
	subject := n.config.TransactionsSubject()
	queueGroup := n.config.ConsumerGroup

	n.logger.Info("Setting up core NATS subscription",
		zap.String("subject", subject),
		zap.String("queue_group", queueGroup))

	sub, err := n.conn.QueueSubscribe(subject, queueGroup, n.handleTransactionMessage)
	if err != nil {
		n.logger.Error("Failed to subscribe to subject", zap.Error(err))
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	n.subs = append(n.subs, sub)
	n.isRunning.Store(true)

	n.logger.Info("Successfully connected to core NATS",
		zap.String("subject", subject),
		zap.String("queue_group", queueGroup))

	return nil
}

// handleTransactionMessage forwards a transaction message to the processing channel
func (n *NATSConsumer) handleTransactionMessage(msg *nats.Msg) {
	tx, err := parseTransaction(msg.Data)
	if err != nil {
		n.logger.Error("Failed to unmarshal transaction", zap.Error(err))
		if msg.Reply != "" {
			msg.Term()
		}
		return
	}

	n.logger.Debug("Received transaction",
		zap.String("hash", tx.Hash),
		zap.String("to", tx.To),
		zap.Int("logs", len(tx.Logs)))

	n.chanMu.RLock()
	defer n.chanMu.RUnlock()

	if n.closed {
		n.logger.Warn("Consumer is closed, rejecting transaction", zap.String("hash", tx.Hash))
		if msg.Reply != "" {
			msg.Nak()
		}
		return
	}

	select {
	case n.txChan <- tx:
		if msg.Reply != "" {
			msg.Ack()
		}
	default:
		n.logger.Warn("Transaction channel is full, dropping message", zap.String("hash", tx.Hash))
		if msg.Reply != "" {
			msg.Nak()
		}
	}
}

// handleABIMessage forwards an ABI command to the command channel
func (n *NATSConsumer) handleABIMessage(msg *nats.Msg) {
	cmd, err := parseABICommand(msg.Data)
	if err != nil {
		n.logger.Error("Failed to unmarshal ABI command", zap.Error(err))
		if msg.Reply != "" {
			msg.Respond([]byte("ERROR: " + err.Error()))
		}
		return
	}

	n.chanMu.RLock()
	defer n.chanMu.RUnlock()

	if n.closed {
		if msg.Reply != "" {
			msg.Respond([]byte("ERROR: consumer closed"))
		}
		return
	}

	select {
	case n.abiChan <- cmd:
		if msg.Reply != "" {
			msg.Respond([]byte("OK"))
		}
	default:
		n.logger.Warn("ABI command channel is full, dropping command",
			zap.String("action", string(cmd.Action)),
			zap.String("source", cmd.Source))
		if msg.Reply != "" {
			msg.Respond([]byte("ERROR: busy"))
		}
	}
}

// Disconnect stops fetching and closes the connection
func (n *NATSConsumer) Disconnect() error {
	n.isRunning.Store(false)

	for _, sub := range n.subs {
		if err := sub.Unsubscribe(); err != nil {
			n.logger.Warn("Failed to unsubscribe", zap.String("subject", sub.Subject), zap.Error(err))
		}
	}
	n.subs = nil
	n.wg.Wait()

	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}

	// Sends are non-blocking, so taking the write lock waits only for in-flight handlers
	n.chanMu.Lock()
	if !n.closed {
		n.closed = true
		close(n.txChan)
		close(n.abiChan)
	}
	n.chanMu.Unlock()

	n.logger.Info("Disconnected from NATS")
	return nil
}

// IsConnected checks if connected to NATS
func (n *NATSConsumer) IsConnected() bool {
	return n.isRunning.Load() && n.conn != nil && n.conn.IsConnected()
}

// GetMessageChannel returns the transaction channel
func (n *NATSConsumer) GetMessageChannel() <-chan *entity.Transaction {
	return n.txChan
}

// GetABICommandChannel returns the ABI command channel
func (n *NATSConsumer) GetABICommandChannel() <-chan *entity.ABICommand {
	return n.abiChan
}

func parseTransaction(data []byte) (*entity.Transaction, error) {
	var tx entity.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, err
	}
	if tx.Hash == "" {
		return nil, errors.New("transaction hash is missing")
	}
	return &tx, nil
}

func parseABICommand(data []byte) (*entity.ABICommand, error) {
	var cmd entity.ABICommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, err
	}
	switch cmd.Action {
	case entity.ABICommandAdd, entity.ABICommandRemove:
	default:
		return nil, fmt.Errorf("unknown ABI command action %q", cmd.Action)
	}
	if len(cmd.ABI) == 0 {
		return nil, errors.New("ABI command carries no abi")
	}
	return &cmd, nil
}
