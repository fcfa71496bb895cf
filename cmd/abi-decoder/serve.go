package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	app_service "abi-decoder/internal/application/service"
	"abi-decoder/internal/domain/entity"
	domain_service "abi-decoder/internal/domain/service"
	"abi-decoder/internal/infrastructure/blockchain"
	"abi-decoder/internal/infrastructure/config"
	"abi-decoder/internal/infrastructure/database"
	"abi-decoder/internal/infrastructure/logger"
	"abi-decoder/internal/infrastructure/messaging"
	"abi-decoder/internal/infrastructure/metrics"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Consume transactions from NATS, decode them and persist the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg, appLogger)
		},
	}
}

func runServe(cfg *config.Config, log *logger.Logger) error {
	app := fx.New(
		// Provide dependencies
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.NATS),
		fx.Supply(&cfg.Neo4J),
		fx.Supply(&cfg.Ethereum),
		fx.Provide(func() *zap.Logger { return log.Logger }),

		// Infrastructure providers
		fx.Provide(
			database.NewNeo4JClient,
			database.NewNeo4JDecodedRepository,
			blockchain.NewDefaultABIDecoderService,
			blockchain.NewEthereumClient,
			func(client *blockchain.EthereumClient) domain_service.ReceiptSource { return client },
			func(cfg *config.Config) *metrics.DecoderMetrics {
				return metrics.NewDecoderMetrics(cfg.Metrics.Namespace)
			},
			messaging.NewNATSConsumer,
		),

		// Application providers
		fx.Provide(
			app_service.NewDecodingApplicationService,
		),

		// Lifecycle hooks
		fx.Invoke(registerABIs),
		fx.Invoke(startDecoder),
		fx.Invoke(startHealthServer),
		fx.Invoke(startMetricsServer),

		// Configure logging
		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	// Start the application
	if err := app.Start(context.Background()); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		return err
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		return err
	}

	log.Info("Application stopped successfully")
	return nil
}

// registerABIs loads the configured ABI documents into the decoder
func registerABIs(cfg *config.Config, decodingService *app_service.DecodingApplicationService, log *zap.Logger) error {
	items, err := blockchain.LoadABIFiles(cfg.ABI.Files, cfg.ABI.Directories)
	if err != nil {
		return fmt.Errorf("failed to load ABI files: %w", err)
	}
	if len(items) == 0 {
		log.Warn("No ABI items configured, waiting for ABI commands",
			zap.Strings("files", cfg.ABI.Files),
			zap.Strings("directories", cfg.ABI.Directories))
		return nil
	}
	decodingService.RegisterABI(items)
	return nil
}

// startDecoder connects the backing stores and starts consuming
func startDecoder(
	lifecycle fx.Lifecycle,
	consumer *messaging.NATSConsumer,
	decodingService *app_service.DecodingApplicationService,
	ethClient *blockchain.EthereumClient,
	log *zap.Logger,
	cfg *config.Config,
	neo4jClient *database.Neo4JClient,
) {
	runCtx, cancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting decoding service...")

			if err := neo4jClient.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to Neo4J: %w", err)
			}

			if err := ethClient.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to Ethereum node: %w", err)
			}

			log.Info("NATS Configuration",
				zap.String("url", cfg.NATS.URL),
				zap.String("stream_name", cfg.NATS.StreamName),
				zap.String("transactions_subject", cfg.NATS.TransactionsSubject()),
				zap.String("abi_subject", cfg.NATS.ABISubject()),
				zap.Bool("enabled", cfg.NATS.Enabled),
			)

			if err := consumer.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}

			workers.Add(2)
			go func() {
				defer workers.Done()
				processMessages(runCtx, consumer.GetMessageChannel(), decodingService, log, cfg)
			}()
			go func() {
				defer workers.Done()
				processABICommands(runCtx, consumer.GetABICommandChannel(), decodingService, log)
			}()

			log.Info("Decoding service started successfully")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping decoding service...")

			// Closing the consumer closes its channels, which flushes the pending batch
			err := consumer.Disconnect()
			cancel()
			workers.Wait()

			ethClient.Close()
			if closeErr := neo4jClient.Close(ctx); closeErr != nil {
				log.Error("Failed to close Neo4J connection", zap.Error(closeErr))
			}
			return err
		},
	})
}

// startHealthServer starts the health check server
func startHealthServer(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	logger *logger.Logger,
	consumer *messaging.NATSConsumer,
	neo4jClient *database.Neo4JClient,
	decoder domain_service.ABIDecoder,
) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), cfg.Health.Timeout)
		defer cancel()

		status := map[string]any{
			"nats":      !cfg.NATS.Enabled || consumer.IsConnected(),
			"neo4j":     !cfg.Neo4J.Enabled || neo4jClient.IsConnected(ctx),
			"selectors": len(decoder.GetMethodIDs()),
		}
		code := http.StatusOK
		if !status["nats"].(bool) || !status["neo4j"].(bool) {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(status)
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting health server...", zap.Int("port", cfg.App.HTTPPort))
			go serveHTTP(server, logger, "Health server error")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping health server...")
			return server.Shutdown(ctx)
		},
	})
}

// startMetricsServer exposes the decoder metrics when enabled
func startMetricsServer(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	logger *logger.Logger,
	decoderMetrics *metrics.DecoderMetrics,
) {
	if !cfg.Metrics.Enabled {
		logger.Info("Metrics are disabled")
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", decoderMetrics.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting metrics server...", zap.Int("port", cfg.Metrics.Port))
			go serveHTTP(server, logger, "Metrics server error")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}

func serveHTTP(server *http.Server, logger *logger.Logger, msg string) {
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error(msg, zap.Error(err))
	}
}

// processABICommands applies registry changes received from NATS
func processABICommands(
	ctx context.Context,
	commands <-chan *entity.ABICommand,
	decodingService domain_service.DecodingService,
	logger *zap.Logger,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			if err := decodingService.ApplyABICommand(ctx, cmd); err != nil {
				logger.Error("Failed to apply ABI command",
					zap.String("action", string(cmd.Action)),
					zap.String("source", cmd.Source),
					zap.Error(err))
			}
		}
	}
}

// processMessages batches transactions from NATS and hands the batches to a worker pool
func processMessages(
	ctx context.Context,
	msgChan <-chan *entity.Transaction,
	decodingService domain_service.DecodingService,
	logger *zap.Logger,
	cfg *config.Config,
) {
	batchSize := max(cfg.App.BatchSize, 1)
	workerCount := max(cfg.App.WorkerPoolSize, 1)
	flushInterval := cfg.App.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}

	batch := make([]*entity.Transaction, 0, batchSize)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	jobChan := make(chan []*entity.Transaction, workerCount)
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			logger.Info("Starting batch processing worker", zap.Int("worker_id", workerID))

			for txs := range jobChan {
				// Workers finish in-flight batches even after shutdown starts
				if err := decodingService.ProcessTransactionBatch(context.WithoutCancel(ctx), txs); err != nil {
					logger.Error("Failed to process transaction batch",
						zap.Error(err),
						zap.Int("worker_id", workerID),
						zap.Int("batch_size", len(txs)))
				}
			}
		}(i)
	}

	flush := func() {
		if len(batch) == 0 {
			return
		}
		txBatch := make([]*entity.Transaction, len(batch))
		copy(txBatch, batch)
		jobChan <- txBatch
		batch = batch[:0]
	}
	shutdown := func() {
		flush()
		close(jobChan)
		wg.Wait()
	}

	for {
		select {
		case <-ctx.Done():
			shutdown()
			return

		case tx, ok := <-msgChan:
			if !ok {
				shutdown()
				return
			}
			if tx == nil {
				continue
			}
			batch = append(batch, tx)
			if len(batch) >= batchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}
