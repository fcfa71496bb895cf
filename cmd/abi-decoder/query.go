package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"abi-decoder/internal/domain/repository"
	"abi-decoder/internal/infrastructure/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultQueryLimit = 20

var errNeo4JDisabled = errors.New("neo4j is disabled, set neo4j.enabled to query decoded results")

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read persisted decoded results from Neo4J",
	}
	cmd.AddCommand(newQueryEventsCmd())
	cmd.AddCommand(newQueryCallsCmd())
	return cmd
}

func newQueryEventsCmd() *cobra.Command {
	var (
		name  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List decoded events by name, newest block first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cmd.Context(), func(ctx context.Context, repo repository.DecodedRepository) error {
				return queryEvents(ctx, repo, name, limit, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "event name, e.g. Transfer")
	cmd.Flags().IntVar(&limit, "limit", defaultQueryLimit, "maximum number of events")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newQueryCallsCmd() *cobra.Command {
	var (
		contract string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "calls",
		Short: "List decoded calls made to a contract, newest block first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cmd.Context(), func(ctx context.Context, repo repository.DecodedRepository) error {
				return queryCalls(ctx, repo, contract, limit, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().StringVar(&contract, "contract", "", "contract address")
	cmd.Flags().IntVar(&limit, "limit", defaultQueryLimit, "maximum number of calls")
	_ = cmd.MarkFlagRequired("contract")
	return cmd
}

// withRepository connects to Neo4J for the duration of fn
func withRepository(ctx context.Context, fn func(context.Context, repository.DecodedRepository) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !cfg.Neo4J.Enabled {
		return errNeo4JDisabled
	}

	client := database.NewNeo4JClient(&cfg.Neo4J, appLogger)
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if err := client.Close(ctx); err != nil {
			appLogger.Warn("Failed to close Neo4J connection", zap.Error(err))
		}
	}()

	return fn(ctx, database.NewNeo4JDecodedRepository(client, appLogger))
}

func queryEvents(ctx context.Context, repo repository.DecodedRepository, name string, limit int, w io.Writer) error {
	if limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}
	events, err := repo.GetEventsByName(ctx, name, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, events)
}

func queryCalls(ctx context.Context, repo repository.DecodedRepository, contract string, limit int, w io.Writer) error {
	if limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}
	calls, err := repo.GetCallsForContract(ctx, contract, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, calls)
}
