package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/tradingaccounts/internal/adapter/messaging"
	postgresRepo "github.com/iho/tradingaccounts/internal/adapter/repository/postgres"
	"github.com/iho/tradingaccounts/internal/infrastructure/config"
	"github.com/iho/tradingaccounts/internal/infrastructure/logger"
	"github.com/iho/tradingaccounts/internal/infrastructure/postgres"
	"github.com/iho/tradingaccounts/internal/usecase"
)

// migrator applies or rolls back the schema.
type migrator interface {
	Up() error
	Down() error
}

// deps are the side-effecting collaborators of the CLI, replaced in tests.
type deps struct {
	newBus      func(cfg *config.Config) (usecase.MessageBus, func() error, error)
	newMigrator func(cfg *config.Config) migrator
	httpClient  *http.Client
	newID       func() string
}

func defaultDeps() deps {
	idGen := postgresRepo.NewULIDGenerator()
	return deps{
		newBus: func(cfg *config.Config) (usecase.MessageBus, func() error, error) {
			log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"})
			bus := messaging.NewKafkaBus(messaging.KafkaConfig{
				Brokers:             cfg.KafkaBrokers,
				CommandsTopicPrefix: cfg.KafkaCommandsTopicPrefix,
				EventsTopic:         cfg.KafkaEventsTopic,
			}, messaging.NewRouter(log, nil, messaging.RetryPolicy{}), log)
			return bus, bus.Close, nil
		},
		newMigrator: func(cfg *config.Config) migrator {
			return postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath,
				logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"}))
		},
		httpClient: &http.Client{},
		newID:      idGen.Generate,
	}
}

type cli struct {
	deps    deps
	baseURL string
	timeout time.Duration
}

func newRootCmd(d deps) *cobra.Command {
	c := &cli{deps: d}

	rootCmd := &cobra.Command{
		Use:           "accounts-cli",
		Short:         "Trading accounts CLI tool",
		Long:          `A command line interface for sending balance operations and inspecting the operation ledger.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&c.baseURL, "url", "http://localhost:8080", "Base URL of the ops API")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		c.migrateCmd(),
		c.depositCmd(),
		c.withdrawCmd(),
		c.grantCapitalCmd(),
		c.revokeCapitalCmd(),
		c.closePositionCmd(),
		c.deleteAccountsCmd(),
		c.ledgerCmd(),
		c.accountCmd(),
	)

	return rootCmd
}

func (c *cli) migrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}

	run := func(apply func(m migrator) error) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return apply(c.deps.newMigrator(cfg))
		}
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE:  run(func(m migrator) error { return m.Up() }),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE:  run(func(m migrator) error { return m.Down() }),
		},
	)

	return migrateCmd
}

// withBus loads config, opens the bus and runs fn with a timeout-bound context.
func (c *cli) withBus(cmd *cobra.Command, fn func(ctx context.Context, bus usecase.MessageBus) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	bus, closeBus, err := c.deps.newBus(cfg)
	if err != nil {
		return err
	}
	defer closeBus()

	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	return fn(ctx, bus)
}

func (c *cli) operationID(id string) string {
	if id != "" {
		return id
	}
	return c.deps.newID()
}

func (c *cli) getJSON(cmd *cobra.Command, path string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.baseURL, "/")+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.deps.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return printJSON(cmd.OutOrStdout(), decoded)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
