package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/usecase"
)

type moneyFlags struct {
	operationID string
	clientID    string
	accountID   string
	amount      string
	comment     string
	auditLog    string
}

func (f *moneyFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.operationID, "operation-id", "", "Operation id (generated when empty)")
	cmd.Flags().StringVar(&f.clientID, "client", "", "Client id")
	cmd.Flags().StringVar(&f.accountID, "account", "", "Account id")
	cmd.Flags().StringVar(&f.amount, "amount", "", "Amount in the account's base asset")
	cmd.Flags().StringVar(&f.comment, "comment", "", "Comment stored with the balance change")
	cmd.Flags().StringVar(&f.auditLog, "audit-log", "", "Audit log text")
	cmd.MarkFlagRequired("account")
	cmd.MarkFlagRequired("amount")
}

func parsePositive(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, raw)
	}
	return amount, nil
}

func (c *cli) sendCommand(cmd *cobra.Command, msg domain.Message, operationID string) error {
	return c.withBus(cmd, func(ctx context.Context, bus usecase.MessageBus) error {
		if err := bus.SendCommand(ctx, msg, domain.BoundedContext); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sent %s operation_id=%s\n", msg.MessageType(), operationID)
		return nil
	})
}

func (c *cli) depositCmd() *cobra.Command {
	var f moneyFlags
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Start a deposit",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parsePositive(f.amount)
			if err != nil {
				return err
			}
			id := c.operationID(f.operationID)
			return c.sendCommand(cmd, domain.DepositCommand{
				OperationID:   id,
				AccountAmount: domain.NewAccountAmount(f.clientID, f.accountID, amount),
				Comment:       f.comment,
				AuditLog:      f.auditLog,
			}, id)
		},
	}
	f.bind(cmd)
	return cmd
}

func (c *cli) withdrawCmd() *cobra.Command {
	var f moneyFlags
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Start a withdrawal",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parsePositive(f.amount)
			if err != nil {
				return err
			}
			id := c.operationID(f.operationID)
			return c.sendCommand(cmd, domain.WithdrawCommand{
				OperationID:   id,
				AccountAmount: domain.NewAccountAmount(f.clientID, f.accountID, amount),
				Comment:       f.comment,
				AuditLog:      f.auditLog,
			}, id)
		},
	}
	f.bind(cmd)
	return cmd
}

func (c *cli) grantCapitalCmd() *cobra.Command {
	var f moneyFlags
	var eventSourceID, reason string
	cmd := &cobra.Command{
		Use:   "grant-capital",
		Short: "Grant temporary capital to an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parsePositive(f.amount)
			if err != nil {
				return err
			}
			id := c.operationID(f.operationID)
			return c.sendCommand(cmd, domain.StartGiveTemporaryCapitalCommand{
				OperationID:   id,
				EventSourceID: eventSourceID,
				AccountID:     f.accountID,
				Amount:        amount,
				Reason:        reason,
				AuditLog:      f.auditLog,
			}, id)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&eventSourceID, "event-source", "", "Id of the grant's source event")
	cmd.Flags().StringVar(&reason, "reason", "", "Grant reason")
	cmd.MarkFlagRequired("event-source")
	return cmd
}

func (c *cli) revokeCapitalCmd() *cobra.Command {
	var operationID, accountID, eventSourceID, revokeEventSourceID, comment, auditLog string
	cmd := &cobra.Command{
		Use:   "revoke-capital",
		Short: "Revoke temporary capital granted by one source event",
		RunE: func(cmd *cobra.Command, args []string) error {
			id := c.operationID(operationID)
			return c.sendCommand(cmd, domain.StartRevokeTemporaryCapitalCommand{
				OperationID:         id,
				EventSourceID:       eventSourceID,
				AccountID:           accountID,
				RevokeEventSourceID: revokeEventSourceID,
				Comment:             comment,
				AuditLog:            auditLog,
			}, id)
		},
	}
	cmd.Flags().StringVar(&operationID, "operation-id", "", "Operation id (generated when empty)")
	cmd.Flags().StringVar(&accountID, "account", "", "Account id")
	cmd.Flags().StringVar(&eventSourceID, "event-source", "", "Id of the revoking event")
	cmd.Flags().StringVar(&revokeEventSourceID, "revoke-event-source", "", "Source event id of the grants to revoke (all grants when empty)")
	cmd.Flags().StringVar(&comment, "comment", "", "Comment")
	cmd.Flags().StringVar(&auditLog, "audit-log", "", "Audit log text")
	cmd.MarkFlagRequired("account")
	return cmd
}

func (c *cli) closePositionCmd() *cobra.Command {
	var positionID, clientID, accountID, delta string
	cmd := &cobra.Command{
		Use:   "close-position",
		Short: "Publish a position-closed event carrying realized PnL",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(delta)
			if err != nil {
				return fmt.Errorf("invalid delta %q: %w", delta, err)
			}
			event := domain.PositionClosedEvent{
				AccountRef:   domain.AccountRef{ClientID: clientID, AccountID: accountID},
				PositionID:   positionID,
				BalanceDelta: amount,
				Timestamp:    time.Now().UTC(),
			}
			return c.withBus(cmd, func(ctx context.Context, bus usecase.MessageBus) error {
				if err := bus.PublishEvent(ctx, event); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "published %s position_id=%s\n", event.MessageType(), positionID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&positionID, "position", "", "Position id")
	cmd.Flags().StringVar(&clientID, "client", "", "Client id")
	cmd.Flags().StringVar(&accountID, "account", "", "Account id")
	cmd.Flags().StringVar(&delta, "delta", "", "Signed realized PnL")
	cmd.MarkFlagRequired("position")
	cmd.MarkFlagRequired("account")
	cmd.MarkFlagRequired("delta")
	return cmd
}

func (c *cli) deleteAccountsCmd() *cobra.Command {
	var operationID, comment string
	var accountIDs []string
	cmd := &cobra.Command{
		Use:   "delete-accounts",
		Short: "Disable and mark accounts deleted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(accountIDs) == 0 {
				return fmt.Errorf("at least one --accounts id is required")
			}
			id := c.operationID(operationID)
			return c.sendCommand(cmd, domain.DeleteAccountsCommand{
				OperationID: id,
				AccountIDs:  accountIDs,
				Comment:     comment,
			}, id)
		},
	}
	cmd.Flags().StringVar(&operationID, "operation-id", "", "Operation id (generated when empty)")
	cmd.Flags().StringSliceVar(&accountIDs, "accounts", nil, "Comma-separated account ids")
	cmd.Flags().StringVar(&comment, "comment", "", "Comment")
	return cmd
}

func (c *cli) ledgerCmd() *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Operation ledger inspection",
	}

	getCmd := &cobra.Command{
		Use:   "get NAME ID",
		Short: "Show one ledger entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.getJSON(cmd, "/operations/"+url.PathEscape(args[0])+"/"+url.PathEscape(args[1]))
		},
	}

	var age time.Duration
	var limit int
	staleCmd := &cobra.Command{
		Use:   "stale",
		Short: "List operations stuck in a non-terminal state",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("age", age.String())
			q.Set("limit", fmt.Sprint(limit))
			return c.getJSON(cmd, "/operations/stale?"+q.Encode())
		},
	}
	staleCmd.Flags().DurationVar(&age, "age", usecase.StaleOperationAge, "Minimum time since last modification")
	staleCmd.Flags().IntVar(&limit, "limit", 100, "Maximum entries")

	ledgerCmd.AddCommand(getCmd, staleCmd)
	return ledgerCmd
}

func (c *cli) accountCmd() *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account inspection",
	}

	accountCmd.AddCommand(
		&cobra.Command{
			Use:   "get ID",
			Short: "Show account state",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.getJSON(cmd, "/accounts/"+url.PathEscape(args[0]))
			},
		},
		&cobra.Command{
			Use:   "changes ID",
			Short: "List balance changes, newest first",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.getJSON(cmd, "/accounts/"+url.PathEscape(args[0])+"/changes")
			},
		},
	)

	return accountCmd
}
