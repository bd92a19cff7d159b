package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/moneytransfer/internal/adapter/http/dto"
	"github.com/iho/moneytransfer/internal/adapter/http/middleware"
)

type options struct {
	baseURL        string
	timeout        time.Duration
	idempotencyKey string
}

func (o *options) client() *apiClient {
	return newAPIClient(o.baseURL, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "moneytransfer-cli",
		Short:         "Money transfer CLI tool",
		Long:          `A command line interface for interacting with the money transfer API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the money transfer API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		accountsCmd(opts),
		depositCmd(opts),
		transferCmd(opts),
		creditCmd(opts),
		ledgerCmd(opts),
	)

	return rootCmd
}

func accountsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var accounts []dto.AccountResponse
			if err := opts.client().get(cmd.Context(), "/api/v1/accounts", &accounts); err != nil {
				return err
			}
			printAccounts(cmd.OutOrStdout(), accounts)
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <account-id>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var account dto.AccountResponse
			if err := opts.client().get(cmd.Context(), "/api/v1/accounts/"+url.PathEscape(args[0]), &account); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}

	var name, balance string
	open := &cobra.Command{
		Use:   "open <account-id>",
		Short: "Open an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initial, err := parseAmount(balance)
			if err != nil {
				return err
			}
			req := dto.OpenAccountRequest{ID: args[0], Name: name, InitialBalance: initial}

			var account dto.AccountResponse
			if err := opts.client().do(cmd.Context(), "POST", "/api/v1/accounts", req, &account, opts.idempotencyKey); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}
	open.Flags().StringVar(&name, "name", "", "Display name (defaults to the ID)")
	open.Flags().StringVar(&balance, "balance", "0", "Initial balance")
	idempotencyFlag(open, opts)

	cmd.AddCommand(list, get, open)
	return cmd
}

func depositCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit <account-id> <amount>",
		Short: "Credit funds to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			req := dto.DepositRequest{AccountID: args[0], Amount: amount}

			var resp dto.DepositResponse
			if err := opts.client().do(cmd.Context(), "POST", "/api/v1/transfers/deposit", req, &resp, opts.idempotencyKey); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	idempotencyFlag(cmd, opts)
	return cmd
}

func transferCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer <source-id> <target-id> <amount>",
		Short: "Move funds between two accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			req := dto.TransferRequest{SourceAccountID: args[0], TargetAccountID: args[1], Amount: amount}

			var resp dto.TransferResponse
			if err := opts.client().do(cmd.Context(), "POST", "/api/v1/transfers", req, &resp, opts.idempotencyKey); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	idempotencyFlag(cmd, opts)
	return cmd
}

func creditCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "credit <account-id>",
		Short: "Run a credit check for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.CreditResponse
			if err := opts.client().get(cmd.Context(), "/api/v1/credit/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	total := &cobra.Command{
		Use:   "total",
		Short: "Show the sum of all balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp dto.LedgerTotalResponse
			if err := opts.client().get(cmd.Context(), "/api/v1/ledger/total", &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Accounts: %d\nTotal: %s\n", resp.Accounts, resp.Total.String())
			return nil
		},
	}

	cmd.AddCommand(total)
	return cmd
}

func idempotencyFlag(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.idempotencyKey, "idempotency-key", "", "Value for the "+middleware.IdempotencyKeyHeader+" header")
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return amount, nil
}

func printAccounts(w io.Writer, accounts []dto.AccountResponse) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBALANCE\tVERSION")
	for _, a := range accounts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", truncate(a.ID, 32), truncate(a.Name, 24), a.Balance.String(), a.Version)
	}
	tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
