package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "smartbank-cli",
		Short: "SmartBank ledger CLI tool",
		Long:  `A command line interface for interacting with the SmartBank ledger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(accountCmd())
	rootCmd.AddCommand(transferCmd())
	rootCmd.AddCommand(depositCmd())
	rootCmd.AddCommand(ledgerCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var name string
	var seedBalance string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"name": name}
			if seedBalance != "" {
				body["seed_balance"] = seedBalance
			}
			return doRequest(http.MethodPost, "/api/v1/accounts", body)
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Account name")
	createCmd.Flags().StringVar(&seedBalance, "seed-balance", "", "Opening balance, e.g. 500.00")
	_ = createCmd.MarkFlagRequired("name")

	getCmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Fetch one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, "/api/v1/accounts/"+args[0], nil)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, "/api/v1/accounts", nil)
		},
	}

	closeCmd := &cobra.Command{
		Use:   "close [id]",
		Short: "Close an empty account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodDelete, "/api/v1/accounts/"+args[0], nil)
		},
	}

	entriesCmd := &cobra.Command{
		Use:   "entries [id]",
		Short: "List an account's journal entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, "/api/v1/accounts/"+args[0]+"/entries", nil)
		},
	}

	cmd.AddCommand(createCmd, getCmd, listCmd, closeCmd, entriesCmd)
	return cmd
}

func transferCmd() *cobra.Command {
	var from, to int64
	var amount, description, idempotencyKey string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move money between two accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"source_account_id":      from,
				"destination_account_id": to,
				"amount":                 amount,
			}
			if description != "" {
				body["description"] = description
			}
			if idempotencyKey != "" {
				body["idempotency_key"] = idempotencyKey
			}
			return doRequest(http.MethodPost, "/api/v1/transfers", body)
		},
	}
	cmd.Flags().Int64Var(&from, "from", 0, "Source account ID")
	cmd.Flags().Int64Var(&to, "to", 0, "Destination account ID")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount, e.g. 150.00")
	cmd.Flags().StringVar(&description, "description", "", "Optional description")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Optional idempotency key")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func depositCmd() *cobra.Command {
	var to int64
	var amount, description, idempotencyKey string

	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Deposit external money into an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"destination_account_id": to,
				"amount":                 amount,
			}
			if description != "" {
				body["description"] = description
			}
			if idempotencyKey != "" {
				body["idempotency_key"] = idempotencyKey
			}
			return doRequest(http.MethodPost, "/api/v1/deposits", body)
		},
	}
	cmd.Flags().Int64Var(&to, "to", 0, "Destination account ID")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount, e.g. 150.00")
	cmd.Flags().StringVar(&description, "description", "", "Optional description")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Optional idempotency key")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkConsistency()
		},
	}

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Reconcile every account and print discrepancies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, "/api/v1/ledger/reconciliation", nil)
		},
	}

	cmd.AddCommand(consistencyCmd, reportCmd)
	return cmd
}

func checkConsistency() error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/ledger/consistency")
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("consistency check failed (status: %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	var result struct {
		Consistent bool   `json:"consistent"`
		Detail     string `json:"detail"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Consistent {
		fmt.Println("Consistency check PASSED")
		return nil
	}

	fmt.Println("Consistency check FAILED")
	if result.Detail != "" {
		fmt.Printf("Detail: %s\n", result.Detail)
	}
	return fmt.Errorf("ledger is inconsistent")
}

// doRequest issues a request and pretty-prints the JSON response.
func doRequest(method, path string, body any) error {
	client := &http.Client{Timeout: timeout}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed (status: %d): %s", resp.StatusCode, truncate(string(data), 200))
	}

	if len(data) == 0 {
		fmt.Printf("OK (status: %d)\n", resp.StatusCode)
		return nil
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		fmt.Println(string(data))
		return nil
	}
	printJSON(decoded)
	return nil
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render response: %v\n", err)
		return
	}
	fmt.Println(string(data))
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
