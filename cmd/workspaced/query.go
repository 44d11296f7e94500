package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/pushchain/evm-workspace-demo/workspace/api"
)

// Output formats
const (
	OutputFormatYAML = "yaml"
	OutputFormatJSON = "json"
)

const queryTimeout = 10 * time.Second

// QueryResponse represents the standard query response format from HTTP API
type QueryResponse struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// ErrorResponse represents an error response from HTTP API
type ErrorResponse struct {
	Error string `json:"error"`
}

// TransactionsOutput represents the output format for journal listings
type TransactionsOutput struct {
	Transactions []api.Transaction `yaml:"transactions" json:"transactions"`
	Timestamp    time.Time         `yaml:"timestamp" json:"timestamp"`
}

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query",
		Aliases: []string{"q"},
		Short:   "Query a running workspaced instance",
	}

	cmd.PersistentFlags().String("node", "", "Query server URL (default: http://localhost:<query_server_port>)")
	cmd.PersistentFlags().StringP("output", "o", OutputFormatYAML, "Output format (yaml|json)")

	cmd.AddCommand(
		statusQueryCmd(),
		transactionsQueryCmd(),
		transactionQueryCmd(),
	)
	return cmd
}

func statusQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Query the current run and sandbox head",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var status api.StatusInfo
			if _, err := queryServer(cmd, "/api/v1/status", nil, &status); err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), status, outputFormat(cmd))
		},
	}
}

func transactionsQueryCmd() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List journaled transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			if runID != "" {
				params.Set("run", runID)
			}

			var txs []api.Transaction
			ts, err := queryServer(cmd, "/api/v1/transactions", params, &txs)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), TransactionsOutput{Transactions: txs, Timestamp: ts}, outputFormat(cmd))
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Only list transactions of this run")
	return cmd
}

func transactionQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tx [hash]",
		Short: "Query one journaled transaction by hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tx api.Transaction
			if _, err := queryServer(cmd, "/api/v1/transactions/"+url.PathEscape(args[0]), nil, &tx); err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), tx, outputFormat(cmd))
		},
	}
}

// queryServer performs a GET against the query API and decodes the data field
// of the response into out.
func queryServer(cmd *cobra.Command, path string, params url.Values, out interface{}) (time.Time, error) {
	base, err := queryServerURL(cmd)
	if err != nil {
		return time.Time{}, err
	}
	target := base + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	client := &http.Client{Timeout: queryTimeout}
	resp, err := client.Get(target)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return time.Time{}, fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return time.Time{}, fmt.Errorf("server error: %s", errResp.Error)
	}

	var queryResp QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if err := json.Unmarshal(queryResp.Data, out); err != nil {
		return time.Time{}, fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return queryResp.Timestamp, nil
}

func queryServerURL(cmd *cobra.Command) (string, error) {
	node, _ := cmd.Flags().GetString("node")
	if node != "" {
		return node, nil
	}
	cfg, err := loadConfig(homeDir(cmd))
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	return fmt.Sprintf("http://localhost:%d", cfg.QueryServerPort), nil
}

func outputFormat(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("output")
	return format
}

func printOutput(w io.Writer, data interface{}, format string) error {
	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(data)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
