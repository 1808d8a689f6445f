package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type manifest struct {
	Tools []struct {
		Function struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"function"`
	} `json:"tools"`
}

func newToolsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools advertised by the server manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(getClientConfig(cmd))
			body, err := client.raw(cmd.Context(), "/mcp.json")
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), body)
			}
			var m manifest
			if err := json.Unmarshal(body, &m); err != nil {
				return fmt.Errorf("decode manifest: %w", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, tool := range m.Tools {
				desc, _, _ := strings.Cut(tool.Function.Description, ". ")
				fmt.Fprintf(tw, "%s\t%s\n", tool.Function.Name, desc)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw manifest")
	return cmd
}

// toolCommand builds a subcommand that POSTs body() to path and prints the
// data member of the response.
func toolCommand(use, short, path string, args cobra.PositionalArgs, body func(args []string) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			payload, err := body(argv)
			if err != nil {
				return err
			}
			client := newAPIClient(getClientConfig(cmd))
			data, err := client.call(cmd.Context(), http.MethodPost, path, payload)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
}

func newCheckTokenCmd() *cobra.Command {
	var chainID int64
	cmd := toolCommand("check-token <address>", "Check an EVM token contract for scam indicators", "/check_token/", cobra.ExactArgs(1),
		func(args []string) (any, error) {
			return map[string]any{"address": args[0], "chain_id": chainID}, nil
		})
	cmd.Aliases = []string{"check_token"}
	cmd.Flags().Int64Var(&chainID, "chain-id", 1, "EVM chain id")
	return cmd
}

func newCheckWalletCmd() *cobra.Command {
	var chainID int64
	cmd := toolCommand("check-wallet <address>", "Check an EVM address for malicious history", "/check_wallet/", cobra.ExactArgs(1),
		func(args []string) (any, error) {
			return map[string]any{"address": args[0], "chain_id": chainID}, nil
		})
	cmd.Aliases = []string{"check_wallet"}
	cmd.Flags().Int64Var(&chainID, "chain-id", 1, "EVM chain id")
	return cmd
}

func newCheckNFTCmd() *cobra.Command {
	var chainID int64
	cmd := toolCommand("check-nft <contract> <token-id>", "Check an NFT for scam indicators", "/check_nft/", cobra.ExactArgs(2),
		func(args []string) (any, error) {
			return map[string]any{"contract": args[0], "token_id": args[1], "chain_id": chainID}, nil
		})
	cmd.Aliases = []string{"check_nft"}
	cmd.Flags().Int64Var(&chainID, "chain-id", 1, "EVM chain id")
	return cmd
}

func newCheckURLCmd() *cobra.Command {
	cmd := toolCommand("check-url <url>", "Run the phishing cascade against a URL", "/check_url/", cobra.ExactArgs(1),
		func(args []string) (any, error) {
			return map[string]any{"url": args[0]}, nil
		})
	cmd.Aliases = []string{"check_url"}
	return cmd
}

func newSimulateSolTxCmd() *cobra.Command {
	cmd := toolCommand("simulate-sol-tx <tx-base64>", "Pre-execution risk analysis of a Solana transaction", "/simulate_sol_tx/", cobra.ExactArgs(1),
		func(args []string) (any, error) {
			return map[string]any{"tx_base64": args[0]}, nil
		})
	cmd.Aliases = []string{"simulate_sol_tx"}
	return cmd
}

func newCheckSolTokenCmd() *cobra.Command {
	cmd := toolCommand("check-sol-token <mint>", "Check a Solana token mint for scam indicators", "/check_sol_token/", cobra.ExactArgs(1),
		func(args []string) (any, error) {
			return map[string]any{"address": args[0]}, nil
		})
	cmd.Aliases = []string{"check_sol_token"}
	return cmd
}

func newVerifyDonationCmd() *cobra.Command {
	var (
		chain   string
		chainID int64
	)
	cmd := toolCommand("verify-donation <tx-hash>", "Verify that a transaction paid a verified cause", "/verify_donation/", cobra.ExactArgs(1),
		func(args []string) (any, error) {
			body := map[string]any{"tx_hash": args[0]}
			switch chain {
			case "", "evm":
				if chainID <= 0 {
					return nil, fmt.Errorf("--chain-id is required for evm transactions")
				}
				body["chain_id"] = chainID
			case "solana":
				body["chain"] = chain
			default:
				return nil, fmt.Errorf("unknown chain %q (want evm or solana)", chain)
			}
			return body, nil
		})
	cmd.Aliases = []string{"verify_donation"}
	cmd.Flags().StringVar(&chain, "chain", "evm", "Chain family: evm or solana")
	cmd.Flags().Int64Var(&chainID, "chain-id", 0, "EVM chain id")
	return cmd
}

func newCausesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "causes",
		Aliases: []string{"list_verified_causes"},
		Short:   "List verified donation recipients",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(getClientConfig(cmd))
			data, err := client.call(cmd.Context(), http.MethodGet, "/causes/", nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
}
