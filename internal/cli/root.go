// Package cli implements trustguardctl, a command-line client for a running
// trustguard server.
package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

const defaultServer = "http://127.0.0.1:8080"

func NewRoot(version string) *cobra.Command {
	cfg := &clientConfig{}
	cmd := &cobra.Command{
		Use:           "trustguardctl",
		Short:         "trustguardctl: query a trustguard server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version
	cmd.SetVersionTemplate("trustguardctl {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&cfg.serverAddr, "server", getenvDefault("TRUSTGUARD_SERVER", defaultServer), "trustguard server base URL")
	cmd.PersistentFlags().DurationVar(&cfg.timeout, "timeout", 30*time.Second, "Request timeout")

	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newCheckTokenCmd())
	cmd.AddCommand(newCheckWalletCmd())
	cmd.AddCommand(newCheckNFTCmd())
	cmd.AddCommand(newCheckURLCmd())
	cmd.AddCommand(newSimulateSolTxCmd())
	cmd.AddCommand(newCheckSolTokenCmd())
	cmd.AddCommand(newVerifyDonationCmd())
	cmd.AddCommand(newCausesCmd())

	return cmd
}

type clientConfig struct {
	serverAddr string
	timeout    time.Duration
}

func getClientConfig(cmd *cobra.Command) *clientConfig {
	serverAddr, _ := cmd.Root().PersistentFlags().GetString("server")
	timeout, _ := cmd.Root().PersistentFlags().GetDuration("timeout")
	if serverAddr == "" {
		serverAddr = defaultServer
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &clientConfig{serverAddr: serverAddr, timeout: timeout}
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
