package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	addr   string
	apiKey string
}

var rootCmd = &cobra.Command{
	Use:   "opsctl",
	Short: "Operator CLI for the renewal comparison API",
	Long: "opsctl drives the renewal review workflow from the terminal:\n" +
		"list the queue, inspect a comparison, acknowledge checks and\n" +
		"record decisions.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.addr, "addr", envOr("RENEWAL_OPS_ADDR", "http://localhost:8080"), "API base URL (default: $RENEWAL_OPS_ADDR)")
	pf.StringVar(&rootFlags.apiKey, "api-key", os.Getenv("RENEWAL_OPS_API_KEY"), "API key (default: $RENEWAL_OPS_API_KEY)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(ackCmd)
	rootCmd.AddCommand(decideCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.Version = version
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
