package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

/* cli is the operator tool: inspect and validate presets, probe the network
 * and dispatch one-off calls or webhooks without running the API
 */

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pixbridge",
		Short:         "pixbridge - external system integration toolkit",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(presetsCmd())
	root.AddCommand(probeCmd())
	root.AddCommand(dispatchCmd())
	root.AddCommand(webhookCmd())

	return root
}
