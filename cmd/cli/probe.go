package main

import (
	"fmt"

	"github.com/marcelsud/pixbridge/connection"
	"github.com/spf13/cobra"
)

func probeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check connectivity and rate the connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("url")
			monitor := connection.NewMonitor(connection.WithProbeURL(url))

			quality := monitor.Quality(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "probe:   %s\nquality: %s\n", url, quality)
			if quality == connection.Offline {
				return fmt.Errorf("%s is unreachable", url)
			}
			return nil
		},
	}
	cmd.Flags().String("url", connection.DefaultProbeURL, "Probe URL")
	return cmd
}
