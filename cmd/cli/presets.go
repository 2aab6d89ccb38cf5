package main

import (
	"fmt"
	"strings"

	"github.com/marcelsud/pixbridge/presets"
	"github.com/spf13/cobra"
)

func presetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Inspect the preset catalog",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List built-in presets plus those in --file",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := presets.NewLoader()
			if file, _ := cmd.Flags().GetString("file"); file != "" {
				if err := loader.Load(file); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for _, p := range loader.List() {
				fmt.Fprintf(out, "%-14s %-10s %-48s timeout=%s retries=%d\n", p.Key, p.Kind, p.APIURL, p.Timeout, p.MaxRetries)
			}
			return nil
		},
	}
	list.Flags().StringP("file", "f", "", "Presets YAML file to merge over the built-ins")

	cmd.AddCommand(list)
	cmd.AddCommand(validateCmd())
	return cmd
}

// validateCmd checks a presets.yaml; a failure makes the command exit non-zero
func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [presets.yaml]",
		Short: "Validate a presets file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := "presets.yaml"
			if len(args) > 0 {
				file = args[0]
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Validating presets file: %s\n", file)
			fmt.Fprintln(out, strings.Repeat("-", 50))

			loader := presets.NewLoader()
			builtins := len(loader.List())
			if err := loader.Load(file); err != nil {
				fmt.Fprintf(out, "VALIDATION FAILED\n\n")
				return err
			}

			all := loader.List()
			fmt.Fprintf(out, "VALIDATION PASSED\n\n")
			fmt.Fprintf(out, "Catalog holds %d preset(s), %d built-in:\n", len(all), builtins)

			for i, p := range all {
				fmt.Fprintf(out, "\n%d. Preset: %s\n", i+1, p.Key)
				fmt.Fprintf(out, "   Name:        %s\n", p.Name)
				fmt.Fprintf(out, "   Kind:        %s\n", p.Kind)
				fmt.Fprintf(out, "   API URL:     %s\n", p.APIURL)
				fmt.Fprintf(out, "   Timeout:     %s\n", p.System("").Config.AttemptTimeout())
				fmt.Fprintf(out, "   Max Retries: %d\n", p.MaxRetries)
				if p.WebhookURL != "" {
					fmt.Fprintf(out, "   Webhook URL: %s\n", p.WebhookURL)
				}
			}
			return nil
		},
	}
}
