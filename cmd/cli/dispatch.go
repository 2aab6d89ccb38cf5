package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcelsud/pixbridge/integration"
	"github.com/marcelsud/pixbridge/integration/transport"
	"github.com/marcelsud/pixbridge/presets"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const cliSystemID = "cli"

// endpointFlags are shared by dispatch and webhook
func endpointFlags(cmd *cobra.Command) {
	cmd.Flags().String("preset", "", "Use a preset's endpoint instead of an explicit URL")
	cmd.Flags().String("presets-file", "", "Presets YAML file to merge over the built-ins")
	cmd.Flags().String("api-key", "", "Bearer token sent as Authorization")
	cmd.Flags().Int("timeout-ms", 0, "Per-attempt timeout in milliseconds (default 10000)")
	cmd.Flags().Int("retries", integration.DefaultMaxRetries, "Retries after the first attempt")
}

// resolveSystem builds the system a one-off command talks to
func resolveSystem(cmd *cobra.Command, url string) (integration.System, error) {
	apiKey, _ := cmd.Flags().GetString("api-key")

	if name, _ := cmd.Flags().GetString("preset"); name != "" {
		loader := presets.NewLoader()
		if file, _ := cmd.Flags().GetString("presets-file"); file != "" {
			if err := loader.Load(file); err != nil {
				return integration.System{}, err
			}
		}
		preset, err := loader.Get(name)
		if err != nil {
			return integration.System{}, err
		}
		return preset.System(apiKey), nil
	}

	timeoutMS, _ := cmd.Flags().GetInt("timeout-ms")
	retries, _ := cmd.Flags().GetInt("retries")
	system := integration.System{
		Name: cliSystemID,
		Kind: integration.API,
		Config: integration.EndpointConfig{
			APIURL:     url,
			APIKey:     apiKey,
			Timeout:    time.Duration(timeoutMS) * time.Millisecond,
			MaxRetries: retries,
		},
		Active: true,
	}
	return system, system.Validate()
}

func newRegistry(cmd *cobra.Command) *integration.Registry {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := zerolog.Nop()
	if verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
	}
	return integration.NewRegistry(transport.NewClient(transport.WithLogger(logger)), integration.WithLogger(logger))
}

func dispatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dispatch [url]",
		Short: "Call an endpoint once, with retries, and print the JSON result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var url string
			if len(args) > 0 {
				url = args[0]
			}
			system, err := resolveSystem(cmd, url)
			if err != nil {
				return err
			}

			var payload any
			if raw, _ := cmd.Flags().GetString("payload"); raw != "" {
				if !json.Valid([]byte(raw)) {
					return fmt.Errorf("--payload is not valid JSON")
				}
				payload = json.RawMessage(raw)
			}

			registry := newRegistry(cmd)
			if err := registry.Register(cliSystemID, system); err != nil {
				return err
			}

			result, err := registry.Dispatch(cmd.Context(), cliSystemID, payload)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(result))
			return nil
		},
	}
	endpointFlags(cmd)
	cmd.Flags().StringP("payload", "p", "", "JSON body; without it the call is a GET")
	cmd.Flags().BoolP("verbose", "v", false, "Log attempts to stderr")
	return cmd
}

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook [url] [event]",
		Short: "Deliver one webhook envelope to url",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _ := cmd.Flags().GetString("secret")
			cfg := integration.EndpointConfig{
				APIURL:        args[0],
				WebhookURL:    args[0],
				WebhookSecret: secret,
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			var data any
			if raw, _ := cmd.Flags().GetString("data"); raw != "" {
				if !json.Valid([]byte(raw)) {
					return fmt.Errorf("--data is not valid JSON")
				}
				data = json.RawMessage(raw)
			}

			if err := transport.NewClient().Notify(cmd.Context(), cfg, args[1], data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "delivered %s to %s\n", args[1], args[0])
			return nil
		},
	}
	cmd.Flags().StringP("data", "d", "", "JSON data for the envelope")
	cmd.Flags().String("secret", "", "whsec_ secret; signs the delivery when set")
	return cmd
}
