package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/planpilot/planpilot/internal/config"
	"github.com/planpilot/planpilot/internal/schedsvc"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <project-id>",
	Short: "Export a project's current schedule",
	Long: `Fetch the project's schedule from the scheduling service and print
it to stdout as JSON or YAML.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.Service.BaseURL == "" {
			return fmt.Errorf("service.base_url is required (set PLANPILOT_SERVICE_URL or the config file)")
		}

		client, err := schedsvc.NewClient(schedsvc.ClientConfig{
			BaseURL: cfg.Service.BaseURL,
			Timeout: cfg.Service.Timeout,
		})
		if err != nil {
			return err
		}

		state, err := client.FetchState(context.Background(), args[0])
		if err != nil {
			return err
		}

		switch exportFormat {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(state)
		case "yaml":
			out, err := yaml.Marshal(state)
			if err != nil {
				return fmt.Errorf("encode yaml: %w", err)
			}
			_, err = os.Stdout.Write(out)
			return err
		default:
			return fmt.Errorf("unknown format %q: use json or yaml", exportFormat)
		}
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format: json or yaml")
}
