package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apphttp "alloy-predictor/internal/common/http"
)

func newHealthCommand() *cobra.Command {
	var (
		baseURL    string
		ready      bool
		timeout    time.Duration
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check if a running alloy-predictor server is healthy",
		Long:  `Probe /health (or /ready with --ready) and exit non-zero unless it answers 200.`,
		Example: `  # Check the local development server
  alloy-predictor health

  # Wait-for-ready probe against a container
  alloy-predictor health --url http://0.0.0.0:5000 --ready`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/health"
			if ready {
				path = "/ready"
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client := apphttp.NewClient(timeout)
			status, err := client.CheckHealth(ctx, baseURL, path)
			if err != nil {
				return fmt.Errorf("server is unhealthy: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return json.NewEncoder(out).Encode(status)
			}
			fmt.Fprintf(out, "%s: %s", baseURL+path, status.Status)
			if status.Profile != "" {
				fmt.Fprintf(out, " (profile %s)", status.Profile)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://127.0.0.1:5000", "Base URL of the server")
	cmd.Flags().BoolVar(&ready, "ready", false, "Probe /ready instead of /health")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Request timeout")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}
