// Package cli provides the alloy-predictor command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"alloy-predictor/internal/common/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	profile    string
}

func (g *globalFlags) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFile: g.configFile, Profile: g.profile}
}

// NewRootCommand builds the command tree. Running the root without a
// subcommand starts the server.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "alloy-predictor",
		Short: "Serve alloy property predictions over HTTP",
		Long: `alloy-predictor loads three pre-trained models and serves
yield strength, tensile strength and elongation class predictions
for a 14-element alloy composition on POST /predict.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Path to config file (default: configs/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&flags.profile, "profile", "p", "", "Runtime profile: development or production (default: $APP_PROFILE)")

	rootCmd.AddCommand(newServeCommand(flags))
	rootCmd.AddCommand(newCheckModelsCommand(flags))
	rootCmd.AddCommand(newHealthCommand())
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
