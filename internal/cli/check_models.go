package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"alloy-predictor/internal/app"
	"alloy-predictor/internal/common/config"
	"alloy-predictor/internal/common/logger"
	"alloy-predictor/internal/modelstore"
)

func newCheckModelsCommand(flags *globalFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check-models",
		Short: "Load the configured model artifacts and describe them",
		Long: `Load all three model artifacts exactly as the server would and
print a summary of each. Exits non-zero if any artifact is missing,
invalid or assigned to the wrong slot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(flags.loadOptions())
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}

			store, err := modelstore.LoadStore(app.ModelPaths(cfg.Models), logger.NewStructured("warn", "console"))
			if err != nil {
				return err
			}

			summaries := store.Summaries()
			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SLOT\tNAME\tTYPE\tTREES\tCLASSES")
			for _, slot := range modelstore.Slots {
				s := summaries[slot]
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", slot, s.Name, s.ModelType, s.Trees, strings.Join(s.Classes, ","))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}
