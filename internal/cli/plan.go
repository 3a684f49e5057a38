package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/hostsync/internal/app"
	"github.com/MrSnakeDoc/hostsync/internal/sources/desired"
)

func newPlanCmd(flags *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what apply would change without changing anything",
		Long: `Compare the desired hosts with the monitoring server and print the
properties that differ. Only reads are sent; names are not resolved to ids,
so a plan cannot detect a missing group or template.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log := flags.load(cmd)
			defer func() { _ = log.Sync() }()

			hosts, err := desired.LoadHosts(cfg.DesiredFile)
			if err != nil {
				return err
			}
			r, err := app.NewReconciler(cfg, log, true)
			if err != nil {
				return err
			}

			report, err := r.Run(cmd.Context(), hosts)
			if renderErr := render(cmd.OutOrStdout(), output, report); renderErr != nil {
				return renderErr
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	return cmd
}
