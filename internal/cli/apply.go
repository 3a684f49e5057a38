package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/hostsync/internal/app"
	"github.com/MrSnakeDoc/hostsync/internal/reconcile"
	"github.com/MrSnakeDoc/hostsync/internal/sources/desired"
)

func newApplyCmd(flags *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Run one reconciliation pass and exit",
		Long: `Run one reconciliation pass against the monitoring server.

Hosts are converged one after the other. A failing host does not stop the
others; the command exits non-zero when any host failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log := flags.load(cmd)
			defer func() { _ = log.Sync() }()

			hosts, err := desired.LoadHosts(cfg.DesiredFile)
			if err != nil {
				return err
			}
			r, err := app.NewReconciler(cfg, log, false)
			if err != nil {
				return err
			}

			report, runErr := r.Run(cmd.Context(), hosts)
			if err := render(cmd.OutOrStdout(), output, report); err != nil {
				return err
			}
			return applyError(report, runErr)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	return cmd
}

// applyError summarises host failures. Fetch failures and cancellation are
// returned as is.
func applyError(report reconcile.PassReport, runErr error) error {
	if runErr == nil {
		return nil
	}
	if report.FetchError != "" || report.Failed() == 0 {
		return runErr
	}
	return fmt.Errorf("%d of %d hosts failed", report.Failed(), len(report.Hosts))
}
