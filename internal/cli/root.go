// Package cli holds the hostsync command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/hostsync/internal/config"
	"github.com/MrSnakeDoc/hostsync/internal/logger"
	"github.com/MrSnakeDoc/hostsync/internal/version"
)

// globalFlags override the matching environment variables when set.
type globalFlags struct {
	file      string
	logLevel  string
	pretty    bool
	groupSync string
}

func (f *globalFlags) apply(cfg *config.Config, cmd *cobra.Command) {
	if f.file != "" {
		cfg.DesiredFile = f.file
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if fl := cmd.Flag("pretty"); fl != nil && fl.Changed {
		cfg.PrettyLog = f.pretty
	}
	if f.groupSync != "" {
		cfg.GroupSync = f.groupSync
	}
}

// load reads the environment, applies flag overrides and builds the logger.
func (f *globalFlags) load(cmd *cobra.Command) (*config.Config, logger.Logger) {
	cfg := config.Load()
	f.apply(cfg, cmd)
	return cfg, logger.New(cfg.LogLevel, cfg.PrettyLog)
}

func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "hostsync",
		Short: "Converge monitoring server hosts to a declared state",
		Long: `hostsync reads a YAML file of desired hosts and converges the host
inventory of a monitoring server to it: interface, groups, templates,
macros, proxy, inventory mode and web checks.

Run it once with "apply", preview with "plan", or keep it running with
"serve" to reconcile on an interval and whenever the file changes.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.file, "file", "f", "", "desired hosts file (overrides HOSTSYNC_DESIRED_FILE)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&flags.pretty, "pretty", false, "human readable colored logs")
	pf.StringVar(&flags.groupSync, "group-sync", "", "group sync mode: replace or explicit-remove")

	root.AddCommand(
		newServeCmd(flags),
		newApplyCmd(flags),
		newPlanCmd(flags),
		newVersionCmd(),
	)
	root.SetVersionTemplate("{{.Version}}\n")
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
