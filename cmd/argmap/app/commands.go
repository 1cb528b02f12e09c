package app

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/argmap/cmd/argmap/cmd/export"
	"github.com/agentstation/argmap/cmd/argmap/cmd/importer"
	"github.com/agentstation/argmap/cmd/argmap/cmd/inspect"
	"github.com/agentstation/argmap/internal/cmd/output"
)

// NewImportCommand creates the import command with app dependencies.
func (a *App) NewImportCommand() *cobra.Command {
	return importer.NewCommand(a)
}

// NewExportCommand creates the export command with app dependencies.
func (a *App) NewExportCommand() *cobra.Command {
	return export.NewCommand(a)
}

// NewInspectCommand creates the inspect command with app dependencies.
func (a *App) NewInspectCommand() *cobra.Command {
	return inspect.NewCommand(a)
}

// NewConfigCommand creates the config command.
func (a *App) NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		GroupID: "management",
		Short:   "Show configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the configuration after merging the config file, ARGMAP_*
environment variables, .env files and flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter := output.NewFormatter(output.DetectFormat(a.config.Format))
			return formatter.Format(cmd.OutOrStdout(), a.config.Settings())
		},
	})

	return cmd
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := map[string]string{
				"version":    a.version,
				"commit":     a.commit,
				"built":      a.date,
				"built_by":   a.builtBy,
				"go_version": runtime.Version(),
				"platform":   runtime.GOOS + "/" + runtime.GOARCH,
			}
			formatter := output.NewFormatter(output.DetectFormat(a.config.Format))
			return formatter.Format(cmd.OutOrStdout(), info)
		},
	}
}
