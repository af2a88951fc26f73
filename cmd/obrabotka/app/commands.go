package app

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/EvTKi/Obrabotka-Jeka-remake/cmd/obrabotka/cmd/serve"
	"github.com/EvTKi/Obrabotka-Jeka-remake/cmd/obrabotka/cmd/session"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Workflow commands
	rootCmd.AddCommand(session.NewAnalyzeCommand(a))
	rootCmd.AddCommand(session.NewChooseCommand(a))
	rootCmd.AddCommand(session.NewStatusCommand(a))
	rootCmd.AddCommand(session.NewSubmitCommand(a))
	rootCmd.AddCommand(session.NewDownloadCommand(a))
	rootCmd.AddCommand(session.NewPreviewCommand(a))

	// Service commands
	rootCmd.AddCommand(serve.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.NewVersionCommand())
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("obrabotka %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:     %s\n", a.commit)
				cmd.Printf("  built:      %s\n", a.date)
				cmd.Printf("  built by:   %s\n", a.builtBy)
				cmd.Printf("  go version: %s\n", runtime.Version())
				cmd.Printf("  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
			}
		},
	}
}
