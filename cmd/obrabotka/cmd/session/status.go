package session

import (
	"github.com/spf13/cobra"

	"github.com/EvTKi/Obrabotka-Jeka-remake/cmd/application"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "status SESSION",
		GroupID: "workflow",
		Short:   "Show the state of a saved session",
		Long: `Status shows where a session stands. An analyzed session lists every
value with its role or candidates; a submitted session lists the category
summaries returned by processing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, path, err := load(cmd, app, args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), app, newView(s, path), tablesFor(s))
		},
	}
}
