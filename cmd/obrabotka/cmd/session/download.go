package session

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/EvTKi/Obrabotka-Jeka-remake/cmd/application"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/constants"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
)

// NewDownloadCommand creates the download command.
func NewDownloadCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "download SESSION",
		GroupID: "workflow",
		Short:   "Download the result workbook of a processed session",
		Long: `Download fetches the result workbook of a submitted session. By default
it is written to the current directory and named after the process id.
A failed download leaves the session completed and can be retried.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, app, args[0])
		},
	}
	cmd.Flags().StringP("output-file", "O", "", "file to write the workbook to")
	return cmd
}

func runDownload(cmd *cobra.Command, app application.Application, ref string) error {
	client, s, path, err := load(cmd, app, ref)
	if err != nil {
		return err
	}

	data, downloadErr := s.Download(cmd.Context())
	if err := store(app, client, s, path); err != nil {
		return err
	}
	if downloadErr != nil {
		return downloadErr
	}

	target, _ := cmd.Flags().GetString("output-file")
	if target == "" {
		target = fmt.Sprintf(constants.ResultFileFormat, s.Snapshot().Result.ProcessID)
	}
	if err := os.WriteFile(target, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", target, err)
	}

	app.Logger().Info().
		Str("session_id", s.ID).
		Str("file", target).
		Int("bytes", len(data)).
		Msg("Result downloaded")
	fmt.Fprintln(cmd.OutOrStdout(), target)
	return nil
}
