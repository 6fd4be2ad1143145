package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/upf/internal/cli/formatter"
	"github.com/alexanderramin/upf/internal/service"
)

func newInfoCmd(app *App) *cobra.Command {
	var asJSON bool
	var tree bool

	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Show a schedule's summary without writing output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.conversions()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening input: %w", err)
			}
			defer f.Close()

			out, err := svc.Inspect(cmd.Context(), service.Upload{Filename: filepath.Base(args[0]), Body: f})
			if err != nil {
				return reportConversionError(cmd.ErrOrStderr(), err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), toInfoJSON(args[0], out.ProjectInfo))
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProjectInfo(out.ProjectInfo, args[0], tree))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	cmd.Flags().BoolVar(&tree, "tree", false, "Include the task outline")

	return cmd
}
