package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/upf/internal/cli/formatter"
)

func newSniffCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sniff <file>...",
		Short: "Detect the format of one or more files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sniffer := app.sniffer()
			rows := make([]formatter.SniffRow, 0, len(args))
			failed := 0
			for _, path := range args {
				row := formatter.SniffRow{Path: path}
				f, err := os.Open(path)
				if err != nil {
					row.Err = err
				} else {
					row.Format, _, row.Err = sniffer.Sniff(f)
					f.Close()
				}
				if row.Err != nil {
					failed++
				}
				rows = append(rows, row)
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSniffResults(rows))
			if failed > 0 {
				return fmt.Errorf("%d of %d files not recognized", failed, len(args))
			}
			return nil
		},
	}
}
