package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/upf/internal/cli/formatter"
	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/repository"
	"github.com/alexanderramin/upf/internal/service"
)

func newHistoryCmd(app *App) *cobra.Command {
	var limit int
	var asJSON bool
	var browse bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent conversions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must be >= 0, got %d", limit)
			}
			svc, err := app.conversions()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if browse {
				if !app.interactive() {
					return errors.New("--browse needs an interactive terminal")
				}
				return app.browse(newHistoryBrowser(ctx, svc, limit, app.now))
			}

			records, err := svc.Recent(ctx, limit)
			if err != nil {
				return historyError(err)
			}
			if asJSON {
				out := make([]recordJSON, 0, len(records))
				for _, r := range records {
					out = append(out, toRecordJSON(r))
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistory(records, app.now()))
			if len(records) == 0 {
				return nil
			}
			totals, err := svc.Totals(ctx)
			if err != nil {
				return historyError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", formatter.Dim(fmt.Sprintf("%d ok · %d failed in total",
				totals[domain.ConversionSucceeded], totals[domain.ConversionFailed])))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultHistoryLimit, "Number of conversions to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print conversions as JSON")
	cmd.Flags().BoolVar(&browse, "browse", false, "Browse conversions interactively")

	cmd.AddCommand(newHistoryShowCmd(app))
	return cmd
}

func newHistoryShowCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one conversion and its notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.conversions()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			id, err := resolveRecordID(ctx, svc, args[0])
			if err != nil {
				return err
			}
			entry, err := svc.Get(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("conversion %q not found", args[0])
				}
				return historyError(err)
			}

			if asJSON {
				out := toRecordJSON(entry.Record)
				out.Notes = toNotesJSON(entry.Notes)
				return writeJSON(cmd.OutOrStdout(), out)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistoryDetail(entry.Record, entry.Notes))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the conversion as JSON")

	return cmd
}

// fullIDLength is the length of a canonical record UUID.
const fullIDLength = 36

// resolveRecordID expands a short ID prefix, as printed by the history
// listing, to the full record ID. Full IDs pass through unchanged.
func resolveRecordID(ctx context.Context, svc service.ConversionService, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("conversion id is required")
	}
	if len(input) >= fullIDLength {
		return input, nil
	}

	records, err := svc.Recent(ctx, service.MaxHistoryLimit)
	if err != nil {
		return "", historyError(err)
	}
	var matches []string
	for _, r := range records {
		if strings.HasPrefix(r.ID, input) {
			matches = append(matches, r.ID)
		}
	}
	switch len(matches) {
	case 0:
		return input, nil
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

func (a *App) browse(m tea.Model) error {
	if a.Browse != nil {
		return a.Browse(m)
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
