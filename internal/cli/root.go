package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/upf/internal/config"
	"github.com/alexanderramin/upf/internal/format"
	"github.com/alexanderramin/upf/internal/service"
)

// App holds the dependencies shared by every command. Fields left nil fall
// back to terminal defaults; tests replace them with fakes.
type App struct {
	Config      config.Config
	Conversions service.ConversionService
	Sniffer     *format.Sniffer
	Version     string

	// Init runs after configuration is resolved and before any command.
	// It builds Conversions and Serve from the final settings.
	Init func(cfg config.Config) error

	// Serve runs the HTTP adapter until ctx is cancelled.
	Serve func(ctx context.Context, cfg config.ServerConfig) error

	IsInteractive func() bool
	PromptPath    func(title string, value *string) error
	Browse        func(m tea.Model) error
	Now           func() time.Time
}

var errNoConverter = errors.New("conversion service is not configured")

// NewRootCmd creates the top-level "upf" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "upf",
		Short:         "Convert project schedules to MSPDI XML",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Resolve(cmd.Flags())
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			app.Config = cfg
			if app.Init != nil {
				return app.Init(cfg)
			}
			return nil
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newConvertCmd(app),
		newInfoCmd(app),
		newSniffCmd(app),
		newServeCmd(app),
		newHistoryCmd(app),
		newVersionCmd(app),
	)
	return root
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) sniffer() *format.Sniffer {
	if a.Sniffer != nil {
		return a.Sniffer
	}
	return format.NewSniffer(a.Config.Convert.SniffPrefix)
}

func (a *App) conversions() (service.ConversionService, error) {
	if a.Conversions == nil {
		return nil, errNoConverter
	}
	return a.Conversions, nil
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the upf version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := app.Version
			if v == "" {
				v = "dev"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "upf %s\n", v)
			return nil
		},
	}
}
