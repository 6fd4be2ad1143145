package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/upf/internal/cli/formatter"
	"github.com/alexanderramin/upf/internal/service"
)

func newConvertCmd(app *App) *cobra.Command {
	var output string
	var toStdout bool
	var force bool

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a schedule file to MSPDI XML",
		Long: `Convert reads a legacy binary, structured binary, template or MSPDI XML
schedule and writes MSPDI XML. The output lands next to the input with an
.xml extension unless -o or --stdout is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && toStdout {
				return errors.New("--output and --stdout are mutually exclusive")
			}
			input, err := inputPath(app, args)
			if err != nil {
				return err
			}
			svc, err := app.conversions()
			if err != nil {
				return err
			}

			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("opening input: %w", err)
			}
			defer f.Close()

			stop := func() {}
			if app.interactive() && !toStdout {
				stop = formatter.StartSpinner(cmd.ErrOrStderr(), "Converting "+filepath.Base(input))
			}
			out, err := svc.Convert(cmd.Context(), service.Upload{Filename: filepath.Base(input), Body: f})
			stop()
			if err != nil {
				return reportConversionError(cmd.ErrOrStderr(), err)
			}

			if toStdout {
				_, err := cmd.OutOrStdout().Write(out.XML)
				return err
			}

			dest := output
			if dest == "" {
				dest = defaultOutputPath(input)
			}
			if _, err := os.Stat(dest); err == nil && !force {
				if !app.interactive() {
					return fmt.Errorf("%s already exists (use --force to overwrite)", dest)
				}
				if !confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Overwrite %s? [y/N]: ", dest)) {
					return errAborted
				}
			}
			if err := writeFileAtomic(dest, out.XML); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatConversion(out.ConvertResult, input, dest))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the XML to this path")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Write the XML to standard output")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing output file")

	return cmd
}

// inputPath takes the file argument, or asks for one on a terminal.
func inputPath(app *App, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if !app.interactive() {
		return "", errors.New("an input file is required")
	}
	prompt := app.PromptPath
	if prompt == nil {
		prompt = huhPromptPath
	}
	var path string
	if err := prompt("Schedule file to convert", &path); err != nil {
		return "", err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("an input file is required")
	}
	return path, nil
}

// defaultOutputPath places the XML beside input. An input that already
// ends in .xml gets a _converted suffix instead of being overwritten.
func defaultOutputPath(input string) string {
	dest := filepath.Join(filepath.Dir(input), service.OutputFilename(filepath.Base(input)))
	if strings.EqualFold(filepath.Clean(dest), filepath.Clean(input)) {
		dest = strings.TrimSuffix(dest, ".xml") + "_converted.xml"
	}
	return dest
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upf-*.xml")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}
