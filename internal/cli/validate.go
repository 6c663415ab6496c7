package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/trestle/pkg/errors"
	"github.com/chazu/trestle/pkg/scene"
)

func newValidateCmd() *cobra.Command {
	var (
		in     inputFlags
		out    string
		asJSON bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "validate <components.json>",
		Short: "Repair an assembly and report what changed",
		Long: `Validate grounds the assembly, aligns surfaces with their supports, snaps
declared connections together and checks declared patterns. The input file
is not modified; use --out to write the repaired components.

Use "-" to read components from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prog := newProgress(loggerFromContext(ctx))

			input, err := loadAssembly(ctx, cmd, args[0], &in)
			if err != nil {
				return err
			}
			res := input.validate()
			prog.done("validated", "components", len(res.Components))

			if out != "" {
				if err := writeComponents(out, res.Components); err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "encode result")
				}
			} else {
				printReport(cmd.OutOrStdout(), args[0], res.Report)
			}

			if strict && res.Report.HasErrors() {
				return errors.New(errors.ErrCodeRejected, "%d validation errors", len(res.Report.Errors()))
			}
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "write repaired components to this file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when the report has errors")
	return cmd
}

func writeComponents(path string, comps []scene.Component) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "create %s", path)
	}
	if err := scene.Encode(f, comps); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "close %s", path)
	}
	return nil
}
