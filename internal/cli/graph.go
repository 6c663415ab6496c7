package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/trestle/pkg/assembly"
	"github.com/chazu/trestle/pkg/errors"
	"github.com/chazu/trestle/pkg/render"
)

func newGraphCmd() *cobra.Command {
	var (
		in     inputFlags
		format string
		output string
		raw    bool
		roles  bool
	)

	cmd := &cobra.Command{
		Use:   "graph <components.json>",
		Short: "Draw the connectivity graph of an assembly",
		Long: `Graph validates the assembly and draws which components touch. Components
with violations are colored; use --raw to draw the input as given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			input, err := loadAssembly(ctx, cmd, args[0], &in)
			if err != nil {
				return err
			}

			var (
				g   *assembly.Graph
				rep *assembly.Report
			)
			if raw {
				g = assembly.BuildConnectivity(input.comps, input.opts.Tolerance)
			} else {
				res := input.validate()
				g, rep = res.Graph, &res.Report
			}
			dot := render.ToDOT(g, render.Options{Report: rep, Roles: roles})

			var data []byte
			switch format {
			case "dot":
				data = []byte(dot)
			case "svg":
				if data, err = render.RenderSVG(ctx, dot); err != nil {
					return err
				}
			default:
				return errors.New(errors.ErrCodeUnsupported, "format %q: expected dot or svg", format)
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "write %s", output)
			}
			loggerFromContext(ctx).Info("wrote graph", "path", output, "nodes", g.Len())
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", styleSuccess.Render(iconSuccess), output)
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&raw, "raw", false, "draw the input without validating")
	cmd.Flags().BoolVar(&roles, "roles", false, "label components with their detected roles")
	return cmd
}
