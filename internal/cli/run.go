package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/trestle/pkg/assembly"
	"github.com/chazu/trestle/pkg/errors"
	"github.com/chazu/trestle/pkg/export"
	"github.com/chazu/trestle/pkg/kernel/sdfx"
	"github.com/chazu/trestle/pkg/pipeline"
)

func newRunCmd() *cobra.Command {
	var (
		fixture       string
		decomposition string
		exportDir     string
		noCache       bool
	)

	cmd := &cobra.Command{
		Use:   "run <prompt>",
		Short: "Run the full pipeline offline from a fixture",
		Long: `Run sequences classify, decompose, generate, validate, materials and export.
Generation reads --fixture instead of calling a model, and the decomposition
comes from --decomposition when given. Generated components are cached under
the configured cache.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := configFromContext(ctx)

			var dec pipeline.StaticDecomposer
			if decomposition != "" {
				f, err := os.Open(decomposition)
				if err != nil {
					return errors.Wrap(errors.ErrCodeFileNotFound, err, "decomposition %s", decomposition)
				}
				d, err := pipeline.ReadDecomposition(f)
				f.Close()
				if err != nil {
					return err
				}
				dec.Decomposition = d
			}

			var gen pipeline.Generator = pipeline.FixtureGenerator{Path: fixture}
			if !noCache {
				c, err := cfg.OpenCache(ctx)
				if err != nil {
					return err
				}
				defer c.Close()
				gen = &pipeline.CachedGenerator{Inner: gen, Cache: c, TTL: cfg.Cache.TTL.Duration, Logger: logger}
			}

			opts := cfg.Options()
			opts.Logger = logger
			r := &pipeline.Runner{
				Classifier: pipeline.AcceptAll{},
				Decomposer: dec,
				Generator:  gen,
				Validator:  assembly.New(opts),
				Materials:  pipeline.PassthroughMaterials{},
				Logger:     logger,
			}
			if exportDir != "" {
				r.Exporter = &export.Exporter{
					Builder: export.NewBuilder(sdfx.New(sdfx.WithMeshCells(cfg.Export.MeshCells)), logger),
					Dir:     exportDir,
					STL:     cfg.Export.STL,
					Meshes:  cfg.Export.Meshes,
				}
			}

			out, err := r.Run(ctx, strings.Join(args, " "))
			if out != nil && out.Report != nil {
				printReport(cmd.ErrOrStderr(), "run", *out.Report)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "encode outcome")
			}
			if out.Artifact != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", styleSuccess.Render(iconSuccess), out.Artifact.Scene)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fixture, "fixture", "", "component JSON to use as the generator output")
	cmd.Flags().StringVar(&decomposition, "decomposition", "", "decomposition JSON")
	cmd.Flags().StringVar(&exportDir, "export", "", "export the result to this directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the generation cache")
	_ = cmd.MarkFlagRequired("fixture")
	return cmd
}
