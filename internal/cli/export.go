package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/trestle/pkg/export"
	"github.com/chazu/trestle/pkg/kernel/sdfx"
)

func newExportCmd() *cobra.Command {
	var (
		in     inputFlags
		dir    string
		stl    bool
		meshes bool
		cells  int
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "export <components.json>",
		Short: "Validate an assembly and write it as a scene directory",
		Long: `Export validates the assembly and writes scene.json plus, with --stl, one
STL file per component. Use --raw to export the components as given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := configFromContext(ctx).Export

			input, err := loadAssembly(ctx, cmd, args[0], &in)
			if err != nil {
				return err
			}
			comps := input.comps
			if !raw {
				res := input.validate()
				printReport(cmd.ErrOrStderr(), args[0], res.Report)
				comps = res.Components
			}

			if !cmd.Flags().Changed("dir") {
				dir = cfg.Dir
			}
			if !cmd.Flags().Changed("stl") {
				stl = cfg.STL
			}
			if !cmd.Flags().Changed("meshes") {
				meshes = cfg.Meshes
			}
			if !cmd.Flags().Changed("cells") {
				cells = cfg.MeshCells
			}

			prog := newProgress(logger)
			e := &export.Exporter{
				Builder: export.NewBuilder(sdfx.New(sdfx.WithMeshCells(cells)), logger),
				Dir:     dir,
				STL:     stl,
				Meshes:  meshes,
			}
			art, err := e.Export(ctx, comps)
			if err != nil {
				return err
			}
			prog.done("exported", "dir", art.Dir, "stl", len(art.STL))
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", styleSuccess.Render(iconSuccess), art.Scene)
			for _, p := range art.STL {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", styleSuccess.Render(iconSuccess), p)
			}
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&dir, "dir", "d", "out", "output directory")
	cmd.Flags().BoolVar(&stl, "stl", true, "write one STL file per component")
	cmd.Flags().BoolVar(&meshes, "meshes", false, "embed tessellated meshes in scene.json")
	cmd.Flags().IntVar(&cells, "cells", sdfx.DefaultMeshCells, "marching cubes resolution")
	cmd.Flags().BoolVar(&raw, "raw", false, "skip validation")
	return cmd
}
