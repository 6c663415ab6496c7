// Package cli implements the trestle command-line interface.
//
// Commands:
//   - validate: repair an assembly and print the report
//   - export: validate and write scene.json and STL files
//   - graph: draw the connectivity graph as DOT or SVG
//   - rules: evaluate a rule file and print its declarations
//   - run: the full pipeline from a fixture
//   - serve: the HTTP API
//
// All commands accept --verbose (-v) for debug logging and --config for a
// trestle.toml. The logger and configuration travel in the command context.
package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chazu/trestle/internal/config"
	"github.com/chazu/trestle/pkg/errors"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the values shown by --version. main calls it with
// ldflags-injected build info.
func SetVersion(v, c, d string) {
	version, commit, date = v, c, d
}

// Execute runs the CLI until the command returns or ctx is cancelled.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:   "trestle",
		Short: "Repair LLM-generated furniture assemblies",
		Long: `Trestle takes the primitive components a model generated for a piece of
furniture and makes them physically coherent: legs reach the floor, surfaces
rest on their supports, and declared connections actually touch.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx := withLogger(cmd.Context(), logger)
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("trestle %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")

	root.AddCommand(newValidateCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newRulesCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())
	return root
}

// exitCode maps an error to a process exit status: 2 when the assembly was
// rejected (validation errors under --strict), 1 for everything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errors.ErrCodeRejected):
		return 2
	default:
		return 1
	}
}

// Main runs the CLI and returns the process exit status, printing the error
// to stderr.
func Main(ctx context.Context) int {
	err := Execute(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(iconError)+" "+err.Error())
	}
	return exitCode(err)
}
