package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/trestle/internal/config"
	"github.com/chazu/trestle/pkg/assembly"
	"github.com/chazu/trestle/pkg/errors"
	"github.com/chazu/trestle/pkg/rules"
	"github.com/chazu/trestle/pkg/scene"
)

// inputFlags are shared by every command that validates an assembly.
type inputFlags struct {
	rules       string
	connections string
	rerun       bool
	bridge      bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.rules, "rules", "r", "", "rule file declaring connections, patterns and overrides")
	cmd.Flags().StringVar(&f.connections, "connections", "", "connection map (JSON or YAML)")
	cmd.Flags().BoolVar(&f.rerun, "rerun", false, "run ground, support and snap a second time")
	cmd.Flags().BoolVar(&f.bridge, "bridge", false, "insert connectors between declared pairs that are both fixed")
}

// assemblyInput is a decoded component list with everything the validator
// needs to run on it.
type assemblyInput struct {
	comps    []scene.Component
	opts     assembly.Options
	conns    assembly.Connections
	patterns []assembly.PatternSpec
}

// readComponents decodes path, or stdin when path is "-".
func readComponents(path string, stdin io.Reader) ([]scene.Component, error) {
	if path == "-" {
		return scene.Decode(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "components %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return scene.Decode(f)
}

// loadAssembly reads the components at path and layers options: config
// file, then rule file overrides, then command line flags.
func loadAssembly(ctx context.Context, cmd *cobra.Command, path string, f *inputFlags) (*assemblyInput, error) {
	logger := loggerFromContext(ctx)
	cfg := configFromContext(ctx)

	comps, err := readComponents(path, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	logger.Debug("read components", "path", path, "count", len(comps))

	in := &assemblyInput{comps: comps, opts: cfg.Options()}

	if f.rules != "" {
		r, err := rules.NewEngine().LoadFile(f.rules, comps)
		if err != nil {
			return nil, err
		}
		in.opts = r.Apply(in.opts)
		in.conns = r.ConnectionsOrNil()
		in.patterns = r.Patterns
		logger.Debug("loaded rules", "path", f.rules,
			"connections", len(r.Connections.Pairs()), "patterns", len(r.Patterns))
	}

	if f.connections != "" {
		extra, err := config.LoadConnections(f.connections)
		if err != nil {
			return nil, err
		}
		if in.conns == nil {
			in.conns = make(assembly.Connections)
		}
		for _, p := range extra.Pairs() {
			in.conns.Add(p.A, p.B)
		}
	}

	if cmd.Flags().Changed("rerun") {
		in.opts.Rerun = f.rerun
	}
	if cmd.Flags().Changed("bridge") {
		in.opts.BridgeFixedPairs = f.bridge
	}
	in.opts.Logger = logger
	return in, nil
}

// validate runs the validator over in.
func (in *assemblyInput) validate() assembly.Result {
	return assembly.New(in.opts).Validate(in.comps, in.conns, in.patterns)
}
