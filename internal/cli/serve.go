package cli

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/chazu/trestle/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the validation API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			s := server.New(cfg.Server, cfg.Options(), loggerFromContext(ctx))
			if err := s.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
