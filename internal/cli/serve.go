package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"wattsup/internal/reference"
	"wattsup/internal/render"
	"wattsup/internal/server"
)

const shutdownTimeout = 10 * time.Second

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve saved canvases over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			if addr == "" {
				addr = c.cfg.Server.Addr
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(context.WithoutCancel(ctx))

			ref, err := c.referenceClient(ctx)
			if errors.Is(err, reference.ErrNotConfigured) {
				logger.Warn("reference lookups disabled: no API key configured")
			} else if err != nil {
				return err
			}

			timeout, _ := c.cfg.StoreTimeout()
			srv := server.New(server.Options{
				Store:     st,
				Exporter:  render.NewExporter(c.exportConfig(""), nil, logger),
				Reference: ref,
				Pro:       c.cfg.Pro,
				GridSize:  c.cfg.GridSize,
				Timeout:   timeout,
				Logger:    logger,
			})

			l, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}
			return srv.Serve(ctx, l, shutdownTimeout)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config)")
	return cmd
}
