package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"wattsup/internal/render"
	"wattsup/internal/tui"
)

func (c *CLI) editCommand() *cobra.Command {
	var load bool
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Open the wiring diagram canvas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			logPath, err := c.cfg.LogPath()
			if err != nil {
				return err
			}
			logger, closer, err := newFileLogger(logPath, logLevel(c.verbose, c.cfg.Log.Level))
			if err != nil {
				return err
			}
			defer closer.Close()
			ctx = withLogger(ctx, logger)

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(context.WithoutCancel(ctx))

			grid := render.NewGrid(c.cfg.Canvas.ShowGrid)
			model := tui.New(tui.Options{
				Context:  ctx,
				Config:   c.cfg,
				Store:    st,
				Exporter: render.NewExporter(c.exportConfig(""), grid, logger),
				Grid:     grid,
				Logger:   logger,
				Load:     load,
			})

			logger.Info("starting editor", "user", c.cfg.UserID, "store", c.cfg.Store.Driver)
			p := tea.NewProgram(model,
				tea.WithContext(ctx),
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
			)
			final, err := p.Run()
			if err != nil {
				return fmt.Errorf("run editor: %w", err)
			}
			if m, ok := final.(tui.Model); ok && m.Editor() != nil {
				m.Editor().Close()
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&load, "load", "l", false, "open the last saved canvas")
	return cmd
}
