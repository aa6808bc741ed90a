// Package cli implements the wattsup command-line interface.
//
// # Commands
//
//   - edit: the interactive wiring diagram canvas
//   - takeoff: print the material list of the saved canvas
//   - export: write the saved canvas as PDF, JPEG or PNG
//   - serve: the HTTP API over saved canvases
//   - reference: NEC quick guide lookup for an installation scenario
//
// All commands read ~/.config/wattsup/config.toml (or --config) and log
// through charmbracelet/log; --verbose switches to debug level.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wattsup/internal/config"
	"wattsup/internal/diagram"
	"wattsup/internal/editor"
	"wattsup/internal/render"
	"wattsup/internal/store"
)

const appName = "wattsup"

var version = "dev"

// SetVersion sets the string printed by --version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// CLI holds state shared by every command.
type CLI struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

func New() *CLI {
	return &CLI{}
}

// RootCommand builds the command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "WattsUp draws residential wiring diagrams and counts materials",
		Long:         `WattsUp is a wiring diagram canvas for electricians: place outlets, switches and fixtures on a grid, wire them together and get a live material takeoff.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			logger := newLogger(cmd.ErrOrStderr(), logLevel(c.verbose, cfg.Log.Level))
			cmd.SetContext(withLogger(cmd.Context(), logger))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/wattsup/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.editCommand())
	root.AddCommand(c.takeoffCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.referenceCommand())
	return root
}

// Execute runs the root command with ctx.
func (c *CLI) Execute(ctx context.Context) error {
	return c.RootCommand().ExecuteContext(ctx)
}

func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	ctx, cancel := c.storeContext(ctx)
	defer cancel()
	st, err := store.Open(ctx, c.cfg.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", c.cfg.Store.Driver, err)
	}
	return st, nil
}

func (c *CLI) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	d, _ := c.cfg.StoreTimeout()
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (c *CLI) exportConfig(dir string) render.ExportConfig {
	if dir == "" {
		dir = c.cfg.SaveDirectory
	}
	return render.ExportConfig{
		Dir:         dir,
		Prefix:      c.cfg.Export.Prefix,
		JPEGQuality: c.cfg.Export.JPEGQuality,
		Scale:       c.cfg.Export.Scale,
	}
}

// loadCanvas restores a canvas either from a snapshot JSON file or from the
// user's latest save.
func (c *CLI) loadCanvas(ctx context.Context, input, user string) (*editor.Editor, error) {
	ed, err := editor.New(editor.Config{
		ProEnabled: c.cfg.Pro,
		GridSize:   c.cfg.GridSize,
		Logger:     loggerFromContext(ctx),
	})
	if err != nil {
		return nil, err
	}

	var snap *diagram.Snapshot
	if input != "" {
		snap, err = readSnapshot(input)
	} else {
		snap, err = c.latest(ctx, user)
	}
	if err != nil {
		ed.Close()
		return nil, err
	}
	if err := ed.Load(snap); err != nil {
		ed.Close()
		return nil, fmt.Errorf("restore canvas: %w", err)
	}
	return ed, nil
}

func (c *CLI) latest(ctx context.Context, user string) (*diagram.Snapshot, error) {
	if user == "" {
		user = c.cfg.UserID
	}
	st, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close(context.WithoutCancel(ctx))

	ctx, cancel := c.storeContext(ctx)
	defer cancel()
	snap, err := st.Latest(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("load canvas for %s: %w", user, err)
	}
	return snap, nil
}

func readSnapshot(path string) (*diagram.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap diagram.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return &snap, nil
}
