package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"wattsup/internal/render"
)

func (c *CLI) exportCommand() *cobra.Command {
	var (
		input   string
		user    string
		dir     string
		formats []string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the saved canvas as PDF, JPEG or PNG",
		Long:  `Export renders the saved canvas without its grid and writes WattsUp-Diagram.<ext> files. Without --format every format is written.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			var fs []render.Format
			for _, name := range formats {
				f, err := render.ParseFormat(name)
				if err != nil {
					return err
				}
				fs = append(fs, f)
			}

			ed, err := c.loadCanvas(ctx, input, user)
			if err != nil {
				return err
			}
			defer ed.Close()

			ex := render.NewExporter(c.exportConfig(dir), nil, logger)
			var paths []string
			if len(fs) == 0 {
				paths, err = ex.ExportAll(ctx, ed)
				if err != nil {
					return fmt.Errorf("export: %w", err)
				}
			}
			for _, f := range fs {
				p, err := ex.Export(ctx, ed, f)
				if err != nil {
					return fmt.Errorf("export %s: %w", f, err)
				}
				paths = append(paths, p)
			}

			out := cmd.OutOrStdout()
			printSuccess(out, "Exported %s", styleNumber.Render(fmt.Sprint(len(paths)))+" file(s)")
			for _, p := range paths {
				printDetail(out, "file", p)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "read a snapshot JSON file instead of the store")
	cmd.Flags().StringVarP(&user, "user", "u", "", "user whose canvas to export (default from config)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "output directory (default save_directory)")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "formats to write: pdf, jpeg, png")
	return cmd
}
