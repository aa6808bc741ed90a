package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"wattsup/internal/diagram"
)

func (c *CLI) takeoffCommand() *cobra.Command {
	var (
		input  string
		user   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "takeoff",
		Short: "Print the material takeoff of the saved canvas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := c.loadCanvas(cmd.Context(), input, user)
			if err != nil {
				return err
			}
			defer ed.Close()

			entries := ed.Takeoff()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, styleDim.Render("Nothing placed yet."))
				return nil
			}
			fmt.Fprintln(out, styleTitle.Render("Material takeoff"))
			fmt.Fprintln(out, renderTakeoff(entries))
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "read a snapshot JSON file instead of the store")
	cmd.Flags().StringVarP(&user, "user", "u", "", "user whose canvas to read (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func renderTakeoff(entries []diagram.TakeoffEntry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Item, strconv.Itoa(e.Quantity)}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Item", "Qty").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 1 {
				return styleCell.Foreground(colorCyan).Align(lipgloss.Right)
			}
			return styleCell
		}).
		String()
}
