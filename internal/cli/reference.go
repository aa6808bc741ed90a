package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wattsup/internal/reference"
)

// referenceClient returns nil and reference.ErrNotConfigured without an API
// key.
func (c *CLI) referenceClient(ctx context.Context) (*reference.Client, error) {
	gen, err := reference.NewGenAI(ctx, c.cfg.Reference.APIKey, c.cfg.Reference.Model)
	if err != nil {
		return nil, err
	}
	return reference.NewClient(gen, loggerFromContext(ctx)), nil
}

func (c *CLI) referenceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reference <scenario...>",
		Short: "Summarize the NEC guidelines for an installation scenario",
		Example: `  wattsup reference "20A kitchen countertop receptacles"
  wattsup reference outdoor GFCI outlet on a deck`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.referenceClient(ctx)
			if err != nil {
				return err
			}
			guide, err := client.QuickGuide(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styleTitle.Render("NEC quick guide"))
			fmt.Fprintln(out)
			fmt.Fprintln(out, guide.Guidelines)
			return nil
		},
	}
}
