package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (c *CLI) newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan [target]",
		Short: "Print the static command plan of a target",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) > 0 {
				target = args[0]
			}
			plan, err := c.app.Plan(cmd.Context(), target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "target %s: %d command(s)\n", plan.Target, len(plan.Commands))
			for i, name := range plan.Commands {
				line := fmt.Sprintf("%3d. %s", i+1, name)
				if deps := plan.Deps[name]; len(deps) > 0 {
					line += " <- " + strings.Join(deps, ", ")
				}
				_, _ = fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
