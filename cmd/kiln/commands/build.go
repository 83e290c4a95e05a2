package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [target]",
		Short: "Bring a target up to date",
		Long: "Bring a target up to date, re-executing only the commands whose inputs, " +
			"declaration or outputs changed since the last build.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Build(cmd.Context(), buildOptions(cmd, args))
		},
	}
	addBuildFlags(cmd)
	return cmd
}

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [target]",
		Short: "Rebuild a target whenever its sources change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Watch(cmd.Context(), buildOptions(cmd, args))
		},
	}
	addBuildFlags(cmd)
	return cmd
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("force", "B", false, "Re-execute every command regardless of its record")
	cmd.Flags().IntP("jobs", "j", 0, "Number of commands to run at once (default: number of CPUs)")
	cmd.Flags().Bool("checksums", false, "Compare source files by content instead of stat data")
	cmd.Flags().StringSlice("skip", nil, "Commands that must not start")
	cmd.Flags().Bool("resolve-cycles", false, "Break dependency cycles instead of failing")
	cmd.Flags().StringP("output-mode", "o", "auto", "Output mode: auto, tui or linear")
}

func buildOptions(cmd *cobra.Command, args []string) app.BuildOptions {
	force, _ := cmd.Flags().GetBool("force")
	skip, _ := cmd.Flags().GetStringSlice("skip")
	resolve, _ := cmd.Flags().GetBool("resolve-cycles")

	opts := app.BuildOptions{
		Force:         force,
		Skip:          skip,
		ResolveCycles: resolve,
	}
	if len(args) > 0 {
		opts.Target = args[0]
	}
	return opts
}
