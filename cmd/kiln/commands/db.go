package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

func (c *CLI) newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect the build database",
	}
	cmd.AddCommand(c.newDBLookupCmd(), c.newDBKeysCmd())
	return cmd
}

func (c *CLI) newDBLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <key>",
		Short: "Print the record of a key, e.g. command:link or node:out/app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := c.app.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rec == nil {
				return zerr.With(zerr.New("no record"), "key", args[0])
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "key:          %s\n", rec.Key)
			_, _ = fmt.Fprintf(out, "value:        %s\n", rec.Value)
			if len(rec.Signature) > 0 {
				_, _ = fmt.Fprintf(out, "signature:    %s\n", hex.EncodeToString(rec.Signature))
			}
			_, _ = fmt.Fprintf(out, "built at:     %d\n", rec.BuiltAt)
			_, _ = fmt.Fprintf(out, "computed at:  %d\n", rec.ComputedAt)
			_, _ = fmt.Fprintf(out, "dependencies: %d\n", len(rec.Dependencies))
			for _, dep := range rec.Dependencies {
				_, _ = fmt.Fprintf(out, "  %s\n", dep)
			}
			return nil
		},
	}
}

func (c *CLI) newDBKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List every recorded key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := c.app.Keys(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range keys {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
