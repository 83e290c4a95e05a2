// Package commands implements the CLI commands for kiln.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/adapters/settings"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/domain"
)

// CLI represents the command line interface for kiln.
type CLI struct {
	app      Application
	settings SettingsLoader
	rootCmd  *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Configure(s *settings.Settings)
	Build(ctx context.Context, opts app.BuildOptions) error
	Watch(ctx context.Context, opts app.BuildOptions) error
	Plan(ctx context.Context, target string) (*app.Plan, error)
	Lookup(ctx context.Context, key string) (*domain.Record, error)
	Keys(ctx context.Context) ([]domain.BuildKey, error)
	Clean(ctx context.Context) error
}

// SettingsLoader resolves settings from the environment and the parsed flags.
type SettingsLoader interface {
	BindFlags(cmd *cobra.Command) error
	Load(dir string) (*settings.Settings, error)
}

// New creates a new CLI instance with the given app.
func New(a Application, s SettingsLoader) *CLI {
	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "An incremental build engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringP("manifest", "f", domain.ManifestFileName, "Path to the build manifest")
	flags.String("database", "", "Path to the build database (default depends on --backend)")
	flags.String("backend", settings.BackendSQLite, "Build database backend: sqlite or badger")
	flags.Bool("log-json", false, "Log in JSON")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.String("trace", "", "Write an OpenTelemetry trace of each build to this file")
	flags.String("metrics", "", "Write build metrics in the Prometheus text format to this file")

	c := &CLI{
		app:      a,
		settings: s,
		rootCmd:  rootCmd,
	}
	rootCmd.PersistentPreRunE = c.configure

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newDBCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// configure resolves the settings of the running command and hands them to the app.
func (c *CLI) configure(cmd *cobra.Command, _ []string) error {
	if err := c.settings.BindFlags(cmd); err != nil {
		return err
	}
	s, err := c.settings.Load(".")
	if err != nil {
		return err
	}
	c.app.Configure(s)
	return nil
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
