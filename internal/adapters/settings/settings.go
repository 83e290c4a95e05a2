// Package settings resolves kiln's runtime settings from defaults, the
// optional .kiln/config file, KILN_* environment variables and CLI flags.
package settings

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	// BackendSQLite selects the SQLite result store.
	BackendSQLite = "sqlite"
	// BackendBadger selects the Badger result store.
	BackendBadger = "badger"

	// EnvPrefix prefixes every environment variable read by the loader.
	EnvPrefix = "KILN"
)

// Settings are the resolved runtime settings.
type Settings struct {
	Manifest  string  `mapstructure:"manifest" validate:"required"`
	Database  string  `mapstructure:"database"`
	Backend   string  `mapstructure:"backend" validate:"oneof=sqlite badger"`
	Jobs      int     `mapstructure:"jobs" validate:"min=1"`
	Checksums bool    `mapstructure:"checksums"`
	Log       Log     `mapstructure:"log"`
	Metrics   Metrics `mapstructure:"metrics"`
	Trace     string  `mapstructure:"trace"`
	// Output selects the build renderer: auto, tui or linear.
	Output    string  `mapstructure:"output" validate:"omitempty,oneof=auto tui linear"`
}

// Log configures the logger.
type Log struct {
	JSON    bool `mapstructure:"json"`
	Verbose bool `mapstructure:"verbose"`
}

// Metrics configures the metrics text file.
type Metrics struct {
	Output string `mapstructure:"output"`
}

// flagKeys maps CLI flag names to settings keys.
var flagKeys = map[string]string{
	"manifest":    "manifest",
	"database":    "database",
	"backend":     "backend",
	"jobs":        "jobs",
	"checksums":   "checksums",
	"log-json":    "log.json",
	"verbose":     "log.verbose",
	"metrics":     "metrics.output",
	"trace":       "trace",
	"output-mode": "output",
}

var configExtensions = []string{"yaml", "yml", "json", "toml"}

// Loader resolves Settings. Each Loader owns its own viper instance.
type Loader struct {
	v        *viper.Viper
	validate *validator.Validate
}

// NewLoader creates a Loader with kiln's defaults.
func NewLoader() *Loader {
	v := viper.New()
	v.SetDefault("manifest", domain.ManifestFileName)
	v.SetDefault("database", "")
	v.SetDefault("backend", BackendSQLite)
	v.SetDefault("jobs", runtime.NumCPU())
	v.SetDefault("checksums", false)
	v.SetDefault("log.json", false)
	v.SetDefault("log.verbose", false)
	v.SetDefault("metrics.output", "")
	v.SetDefault("trace", "")
	v.SetDefault("output", "auto")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{
		v:        v,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// BindFlags binds the settings flags defined on cmd, including inherited
// persistent flags. Flags cmd does not define are ignored.
func (l *Loader) BindFlags(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			flag = cmd.InheritedFlags().Lookup(name)
		}
		if flag == nil {
			continue
		}
		if err := l.v.BindPFlag(key, flag); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrInvalidSettings.Error()), "flag", name)
		}
	}
	return nil
}

// Load reads the optional settings file below dir and returns the validated
// settings. An empty database path is derived from the backend.
func (l *Loader) Load(dir string) (*Settings, error) {
	if path := findConfigFile(dir); path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidSettings.Error()), "path", path)
		}
	}

	var s Settings
	if err := l.v.Unmarshal(&s); err != nil {
		return nil, zerr.Wrap(err, domain.ErrInvalidSettings.Error())
	}
	if err := l.validate.Struct(&s); err != nil {
		wrapped := zerr.Wrap(err, domain.ErrInvalidSettings.Error())
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			wrapped = zerr.With(wrapped, "field", verrs[0].Namespace())
		}
		return nil, wrapped
	}

	if s.Database == "" {
		s.Database = defaultDatabase(s.Backend)
	}
	return &s, nil
}

// ConfigFile returns the settings file that Load read, if any.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

func findConfigFile(dir string) string {
	for _, ext := range configExtensions {
		path := filepath.Join(dir, domain.KilnDirName, domain.SettingsFileName+"."+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func defaultDatabase(backend string) string {
	if backend == BackendBadger {
		return domain.DefaultBadgerPath()
	}
	return domain.DefaultDatabasePath()
}
