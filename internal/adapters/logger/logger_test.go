package logger_test

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

func newBuffered() (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	lg := logger.New()
	lg.SetOutput(&buf)
	return lg, &buf
}

func TestLogger_Pretty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		log  func(*logger.Logger)
		want string
	}{
		{
			name: "info with attributes",
			log:  func(l *logger.Logger) { l.Info("schema changed", "schema_version", 9) },
			want: "schema changed schema_version=9\n",
		},
		{
			name: "warning",
			log:  func(l *logger.Logger) { l.Warn("careful") },
			want: "! careful\n",
		},
		{
			name: "error chain",
			log: func(l *logger.Logger) {
				l.Error(zerr.With(zerr.Wrap(os.ErrNotExist, domain.ErrManifestReadFailed.Error()), "path", "kiln.yaml"))
			},
			want: "✗ Error: failed to read manifest\n       path: kiln.yaml\n\n  Caused by:\n    → file does not exist\n",
		},
		{
			name: "debug hidden by default",
			log:  func(l *logger.Logger) { l.Debug("noise") },
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			lg, buf := newBuffered()
			tt.log(lg)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLogger_Verbose(t *testing.T) {
	t.Parallel()
	lg, buf := newBuffered()

	lg.SetVerbose(true)
	lg.Debug("up to date", "key", "command:cc")
	assert.Equal(t, "~ up to date key=command:cc\n", buf.String())

	buf.Reset()
	lg.SetVerbose(false)
	lg.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestLogger_JSON(t *testing.T) {
	t.Parallel()
	lg, buf := newBuffered()
	lg.SetJSON(true)

	lg.Info("build finished", "executed", 3)
	lg.Error(zerr.New("boom"))
	lg.Error(nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &info))
	assert.Equal(t, "INFO", info["level"])
	assert.Equal(t, "build finished", info["msg"])
	assert.InDelta(t, 3, info["executed"], 0)

	var failure map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failure))
	assert.Equal(t, "ERROR", failure["level"])
	// zerr errors log as a group.
	assert.Equal(t, map[string]any{"msg": "boom"}, failure["error"])
}

func TestLogger_JSONKeepsOutput(t *testing.T) {
	t.Parallel()
	lg, buf := newBuffered()
	lg.SetJSON(true)
	lg.SetJSON(false)
	lg.Info("back to pretty")
	assert.Equal(t, "back to pretty\n", buf.String())
}
