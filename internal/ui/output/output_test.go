package output_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/creack/pty"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/ui/output"
)

func TestColorProfile(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, termenv.Ascii, output.ColorProfile(), "NO_COLOR should force Ascii profile")

	t.Setenv("NO_COLOR", "")
	p := output.ColorProfile()
	assert.True(t, p >= termenv.TrueColor && p <= termenv.Ascii, "should return a valid profile")
}

func TestProfileFor_NonTerminal(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	assert.False(t, output.IsTerminal(&buf))
	assert.Equal(t, termenv.Ascii, output.ProfileFor(&buf))

	f, err := os.Create(filepath.Join(t.TempDir(), "log"))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck // test cleanup
	assert.False(t, output.IsTerminal(f))
}

func TestNew(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	out := output.New(&buf)
	require.NotNil(t, out)

	_, _ = out.WriteString(out.String("plain").Foreground(termenv.ANSIRed).String())
	assert.Equal(t, "plain", buf.String(), "non-terminal output carries no escape codes")
}

func TestNewWithProfile(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	out := output.NewWithProfile(&buf, func() termenv.Profile { return termenv.ANSI })

	_, _ = out.WriteString(out.String("red").Foreground(termenv.ANSIRed).String())
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "red")
}

func TestResolveMode(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		name string
		mode string
		ci   string
		want string
	}{
		{"tui forced", output.ModeTUI, "", output.ModeTUI},
		{"linear forced", output.ModeLinear, "", output.ModeLinear},
		{"auto without terminal", output.ModeAuto, "", output.ModeLinear},
		{"empty without terminal", "", "", output.ModeLinear},
		{"tui forced in ci", output.ModeTUI, "true", output.ModeTUI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CI", tt.ci)
			assert.Equal(t, tt.want, output.ResolveMode(tt.mode, &buf))
		})
	}
}

func TestResolveMode_Terminal(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("no pty available: %v", err)
	}
	defer ptmx.Close() //nolint:errcheck // test cleanup
	defer tty.Close()  //nolint:errcheck // test cleanup

	t.Setenv("CI", "")
	assert.Equal(t, output.ModeTUI, output.ResolveMode(output.ModeAuto, tty))

	t.Setenv("CI", "1")
	assert.Equal(t, output.ModeLinear, output.ResolveMode(output.ModeAuto, tty))
}
