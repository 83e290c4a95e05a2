// Package output creates termenv outputs with a consistent color profile.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Output modes of the build renderer.
const (
	ModeAuto   = "auto"
	ModeTUI    = "tui"
	ModeLinear = "linear"
)

// ResolveMode turns a configured output mode into ModeTUI or ModeLinear.
// Auto picks the TUI when w is a terminal outside of CI.
func ResolveMode(mode string, w io.Writer) string {
	switch mode {
	case ModeTUI, ModeLinear:
		return mode
	}
	if !IsTerminal(w) || isCI() {
		return ModeLinear
	}
	return ModeTUI
}

func isCI() bool {
	ci := os.Getenv("CI")
	return ci == "true" || ci == "1"
}

// ColorProfile returns Ascii when NO_COLOR is set and the detected terminal
// profile otherwise.
func ColorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

// ProfileFor returns the color profile for w: Ascii unless w is a terminal.
func ProfileFor(w io.Writer) termenv.Profile {
	if !IsTerminal(w) {
		return termenv.Ascii
	}
	return ColorProfile()
}

// New creates a termenv.Output for w whose profile follows ProfileFor.
func New(w io.Writer, opts ...termenv.OutputOption) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	return NewWithProfile(w, func() termenv.Profile { return ProfileFor(w) }, opts...)
}

// NewWithProfile creates a termenv.Output with a custom profile selector.
func NewWithProfile(w io.Writer, profileFn func() termenv.Profile, opts ...termenv.OutputOption) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	opts = append(opts,
		termenv.WithProfile(profileFn()),
		termenv.WithTTY(true),
	)
	return termenv.NewOutput(w, opts...)
}
