package tui_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/tui"
	"go.trai.ch/kiln/internal/core/domain"
)

func newRenderer(input string) (*tui.Renderer, *tui.Model) {
	model := tui.NewModel(io.Discard)
	return tui.NewRenderer(model,
		tea.WithInput(strings.NewReader(input)),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
		tea.WithoutRenderer(),
	), model
}

func TestRenderer_Build(t *testing.T) {
	r, model := newRenderer("")
	require.NoError(t, r.Start(context.Background()))

	start := time.Now()
	r.OnPlanEmit([]string{"compile", "link"}, map[string][]string{"link": {"compile"}}, []string{"all"})
	r.OnCommandStart("s1", "", "compile", start)
	data := []byte("compiling\n")
	r.OnCommandLog("s1", data)
	copy(data, "XXXXXXXXX\n")
	r.OnCommandComplete("s1", start.Add(time.Second), nil)
	r.OnCommandStart("s2", "", "link", start)
	r.OnCommandComplete("s2", start.Add(time.Second), errors.New("exit status 2"))

	require.NoError(t, r.Stop())
	require.NoError(t, r.Wait())

	assert.True(t, model.Finished)
	compile, ok := model.Command("compile")
	require.True(t, ok)
	assert.Equal(t, tui.StatusDone, compile.Status)
	assert.Contains(t, compile.Output.Tail(5), "compiling", "log data is copied before delivery")
	link, _ := model.Command("link")
	assert.Equal(t, tui.StatusFailed, link.Status)
	assert.Contains(t, model.View(), "2 command(s) executed, 1 failed")
}

func TestRenderer_UserQuit(t *testing.T) {
	r, model := newRenderer("q")
	require.NoError(t, r.Start(context.Background()))

	err := r.Wait()
	require.ErrorIs(t, err, domain.ErrBuildCancelled)
	assert.True(t, model.Interrupted)

	// The program is gone; late events and Stop must not block.
	r.OnCommandStart("s1", "", "compile", time.Now())
	assert.NoError(t, r.Stop())
}

func TestRenderer_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	model := tui.NewModel(io.Discard)
	r := tui.NewRenderer(model,
		tea.WithContext(ctx),
		tea.WithInput(strings.NewReader("")),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
		tea.WithoutRenderer(),
	)
	require.NoError(t, r.Start(ctx))
	r.OnPlanEmit([]string{"compile"}, nil, nil)

	cancel()
	assert.NoError(t, r.Wait())
}
