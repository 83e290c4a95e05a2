package app_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestApp_Watch(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	w := mocks.NewMockWatcher(ctrl)
	f := newFixture(t, log, fakeWatchers{watcher: w})
	f.app.WithDebounce(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	events := make(chan ports.WatchEvent, 1)
	in, err := filepath.Abs("in.txt")
	require.NoError(t, err)

	w.EXPECT().Start(gomock.Any(), []string{domain.ManifestFileName, "in.txt"}).Return(nil)
	w.EXPECT().Events().Return(seq(events))
	w.EXPECT().Stop().DoAndReturn(func() error {
		close(events)
		return nil
	})

	var builds atomic.Int32
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes().Do(func(msg string, _ ...any) {
		if msg != "build finished" {
			return
		}
		switch builds.Add(1) {
		case 1:
			require.NoError(t, os.WriteFile("in.txt", []byte("changed\n"), domain.FilePerm))
			events <- ports.WatchEvent{Path: in, Operation: ports.OpWrite}
		case 2:
			cancel()
		}
	})
	log.EXPECT().Info("change detected, rebuilding", "paths", in)
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()

	require.NoError(t, f.app.Watch(ctx, appBuildOptions()))
	assert.Equal(t, int32(2), builds.Load())

	out, err := os.ReadFile("out.txt")
	require.NoError(t, err)
	assert.Equal(t, "changed\n", string(out))
}

func TestApp_WatchWatcherError(t *testing.T) {
	f := newFixture(t, nil, fakeWatchers{})
	err := f.app.Watch(context.Background(), appBuildOptions())
	assert.ErrorContains(t, err, "no watcher")
}
