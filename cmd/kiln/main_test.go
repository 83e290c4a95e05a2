package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/settings"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func provide(t *testing.T, ctrl *gomock.Controller, loader *mocks.MockManifestLoader, log *mocks.MockLogger) ComponentProvider {
	t.Helper()
	application := app.New(loader, log, mocks.NewMockFileSystem(ctrl), nil, nil, nil, nil, nil)
	return func(_ context.Context) (*app.Components, func(), error) {
		return &app.Components{
			App:      application,
			Logger:   log,
			Settings: settings.NewLoader(),
		}, func() {}, nil
	}
}

func TestRun_Version(t *testing.T) {
	ctrl := gomock.NewController(t)
	stdout := new(bytes.Buffer)

	code := run(context.Background(), []string{"version"}, stdout, new(bytes.Buffer),
		provide(t, ctrl, mocks.NewMockManifestLoader(ctrl), mocks.NewMockLogger(ctrl)))

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "kiln version "+build.Version)
}

func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	code := run(context.Background(), []string{"version"}, new(bytes.Buffer), stderr, provider)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

func TestRun_ExecutionError(t *testing.T) {
	t.Chdir(t.TempDir())
	ctrl := gomock.NewController(t)

	loader := mocks.NewMockManifestLoader(ctrl)
	loader.EXPECT().Load(domain.ManifestFileName).Return(nil, errors.New("load failed"))
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorContains(t, err, "load failed")
	})

	code := run(context.Background(), []string{"build", "all"}, new(bytes.Buffer), new(bytes.Buffer),
		provide(t, ctrl, loader, log))

	assert.Equal(t, 1, code)
}

func TestRun_InvalidSettings(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.MkdirAll(domain.KilnDirName, domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(domain.KilnDirName, "config.yaml"), []byte("jobs: 0\n"), domain.FilePerm))

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorContains(t, err, domain.ErrInvalidSettings.Error())
	})

	code := run(context.Background(), []string{"build"}, new(bytes.Buffer), new(bytes.Buffer),
		provide(t, ctrl, mocks.NewMockManifestLoader(ctrl), log))

	assert.Equal(t, 1, code)
}

func TestRun_UnknownCommand(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Error(gomock.Any())

	code := run(context.Background(), []string{"frobnicate"}, new(bytes.Buffer), new(bytes.Buffer),
		provide(t, ctrl, mocks.NewMockManifestLoader(ctrl), log))

	assert.Equal(t, 1, code)
}
