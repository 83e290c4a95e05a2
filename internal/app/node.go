package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/builddb"   //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/kvstore"   //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/settings"  //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/shell"     //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/status"    //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App      *App
	Logger   ports.Logger
	Settings *settings.Loader
}

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			fs.NodeID,
			builddb.NodeID,
			kvstore.NodeID,
			status.NodeID,
			telemetry.NodeID,
			watcher.NodeID,
			scheduler.MetricsNodeID,
			shell.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			settings.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			loader, err := graft.Dep[*settings.Loader](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log, Settings: loader}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ManifestLoader](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	fileSystem, err := graft.Dep[ports.FileSystem](ctx)
	if err != nil {
		return nil, err
	}
	sqlite, err := graft.Dep[*builddb.Opener](ctx)
	if err != nil {
		return nil, err
	}
	badger, err := graft.Dep[*kvstore.Opener](ctx)
	if err != nil {
		return nil, err
	}
	delegates, err := graft.Dep[*status.Factory](ctx)
	if err != nil {
		return nil, err
	}
	provider, err := graft.Dep[*telemetry.Provider](ctx)
	if err != nil {
		return nil, err
	}
	watchers, err := graft.Dep[*watcher.Factory](ctx)
	if err != nil {
		return nil, err
	}
	metrics, err := graft.Dep[*scheduler.Metrics](ctx)
	if err != nil {
		return nil, err
	}

	tools, err := graft.Dep[*shell.Factory](ctx)
	if err != nil {
		return nil, err
	}

	openers := map[string]ports.StoreOpener{
		settings.BackendSQLite: sqlite,
		settings.BackendBadger: badger,
	}
	return New(loader, log, fileSystem, openers, delegates, provider, watchers, metrics).
		WithTerminalSizer(tools), nil
}
