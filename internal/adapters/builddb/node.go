package builddb

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/logger" //nolint:depguard // Wired in adapter layer
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the SQLite store opener Graft node.
const NodeID graft.ID = "adapter.builddb"

func init() {
	graft.Register(graft.Node[*Opener]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Opener, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewOpener(log), nil
		},
	})
}
