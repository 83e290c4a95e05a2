package shell

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/logger" //nolint:depguard // Wired in adapter layer
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the built-in tool factory Graft node.
const NodeID graft.ID = "adapter.shell"

func init() {
	graft.Register(graft.Node[*Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Factory, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(log), nil
		},
	})
}
