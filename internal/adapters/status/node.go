package status

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/logger" //nolint:depguard // Wired in adapter layer
	"go.trai.ch/kiln/internal/adapters/shell"  //nolint:depguard // Wired in adapter layer
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the delegate factory Graft node.
const NodeID graft.ID = "adapter.status"

func init() {
	graft.Register(graft.Node[*Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Factory, error) {
			tools, err := graft.Dep[*shell.Factory](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(tools, log), nil
		},
	})
}
