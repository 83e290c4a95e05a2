package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
)

// MetricsNodeID is the unique identifier for the build metrics Graft node.
const MetricsNodeID graft.ID = "engine.metrics"

func init() {
	graft.Register(graft.Node[*Metrics]{
		ID:        MetricsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{},
		Run: func(_ context.Context) (*Metrics, error) {
			return NewMetrics(), nil
		},
	})
}
