package ledger

import (
	"sync"

	"github.com/robinvdvleuten/veritas/model"
)

// Pools for commonly allocated objects to reduce GC pressure

var (
	// aggregateMapPool provides pooled maps for per-worker partial aggregation
	aggregateMapPool = sync.Pool{
		New: func() any {
			return make(map[model.AggregateKey]*model.QuarterlyAggregate, 64)
		},
	}
)

// getAggregateMap retrieves a pooled aggregate map
func getAggregateMap() map[model.AggregateKey]*model.QuarterlyAggregate {
	return aggregateMapPool.Get().(map[model.AggregateKey]*model.QuarterlyAggregate)
}

// putAggregateMap clears and returns an aggregate map to the pool
func putAggregateMap(m map[model.AggregateKey]*model.QuarterlyAggregate) {
	for k := range m {
		delete(m, k)
	}
	aggregateMapPool.Put(m)
}
