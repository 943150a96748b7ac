package places

import (
	"context"
	"fmt"
	"strings"
	"sync"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

// InMemoryIndex serves a fixed snapshot of the catalog. Used by tests and by
// deployments that load the seed catalog straight into memory.
type InMemoryIndex struct {
	mu     sync.RWMutex
	places []contractx.PlaceRecord
}

var _ contractx.PlaceIndex = (*InMemoryIndex)(nil)

func NewInMemoryIndex(snapshot []contractx.PlaceRecord) *InMemoryIndex {
	idx := &InMemoryIndex{}
	idx.places = append(idx.places, snapshot...)
	return idx
}

func (x *InMemoryIndex) Query(
	ctx context.Context,
	scope, category string,
	embedding []float32,
	topK int,
	floor float64,
	filter contractx.PlaceFilter,
) ([]contractx.PlaceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrRetrievalUnavailable, err)
	}

	scope = strings.ToLower(strings.TrimSpace(scope))
	if scope == "" {
		return nil, fmt.Errorf("%w: scope is required", contractx.ErrInvalidArgument)
	}
	category = strings.TrimSpace(category)

	x.mu.RLock()
	var candidates []contractx.PlaceRecord
	for _, p := range x.places {
		if p.GeoScopeID != scope {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if filter.PriceTier > 0 && p.PriceTier != filter.PriceTier {
			continue
		}
		candidates = append(candidates, p)
	}
	x.mu.RUnlock()

	return Rank(candidates, embedding, topK, floor), nil
}
