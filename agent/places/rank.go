// Package places implements the point-of-interest index: equality filtering
// on scope and category at the storage layer, cosine ranking in the core.
package places

import (
	"sort"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
	embeddingx "github.com/nravee/Roamly-Travel-Concierge/pkg/embedding"
)

// ranked pairs a candidate with its distance so sorting stays stable across
// identical runs.
type ranked struct {
	place    contractx.PlaceRecord
	distance float64
}

// Rank filters candidates by the similarity floor, orders them by ascending
// cosine distance with record ID as the tie-break, and truncates to topK.
// For a fixed query embedding and candidate snapshot the output order is
// fully deterministic.
func Rank(candidates []contractx.PlaceRecord, query embeddingx.Vector, topK int, floor float64) []contractx.PlaceRecord {
	if topK <= 0 || len(candidates) == 0 {
		return nil
	}

	survivors := make([]ranked, 0, len(candidates))
	for _, p := range candidates {
		sim := embeddingx.CosineSimilarity(p.Embedding, query)
		if sim < floor {
			continue
		}
		survivors = append(survivors, ranked{place: p, distance: 1 - sim})
	}

	sort.Slice(survivors, func(i, j int) bool {
		if survivors[i].distance != survivors[j].distance {
			return survivors[i].distance < survivors[j].distance
		}
		return survivors[i].place.ID < survivors[j].place.ID
	})

	if len(survivors) > topK {
		survivors = survivors[:topK]
	}

	out := make([]contractx.PlaceRecord, len(survivors))
	for i, r := range survivors {
		out[i] = r.place
	}
	return out
}
