package places

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

// placeRow is the catalog table shape. The catalog is owned by an external
// ingestion process; the core only reads it.
type placeRow struct {
	bun.BaseModel `bun:"table:places,alias:p"`

	ID            string    `bun:"id,pk"`
	GeoScopeID    string    `bun:"geo_scope_id,notnull"`
	Category      string    `bun:"category,notnull"`
	Name          string    `bun:"name,notnull"`
	Description   string    `bun:"description"`
	Tags          []string  `bun:"tags,array"`
	Accessibility []string  `bun:"accessibility,array"`
	Neighborhood  string    `bun:"neighborhood"`
	Rating        float64   `bun:"rating"`
	PriceTier     int       `bun:"price_tier"`
	Embedding     []float32 `bun:"embedding,array"`
}

func (r placeRow) toRecord() contractx.PlaceRecord {
	return contractx.PlaceRecord{
		ID:            r.ID,
		GeoScopeID:    r.GeoScopeID,
		Category:      r.Category,
		Name:          r.Name,
		Description:   r.Description,
		Tags:          r.Tags,
		Accessibility: r.Accessibility,
		Neighborhood:  r.Neighborhood,
		Rating:        r.Rating,
		PriceTier:     r.PriceTier,
		Embedding:     r.Embedding,
	}
}

type Config struct {
	QueryTimeout time.Duration `envconfig:"QUERY_TIMEOUT" split_words:"true" default:"10s"`
}

// PostgresIndex fetches scope/category candidates with equality filters and
// leaves similarity ranking to Rank. This keeps the storage contract down to
// "equality-filterable partition fields", independent of vector extensions.
type PostgresIndex struct {
	db      *bun.DB
	timeout time.Duration
}

var _ contractx.PlaceIndex = (*PostgresIndex)(nil)

func NewPostgresIndex(db *bun.DB, cfg Config) (*PostgresIndex, error) {
	if db == nil {
		return nil, fmt.Errorf("bun db is required")
	}
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PostgresIndex{db: db, timeout: timeout}, nil
}

func (x *PostgresIndex) Query(
	ctx context.Context,
	scope, category string,
	embedding []float32,
	topK int,
	floor float64,
	filter contractx.PlaceFilter,
) ([]contractx.PlaceRecord, error) {
	scope = strings.ToLower(strings.TrimSpace(scope))
	if scope == "" {
		return nil, fmt.Errorf("%w: scope is required", contractx.ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	var rows []placeRow
	q := x.db.NewSelect().
		Model(&rows).
		Where("p.geo_scope_id = ?", scope)
	if category = strings.TrimSpace(category); category != "" {
		q = q.Where("p.category = ?", category)
	}
	if filter.PriceTier > 0 {
		q = q.Where("p.price_tier = ?", filter.PriceTier)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: query places: %v", contractx.ErrRetrievalUnavailable, err)
	}

	candidates := make([]contractx.PlaceRecord, len(rows))
	for i, r := range rows {
		candidates[i] = r.toRecord()
	}

	return Rank(candidates, embedding, topK, floor), nil
}
