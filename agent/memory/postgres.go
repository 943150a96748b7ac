package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

type memoryRow struct {
	bun.BaseModel `bun:"table:memories,alias:m"`

	ID        string     `bun:"id,pk"`
	UserID    string     `bun:"user_id,notnull"`
	TenantID  string     `bun:"tenant_id"`
	Category  string     `bun:"category,notnull"`
	Key       string     `bun:"key,notnull"`
	Value     string     `bun:"value,notnull"`
	Facet     string     `bun:"facet"`
	Kind          string     `bun:"kind,notnull"`
	Embedding     []float32  `bun:"embedding,array"`
	Salience      float64    `bun:"salience,notnull,default:0"`
	Justification string     `bun:"justification"`
	ExpiresAt     *time.Time `bun:"expires_at"`
	UpdatedAt     time.Time  `bun:"updated_at,notnull"`
}

func rowFromRecord(rec contractx.MemoryRecord) memoryRow {
	return memoryRow{
		ID:            rec.ID,
		UserID:        rec.UserID,
		TenantID:      rec.TenantID,
		Category:      rec.Category,
		Key:           rec.Key,
		Value:         rec.Value,
		Facet:         rec.Facet,
		Kind:          string(rec.Kind),
		Embedding:     rec.Embedding,
		Salience:      rec.Salience,
		Justification: rec.Justification,
		ExpiresAt:     rec.ExpiresAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}

func (r memoryRow) toRecord() contractx.MemoryRecord {
	return contractx.MemoryRecord{
		ID:            r.ID,
		UserID:        r.UserID,
		TenantID:      r.TenantID,
		Category:      r.Category,
		Key:           r.Key,
		Value:         r.Value,
		Facet:         r.Facet,
		Kind:          contractx.MemoryKind(r.Kind),
		Embedding:     r.Embedding,
		Salience:      r.Salience,
		Justification: r.Justification,
		ExpiresAt:     r.ExpiresAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type Config struct {
	QueryTimeout time.Duration `envconfig:"QUERY_TIMEOUT" split_words:"true" default:"10s"`
}

// PostgresStore persists memory records with a unique (user_id, category,
// key) constraint; upserts resolve conflicts in the database so concurrent
// writers degrade to last-writer-wins.
type PostgresStore struct {
	db      *bun.DB
	timeout time.Duration
	now     func() time.Time
}

var _ contractx.MemoryStore = (*PostgresStore)(nil)

func NewPostgresStore(db *bun.DB, cfg Config) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("bun db is required")
	}
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PostgresStore{db: db, timeout: timeout, now: time.Now}, nil
}

func (s *PostgresStore) List(ctx context.Context, userID, category string) ([]contractx.MemoryRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", contractx.ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := s.now().UTC()
	var rows []memoryRow
	q := s.db.NewSelect().
		Model(&rows).
		Where("m.user_id = ?", userID).
		Where("m.expires_at IS NULL OR m.expires_at > ?", now)
	if category = strings.ToLower(strings.TrimSpace(category)); category != "" {
		q = q.Where("m.category = ?", category)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: list memories: %v", contractx.ErrRetrievalUnavailable, err)
	}

	records := make([]contractx.MemoryRecord, len(rows))
	for i, r := range rows {
		records[i] = r.toRecord()
	}
	return records, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, rec contractx.MemoryRecord) (contractx.MemoryRecord, error) {
	rec, err := normalizeRecord(rec, s.now())
	if err != nil {
		return contractx.MemoryRecord{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := rowFromRecord(rec)
	_, err = s.db.NewInsert().
		Model(&row).
		On("CONFLICT (user_id, category, key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("facet = EXCLUDED.facet").
		Set("kind = EXCLUDED.kind").
		Set("embedding = EXCLUDED.embedding").
		Set("salience = EXCLUDED.salience").
		Set("justification = EXCLUDED.justification").
		Set("expires_at = EXCLUDED.expires_at").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return contractx.MemoryRecord{}, fmt.Errorf("%w: upsert memory: %v", contractx.ErrRetrievalUnavailable, err)
	}

	return row.toRecord(), nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID, memoryID string) error {
	userID = strings.TrimSpace(userID)
	memoryID = strings.TrimSpace(memoryID)
	if userID == "" || memoryID == "" {
		return fmt.Errorf("%w: user id and memory id are required", contractx.ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.NewDelete().
		Model((*memoryRow)(nil)).
		Where("user_id = ?", userID).
		Where("id = ?", memoryID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: delete memory: %v", contractx.ErrRetrievalUnavailable, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: memory %s", contractx.ErrNotFound, memoryID)
	}
	return nil
}
