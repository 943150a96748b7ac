package trip

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

type tripRow struct {
	bun.BaseModel `bun:"table:trips,alias:t"`

	ID          string    `bun:"id,pk"`
	UserID      string    `bun:"user_id,notnull"`
	TenantID    string    `bun:"tenant_id"`
	Destination string    `bun:"destination,notnull"`
	StartDate   string    `bun:"start_date"`
	EndDate     string    `bun:"end_date"`
	Travelers   []string  `bun:"travelers,array"`
	Days        string    `bun:"days"`
	Status      string    `bun:"status,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func rowFromRecord(rec contractx.TripRecord) (tripRow, error) {
	days, err := json.Marshal(rec.Days)
	if err != nil {
		return tripRow{}, fmt.Errorf("%w: encode trip days: %v", contractx.ErrInvalidArgument, err)
	}
	return tripRow{
		ID:          rec.ID,
		UserID:      rec.UserID,
		TenantID:    rec.TenantID,
		Destination: rec.Destination,
		StartDate:   rec.StartDate,
		EndDate:     rec.EndDate,
		Travelers:   rec.Travelers,
		Days:        string(days),
		Status:      rec.Status,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}, nil
}

func (r tripRow) toRecord() (contractx.TripRecord, error) {
	var days []contractx.TripDay
	if r.Days != "" {
		if err := json.Unmarshal([]byte(r.Days), &days); err != nil {
			return contractx.TripRecord{}, fmt.Errorf("%w: decode trip days: %v", contractx.ErrRetrievalUnavailable, err)
		}
	}
	return contractx.TripRecord{
		ID:          r.ID,
		UserID:      r.UserID,
		TenantID:    r.TenantID,
		Destination: r.Destination,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Travelers:   r.Travelers,
		Days:        days,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

type Config struct {
	QueryTimeout time.Duration `envconfig:"QUERY_TIMEOUT" split_words:"true" default:"10s"`
}

// PostgresStore persists trips keyed by the year/destination derived ID.
// Re-creating a trip with the same ID replaces the draft in place.
type PostgresStore struct {
	db      *bun.DB
	timeout time.Duration
	now     func() time.Time
}

var _ contractx.TripStore = (*PostgresStore)(nil)

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

func (s *PostgresStore) Create(ctx context.Context, rec contractx.TripRecord) (contractx.TripRecord, error) {
	rec, err := normalizeRecord(rec, s.now())
	if err != nil {
		return contractx.TripRecord{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row, err := rowFromRecord(rec)
	if err != nil {
		return contractx.TripRecord{}, err
	}
	_, err = s.db.NewInsert().
		Model(&row).
		On("CONFLICT (id) DO UPDATE").
		Set("start_date = EXCLUDED.start_date").
		Set("end_date = EXCLUDED.end_date").
		Set("travelers = EXCLUDED.travelers").
		Set("days = EXCLUDED.days").
		Set("status = EXCLUDED.status").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return contractx.TripRecord{}, fmt.Errorf("%w: create trip: %v", contractx.ErrRetrievalUnavailable, err)
	}

	return row.toRecord()
}

func (s *PostgresStore) Get(ctx context.Context, userID, tripID string) (contractx.TripRecord, error) {
	userID = strings.TrimSpace(userID)
	tripID = strings.TrimSpace(tripID)
	if userID == "" || tripID == "" {
		return contractx.TripRecord{}, fmt.Errorf("%w: user id and trip id are required", contractx.ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row tripRow
	err := s.db.NewSelect().
		Model(&row).
		Where("t.user_id = ?", userID).
		Where("t.id = ?", tripID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return contractx.TripRecord{}, fmt.Errorf("%w: trip %s", contractx.ErrNotFound, tripID)
	}
	if err != nil {
		return contractx.TripRecord{}, fmt.Errorf("%w: get trip: %v", contractx.ErrRetrievalUnavailable, err)
	}

	return row.toRecord()
}
