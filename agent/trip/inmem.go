package trip

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

// InMemoryStore keeps trips keyed by (user, trip id). Same semantics as the
// Postgres store; used by tests and single-process deployments.
type InMemoryStore struct {
	mu    sync.RWMutex
	trips map[string]contractx.TripRecord
	now   func() time.Time
}

var _ contractx.TripStore = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		trips: make(map[string]contractx.TripRecord),
		now:   time.Now,
	}
}

func tripKey(userID, tripID string) string {
	return userID + "\x00" + tripID
}

func (s *InMemoryStore) Create(ctx context.Context, rec contractx.TripRecord) (contractx.TripRecord, error) {
	rec, err := normalizeRecord(rec, s.now())
	if err != nil {
		return contractx.TripRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prior, ok := s.trips[tripKey(rec.UserID, rec.ID)]; ok {
		rec.CreatedAt = prior.CreatedAt
	}
	s.trips[tripKey(rec.UserID, rec.ID)] = rec
	return rec, nil
}

func (s *InMemoryStore) Get(ctx context.Context, userID, tripID string) (contractx.TripRecord, error) {
	userID = strings.TrimSpace(userID)
	tripID = strings.TrimSpace(tripID)
	if userID == "" || tripID == "" {
		return contractx.TripRecord{}, fmt.Errorf("%w: user id and trip id are required", contractx.ErrInvalidArgument)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.trips[tripKey(userID, tripID)]
	if !ok {
		return contractx.TripRecord{}, fmt.Errorf("%w: trip %s", contractx.ErrNotFound, tripID)
	}
	return rec, nil
}
