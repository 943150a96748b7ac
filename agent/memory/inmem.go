package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

// InMemoryStore keeps records keyed by identity. Same semantics as the
// Postgres store; used by tests and single-process deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]contractx.MemoryRecord
	now     func() time.Time
}

var _ contractx.MemoryStore = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]contractx.MemoryRecord),
		now:     time.Now,
	}
}

func (s *InMemoryStore) List(ctx context.Context, userID, category string) ([]contractx.MemoryRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", contractx.ErrInvalidArgument)
	}
	category = strings.ToLower(strings.TrimSpace(category))
	now := s.now().UTC()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contractx.MemoryRecord, 0, 8)
	for _, rec := range s.records {
		if rec.UserID != userID {
			continue
		}
		if category != "" && rec.Category != category {
			continue
		}
		if expired(rec, now) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) Upsert(ctx context.Context, rec contractx.MemoryRecord) (contractx.MemoryRecord, error) {
	rec, err := normalizeRecord(rec, s.now())
	if err != nil {
		return contractx.MemoryRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := identityKey(rec.UserID, rec.Category, rec.Key)
	if existing, ok := s.records[id]; ok {
		// Identity wins over the caller-supplied id: the record is an
		// update, not a duplicate.
		rec.ID = existing.ID
	}
	s.records[id] = rec
	return rec, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, userID, memoryID string) error {
	userID = strings.TrimSpace(userID)
	memoryID = strings.TrimSpace(memoryID)
	if userID == "" || memoryID == "" {
		return fmt.Errorf("%w: user id and memory id are required", contractx.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, rec := range s.records {
		if rec.UserID == userID && rec.ID == memoryID {
			delete(s.records, key)
			return nil
		}
	}
	return fmt.Errorf("%w: memory %s", contractx.ErrNotFound, memoryID)
}
