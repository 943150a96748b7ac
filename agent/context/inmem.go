package context

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

type threadLog struct {
	messages   []contractx.Message
	superseded map[string]bool
	summaries  []contractx.ConversationSummary
	events     []toolEvent
}

type toolEvent struct {
	At      time.Time
	Request contractx.ToolRequest
	Result  contractx.ToolResult
}

// InMemoryStore mirrors the Postgres context store's semantics for tests and
// single-process deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*threadLog
	now     func() time.Time
}

var _ contractx.ContextStore = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		threads: make(map[string]*threadLog),
		now:     time.Now,
	}
}

func (s *InMemoryStore) log(threadID string) *threadLog {
	tl, ok := s.threads[threadID]
	if !ok {
		tl = &threadLog{superseded: make(map[string]bool)}
		s.threads[threadID] = tl
	}
	return tl
}

func (s *InMemoryStore) Append(ctx context.Context, threadID string, msg contractx.Message) error {
	if strings.TrimSpace(threadID) == "" {
		return fmt.Errorf("%w: thread id is required", contractx.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log(threadID).messages = append(s.log(threadID).messages, msg)
	return nil
}

func (s *InMemoryStore) Window(ctx context.Context, threadID string) ([]contractx.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tl, ok := s.threads[threadID]
	if !ok {
		return []contractx.Message{}, nil
	}
	out := make([]contractx.Message, 0, len(tl.messages))
	for _, msg := range tl.messages {
		if tl.superseded[msg.ID] {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *InMemoryStore) LatestSummary(ctx context.Context, threadID string) (*contractx.ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tl, ok := s.threads[threadID]
	if !ok || len(tl.summaries) == 0 {
		return nil, nil
	}
	latest := tl.summaries[len(tl.summaries)-1]
	return &latest, nil
}

func (s *InMemoryStore) Compress(ctx context.Context, summary contractx.ConversationSummary) error {
	if strings.TrimSpace(summary.ThreadID) == "" {
		return fmt.Errorf("%w: thread id is required", contractx.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tl := s.log(summary.ThreadID)
	tl.summaries = append(tl.summaries, summary)
	for _, id := range summary.Supersedes {
		tl.superseded[id] = true
	}
	return nil
}

func (s *InMemoryStore) RecordToolEvent(ctx context.Context, threadID string, req contractx.ToolRequest, res contractx.ToolResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tl := s.log(threadID)
	tl.events = append(tl.events, toolEvent{At: s.now().UTC(), Request: req, Result: res})
	return nil
}

// ToolEvents exposes the audit trail for assertions in tests.
func (s *InMemoryStore) ToolEvents(threadID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tl, ok := s.threads[threadID]; ok {
		return len(tl.events)
	}
	return 0
}
