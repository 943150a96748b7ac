package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Thread is the persisted control record for one conversation. The router is
// the only writer of ActiveCapability; message bookkeeping is updated by the
// orchestrator after the Context Manager appends a turn. Threads are never
// deleted by the core.
type Thread struct {
	ThreadID string `json:"thread_id"`
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`

	// ActiveCapability is empty while the thread idles in the orchestrator
	// state. When set it must name a registered capability variant; the
	// orchestrator validates against the registry on load.
	ActiveCapability string `json:"active_capability,omitempty"`

	MessageCount   int       `json:"message_count"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

var (
	ErrNilThread       = errors.New("thread is nil")
	ErrInvalidThreadID = errors.New("thread id is empty")
)

func NewThread(threadID, tenantID, userID string, now time.Time) *Thread {
	return &Thread{
		ThreadID:       threadID,
		TenantID:       tenantID,
		UserID:         userID,
		CreatedAt:      now.UTC(),
		LastActivityAt: now.UTC(),
	}
}

func (t *Thread) Touch(now time.Time) {
	t.LastActivityAt = now.UTC()
}

// SetActiveCapability records the router's hand-off target. Empty clears the
// field back to the orchestrator idle state.
func (t *Thread) SetActiveCapability(capability string, now time.Time) {
	t.ActiveCapability = strings.TrimSpace(capability)
	t.Touch(now)
}

// CountMessages bumps the message counter after n appends.
func (t *Thread) CountMessages(n int, now time.Time) {
	if n <= 0 {
		return
	}
	t.MessageCount += n
	t.Touch(now)
}

// Validate checks structural invariants. registered is the closed capability
// set; a nil func skips that check.
func (t *Thread) Validate(registered func(string) bool) error {
	if t == nil {
		return ErrNilThread
	}
	if strings.TrimSpace(t.ThreadID) == "" {
		return ErrInvalidThreadID
	}
	if t.ActiveCapability != "" && registered != nil && !registered(t.ActiveCapability) {
		return fmt.Errorf("active capability %q is not a registered variant", t.ActiveCapability)
	}
	return nil
}
