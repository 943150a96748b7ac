package contract

import "context"

// Capability is one behavioral variant: a tool palette, an intent predicate,
// and a turn handler. Implementations live in agent/agents/capability.
type Capability interface {
	Type() CapabilityType
	// Tools lists the tool names this capability may invoke.
	Tools() []string
	// Matches is the intent predicate the router evaluates per utterance.
	Matches(utterance string) bool
	Run(ctx context.Context, req CapabilityRequest) (CapabilityResponse, error)
}

// Registry is the closed set of capability variants.
type Registry interface {
	Capability(t CapabilityType) (Capability, bool)
	// Routable returns hand-off candidates in registration order.
	Routable() []Capability
	// Direct answers turns the router keeps in the orchestrator state.
	Direct() Capability
	Summarizer() Capability
}

// ToolGateway validates, normalizes, and dispatches tool calls. Capabilities
// never reach the memory store or place index directly. Failures are encoded
// in the returned ToolResult, never as a Go error, so a capability can
// narrate them to the user.
type ToolGateway interface {
	Invoke(ctx context.Context, capability CapabilityType, req ToolRequest) ToolResult
}

// MemoryStore persists keyed preference facts per user.
type MemoryStore interface {
	// List returns every record for the user; category "" means all. A user
	// with no records yields an empty slice, not an error.
	List(ctx context.Context, userID, category string) ([]MemoryRecord, error)
	// Upsert writes by (user, category, key) identity, last writer wins.
	Upsert(ctx context.Context, rec MemoryRecord) (MemoryRecord, error)
	Delete(ctx context.Context, userID, memoryID string) error
}

// PlaceIndex answers filtered similarity queries over the catalog. Results
// are ordered by ascending distance; ties break on record ID.
type PlaceIndex interface {
	Query(ctx context.Context, scope, category string, embedding []float32, topK int, floor float64, filter PlaceFilter) ([]PlaceRecord, error)
}

// TripStore persists itinerary drafts per user.
type TripStore interface {
	Create(ctx context.Context, rec TripRecord) (TripRecord, error)
	// Get returns ErrNotFound when no trip matches.
	Get(ctx context.Context, userID, tripID string) (TripRecord, error)
}

// ContextStore owns the append-only message log per thread and its summary
// checkpoints. The Context Manager holds the only mutation path.
type ContextStore interface {
	Append(ctx context.Context, threadID string, msg Message) error
	// Window returns retained (non-superseded) messages in append order.
	Window(ctx context.Context, threadID string) ([]Message, error)
	// LatestSummary returns nil when the thread has never been compressed.
	LatestSummary(ctx context.Context, threadID string) (*ConversationSummary, error)
	// Compress stores the summary and marks the superseded prefix, atomically
	// from the reader's perspective.
	Compress(ctx context.Context, summary ConversationSummary) error
	// RecordToolEvent archives one tool invocation for audit.
	RecordToolEvent(ctx context.Context, threadID string, req ToolRequest, res ToolResult) error
}
