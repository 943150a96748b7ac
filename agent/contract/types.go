package contract

import "time"

// CapabilityType identifies one conversational capability variant. The set is
// closed: routing, tool palettes, and thread state all key off these values.
type CapabilityType string

const (
	CapabilityOrchestrator CapabilityType = "orchestrator"
	CapabilityHotel        CapabilityType = "hotel"
	CapabilityDining       CapabilityType = "dining"
	CapabilityActivity     CapabilityType = "activity"
	CapabilityItinerary    CapabilityType = "itinerary"
	CapabilitySummarizer   CapabilityType = "summarizer"
)

// RoutableCapabilities lists the variants the router may hand a turn to, in
// registration order. The order doubles as the ambiguity tie-break when no
// capability is currently active.
func RoutableCapabilities() []CapabilityType {
	return []CapabilityType{
		CapabilityHotel,
		CapabilityDining,
		CapabilityActivity,
		CapabilityItinerary,
	}
}

// Registered reports whether t names a known capability variant, including
// the non-routable orchestrator and summarizer.
func (t CapabilityType) Registered() bool {
	switch t {
	case CapabilityOrchestrator, CapabilityHotel, CapabilityDining,
		CapabilityActivity, CapabilityItinerary, CapabilitySummarizer:
		return true
	}
	return false
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is one immutable entry in a thread's append-only log.
type Message struct {
	ID          string         `json:"id"`
	Role        Role           `json:"role"`
	Content     string         `json:"content"`
	Capability  CapabilityType `json:"capability,omitempty"`
	ToolCallIDs []string       `json:"tool_call_ids,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TurnRequest is the completion boundary consumed from the facade.
type TurnRequest struct {
	ThreadID  string `json:"thread_id"`
	UserID    string `json:"user_id"`
	Utterance string `json:"utterance"`
}

type TurnMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TurnResult carries at most two visible messages: the last user message and
// the last non-empty assistant message of the turn.
type TurnResult struct {
	ThreadID         string         `json:"thread_id"`
	Messages         []TurnMessage  `json:"messages"`
	ActiveCapability CapabilityType `json:"active_capability"`
}

// ToolRequest is a capability's request to the gateway: a tool name plus an
// argument bag of loosely-typed primitive/array values.
type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ToolResult pairs a request with either a payload or a typed failure. It
// lives only for the duration of one turn, outside of audit logging.
type ToolResult struct {
	Tool   string     `json:"tool"`
	OK     bool       `json:"ok"`
	Result any        `json:"result,omitempty"`
	Error  *ToolError `json:"error,omitempty"`
}

type MemoryKind string

const (
	MemoryDeclarative MemoryKind = "declarative"
	MemoryProcedural  MemoryKind = "procedural"
	MemoryEpisodic    MemoryKind = "episodic"
)

// MemoryRecord is a keyed preference fact. (UserID, Category, Key) is the
// logical identity: a later write with the same identity supersedes the
// earlier value instead of duplicating it.
type MemoryRecord struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TenantID  string     `json:"tenant_id,omitempty"`
	Category  string     `json:"category"`
	Key       string     `json:"key"`
	Value     string     `json:"value"`
	Facet     string     `json:"facet,omitempty"`
	Kind      MemoryKind `json:"kind"`
	Embedding []float32  `json:"embedding,omitempty"`
	// Salience weighs how strongly the fact should influence recall,
	// clamped to [0, 1].
	Salience      float64    `json:"salience"`
	Justification string     `json:"justification,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PlaceRecord is a catalog entry, read-only to the core. Embedding stays
// internal; gateway projections strip it before returning results.
type PlaceRecord struct {
	ID            string    `json:"id"`
	GeoScopeID    string    `json:"geo_scope_id"`
	Category      string    `json:"category"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Tags          []string  `json:"tags,omitempty"`
	Accessibility []string  `json:"accessibility,omitempty"`
	Neighborhood  string    `json:"neighborhood,omitempty"`
	Rating        float64   `json:"rating"`
	PriceTier     int       `json:"price_tier"`
	Embedding     []float32 `json:"-"`
}

// PlaceFilter narrows the candidate set before similarity ranking. Zero
// values mean no constraint.
type PlaceFilter struct {
	PriceTier int `json:"price_tier,omitempty"`
}

// TripDay is one planned day inside a trip.
type TripDay struct {
	Day  int    `json:"day"`
	Plan string `json:"plan"`
}

// TripRecord is a persisted itinerary draft. Trips are written by the
// itinerary capability and survive across threads.
type TripRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	TenantID    string    `json:"tenant_id,omitempty"`
	Destination string    `json:"destination"`
	StartDate   string    `json:"start_date,omitempty"`
	EndDate     string    `json:"end_date,omitempty"`
	Travelers   []string  `json:"travelers,omitempty"`
	Days        []TripDay `json:"days,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ConversationSummary replaces a contiguous prefix of a thread's messages
// once a compression threshold is crossed.
type ConversationSummary struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"thread_id"`
	FromSeq    int       `json:"from_seq"`
	ToSeq      int       `json:"to_seq"`
	Text       string    `json:"text"`
	Supersedes []string  `json:"supersedes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CapabilityRequest is one round of a capability's turn: the utterance plus
// retained context, and tool results from the previous round if any.
type CapabilityRequest struct {
	ThreadID    string       `json:"thread_id"`
	UserID      string       `json:"user_id"`
	Utterance   string       `json:"utterance"`
	Window      []Message    `json:"window,omitempty"`
	Summary     string       `json:"summary,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// CapabilityResponse is either a final utterance, a batch of sequential tool
// requests, or a hand-off back to the router.
type CapabilityResponse struct {
	Message      string         `json:"message,omitempty"`
	ToolRequests []ToolRequest  `json:"tool_requests,omitempty"`
	Handoff      CapabilityType `json:"handoff,omitempty"`
}
