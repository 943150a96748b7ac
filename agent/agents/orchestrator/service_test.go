package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	contextx "github.com/nravee/Roamly-Travel-Concierge/agent/context"
	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
	statex "github.com/nravee/Roamly-Travel-Concierge/agent/state"
	toolx "github.com/nravee/Roamly-Travel-Concierge/agent/tool"
)

type fakeStore struct {
	mu      sync.Mutex
	threads map[string]*statex.Thread
	saved   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{threads: make(map[string]*statex.Thread)}
}

func (f *fakeStore) Load(ctx context.Context, threadID string) (*statex.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	th, ok := f.threads[threadID]
	if !ok {
		return nil, statex.ErrThreadNotFound
	}
	clone := *th
	return &clone, nil
}

func (f *fakeStore) Save(ctx context.Context, th *statex.Thread) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *th
	f.threads[th.ThreadID] = &clone
	f.saved++
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, threadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.threads, threadID)
	return nil
}

type fakeCapability struct {
	typ       contractx.CapabilityType
	keywords  func(string) bool
	responses []contractx.CapabilityResponse
	calls     int
	lastReqs  []contractx.CapabilityRequest
}

func (f *fakeCapability) Type() contractx.CapabilityType { return f.typ }
func (f *fakeCapability) Tools() []string                { return toolx.PaletteFor(f.typ) }
func (f *fakeCapability) Matches(u string) bool {
	if f.keywords == nil {
		return false
	}
	return f.keywords(u)
}

func (f *fakeCapability) Run(ctx context.Context, req contractx.CapabilityRequest) (contractx.CapabilityResponse, error) {
	f.lastReqs = append(f.lastReqs, req)
	idx := f.calls
	f.calls++
	if idx >= len(f.responses) {
		// Cycle for loop scenarios.
		idx = idx % len(f.responses)
	}
	return f.responses[idx], nil
}

type fakeRegistry struct {
	caps map[contractx.CapabilityType]*fakeCapability
}

func (r *fakeRegistry) Capability(t contractx.CapabilityType) (contractx.Capability, bool) {
	c, ok := r.caps[t]
	return c, ok
}

func (r *fakeRegistry) Routable() []contractx.Capability {
	var out []contractx.Capability
	for _, t := range contractx.RoutableCapabilities() {
		if c, ok := r.caps[t]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (r *fakeRegistry) Direct() contractx.Capability {
	return r.caps[contractx.CapabilityOrchestrator]
}

func (r *fakeRegistry) Summarizer() contractx.Capability { return nil }

type gatewayCall struct {
	capability contractx.CapabilityType
	req        contractx.ToolRequest
}

type fakeGateway struct {
	mu      sync.Mutex
	results map[string]contractx.ToolResult
	calls   []gatewayCall
}

func (f *fakeGateway) Invoke(ctx context.Context, capability contractx.CapabilityType, req contractx.ToolRequest) contractx.ToolResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, gatewayCall{capability: capability, req: req})
	if res, ok := f.results[req.Tool]; ok {
		return res
	}
	return contractx.ToolResult{Tool: req.Tool, OK: true, Result: "ok"}
}

func contains(keywords ...string) func(string) bool {
	return func(u string) bool {
		for _, kw := range keywords {
			if strings.Contains(u, kw) {
				return true
			}
		}
		return false
	}
}

func newTestOrchestrator(t *testing.T, registry *fakeRegistry, gateway *fakeGateway) (*Orchestrator, *fakeStore, *contextx.InMemoryStore) {
	t.Helper()

	store := newFakeStore()
	contextStore := contextx.NewInMemoryStore()
	manager, err := contextx.NewManager(contextStore, func(ctx context.Context, prior string, window []contractx.Message) (string, error) {
		return "condensed history", nil
	}, contextx.Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	o, err := New(store, registry, gateway, manager, Config{TenantID: "tenant-1"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o, store, contextStore
}

func singleCapabilityRegistry(responses ...contractx.CapabilityResponse) (*fakeRegistry, *fakeCapability) {
	hotel := &fakeCapability{
		typ:       contractx.CapabilityHotel,
		keywords:  contains("hotel"),
		responses: responses,
	}
	direct := &fakeCapability{
		typ:       contractx.CapabilityOrchestrator,
		responses: []contractx.CapabilityResponse{{Message: "hello, how can I help plan your trip?"}},
	}
	return &fakeRegistry{caps: map[contractx.CapabilityType]*fakeCapability{
		contractx.CapabilityHotel:        hotel,
		contractx.CapabilityOrchestrator: direct,
	}}, hotel
}

func TestHandleTurnToolRoundThenFinalMessage(t *testing.T) {
	t.Parallel()

	registry, hotel := singleCapabilityRegistry(
		contractx.CapabilityResponse{ToolRequests: []contractx.ToolRequest{{
			Tool: toolx.ToolDiscoverPlaces,
			Args: map[string]any{"query": "beach hotel", "type": "hotel", "geo_scope": "barcelona"},
		}}},
		contractx.CapabilityResponse{Message: "Casa Mar looks like a great fit."},
	)
	gateway := &fakeGateway{}
	o, store, _ := newTestOrchestrator(t, registry, gateway)

	result, err := o.HandleTurn(context.Background(), contractx.TurnRequest{
		ThreadID: "thread-1", UserID: "user-1", Utterance: "find me a hotel in barcelona",
	})
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}

	if hotel.calls != 2 {
		t.Fatalf("capability calls = %d, want 2 (plan, finalize)", hotel.calls)
	}
	if len(gateway.calls) != 1 {
		t.Fatalf("gateway calls = %d, want 1", len(gateway.calls))
	}
	stamped := gateway.calls[0].req.Args
	if stamped["user_id"] != "user-1" || stamped["thread_id"] != "thread-1" {
		t.Fatalf("identity not stamped into tool args: %#v", stamped)
	}
	if len(hotel.lastReqs[1].ToolResults) != 1 {
		t.Fatalf("second round tool results = %d, want 1", len(hotel.lastReqs[1].ToolResults))
	}

	if len(result.Messages) != 2 {
		t.Fatalf("result messages = %d, want 2", len(result.Messages))
	}
	if result.Messages[0].Role != contractx.RoleUser || result.Messages[1].Role != contractx.RoleAssistant {
		t.Fatalf("result roles = %+v", result.Messages)
	}
	if result.ActiveCapability != contractx.CapabilityHotel {
		t.Fatalf("active capability = %s, want hotel", result.ActiveCapability)
	}

	th := store.threads["thread-1"]
	if th == nil || th.ActiveCapability != string(contractx.CapabilityHotel) {
		t.Fatalf("persisted thread = %+v", th)
	}
	if th.MessageCount != 2 {
		t.Fatalf("message count = %d, want 2", th.MessageCount)
	}
}

func TestHandleTurnStickyRoutingAcrossTurns(t *testing.T) {
	t.Parallel()

	registry, hotel := singleCapabilityRegistry(
		contractx.CapabilityResponse{Message: "Casa Mar or Hotel Eixample."},
		contractx.CapabilityResponse{Message: "Casa Mar is the cheaper of the two."},
	)
	o, _, _ := newTestOrchestrator(t, registry, &fakeGateway{})
	ctx := context.Background()

	if _, err := o.HandleTurn(ctx, contractx.TurnRequest{
		ThreadID: "thread-1", UserID: "user-1", Utterance: "find me a hotel",
	}); err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}

	// No hotel keyword; the thread must stay with the hotel capability.
	result, err := o.HandleTurn(ctx, contractx.TurnRequest{
		ThreadID: "thread-1", UserID: "user-1", Utterance: "which one is cheaper?",
	})
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if hotel.calls != 2 {
		t.Fatalf("hotel calls = %d, want 2", hotel.calls)
	}
	if result.ActiveCapability != contractx.CapabilityHotel {
		t.Fatalf("active capability = %s, want sticky hotel", result.ActiveCapability)
	}
}

func TestHandleTurnColdGreetingStaysWithOrchestrator(t *testing.T) {
	t.Parallel()

	registry, hotel := singleCapabilityRegistry(contractx.CapabilityResponse{Message: "unused"})
	o, store, _ := newTestOrchestrator(t, registry, &fakeGateway{})

	result, err := o.HandleTurn(context.Background(), contractx.TurnRequest{
		ThreadID: "thread-1", UserID: "user-1", Utterance: "good morning!",
	})
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if hotel.calls != 0 {
		t.Fatalf("hotel calls = %d, want 0", hotel.calls)
	}
	if result.ActiveCapability != contractx.CapabilityOrchestrator {
		t.Fatalf("active capability = %s, want orchestrator", result.ActiveCapability)
	}
	if th := store.threads["thread-1"]; th.ActiveCapability != string(contractx.CapabilityOrchestrator) {
		t.Fatalf("persisted active capability = %q", th.ActiveCapability)
	}
}

func TestHandleTurnHopLimitDegradesToFallback(t *testing.T) {
	t.Parallel()

	hotel := &fakeCapability{
		typ:       contractx.CapabilityHotel,
		keywords:  contains("hotel"),
		responses: []contractx.CapabilityResponse{{Handoff: contractx.CapabilityDining}},
	}
	dining := &fakeCapability{
		typ:       contractx.CapabilityDining,
		responses: []contractx.CapabilityResponse{{Handoff: contractx.CapabilityHotel}},
	}
	registry := &fakeRegistry{caps: map[contractx.CapabilityType]*fakeCapability{
		contractx.CapabilityHotel:  hotel,
		contractx.CapabilityDining: dining,
	}}
	o, store, _ := newTestOrchestrator(t, registry, &fakeGateway{})

	result, err := o.HandleTurn(context.Background(), contractx.TurnRequest{
		ThreadID: "thread-1", UserID: "user-1", Utterance: "hotel please",
	})
	if err != nil {
		t.Fatalf("HandleTurn() error = %v, want degraded success", err)
	}

	// Five hand-offs total: hotel, dining, hotel, dining, hotel.
	if got := hotel.calls + dining.calls; got != 5 {
		t.Fatalf("capability invocations = %d, want 5", got)
	}
	if len(result.Messages) != 2 || result.Messages[1].Content == "" {
		t.Fatalf("expected fallback reply, got %+v", result.Messages)
	}
	if result.ActiveCapability != "" {
		t.Fatalf("active capability = %s, want reset", result.ActiveCapability)
	}
	if th := store.threads["thread-1"]; th.ActiveCapability != "" {
		t.Fatalf("persisted active capability = %q, want cleared", th.ActiveCapability)
	}
}

func TestHandleTurnAppendsTraceToContext(t *testing.T) {
	t.Parallel()

	registry, _ := singleCapabilityRegistry(contractx.CapabilityResponse{Message: "Casa Mar."})
	o, _, contextStore := newTestOrchestrator(t, registry, &fakeGateway{})

	if _, err := o.HandleTurn(context.Background(), contractx.TurnRequest{
		ThreadID: "thread-1", UserID: "user-1", Utterance: "hotel ideas?",
	}); err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}

	window, err := contextStore.Window(context.Background(), "thread-1")
	if err != nil {
		t.Fatalf("Window() error = %v", err)
	}
	if len(window) != 2 {
		t.Fatalf("window len = %d, want 2", len(window))
	}
	if window[0].Role != contractx.RoleUser || window[1].Role != contractx.RoleAssistant {
		t.Fatalf("window roles = %+v", window)
	}
	if window[1].Capability != contractx.CapabilityHotel {
		t.Fatalf("assistant message capability = %s", window[1].Capability)
	}
}

func TestHandleTurnValidation(t *testing.T) {
	t.Parallel()

	registry, _ := singleCapabilityRegistry(contractx.CapabilityResponse{Message: "unused"})
	o, _, _ := newTestOrchestrator(t, registry, &fakeGateway{})
	ctx := context.Background()

	cases := []struct {
		req  contractx.TurnRequest
		want error
	}{
		{contractx.TurnRequest{UserID: "u", Utterance: "hi"}, ErrInvalidThread},
		{contractx.TurnRequest{ThreadID: "t", Utterance: "hi"}, ErrInvalidUser},
		{contractx.TurnRequest{ThreadID: "t", UserID: "u", Utterance: "  "}, ErrInvalidUtterance},
	}
	for _, tc := range cases {
		_, err := o.HandleTurn(ctx, tc.req)
		if !errors.Is(err, tc.want) {
			t.Fatalf("HandleTurn(%+v) error = %v, want %v", tc.req, err, tc.want)
		}
	}
}

func TestHandleTurnSerializesSameThread(t *testing.T) {
	t.Parallel()

	responses := make([]contractx.CapabilityResponse, 0, 20)
	for i := 0; i < 20; i++ {
		responses = append(responses, contractx.CapabilityResponse{Message: fmt.Sprintf("reply %d", i)})
	}
	registry, _ := singleCapabilityRegistry(responses...)
	o, store, _ := newTestOrchestrator(t, registry, &fakeGateway{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := o.HandleTurn(context.Background(), contractx.TurnRequest{
				ThreadID: "thread-1", UserID: "user-1", Utterance: "hotel please",
			})
			if err != nil {
				t.Errorf("HandleTurn() error = %v", err)
			}
		}()
	}
	wg.Wait()

	th := store.threads["thread-1"]
	if th == nil {
		t.Fatal("thread not persisted")
	}
	if th.MessageCount != 20 {
		t.Fatalf("message count = %d, want 20 (2 per serialized turn)", th.MessageCount)
	}
}
