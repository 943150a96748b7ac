package tool

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	contextx "github.com/nravee/Roamly-Travel-Concierge/agent/context"
	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
	"github.com/nravee/Roamly-Travel-Concierge/agent/memory"
	"github.com/nravee/Roamly-Travel-Concierge/agent/places"
	"github.com/nravee/Roamly-Travel-Concierge/agent/trip"
	embeddingx "github.com/nravee/Roamly-Travel-Concierge/pkg/embedding"
)

type fixedEmbedder struct {
	vec embeddingx.Vector
	err error
}

func (f fixedEmbedder) Embed(ctx context.Context, text string) (embeddingx.Vector, error) {
	return f.vec, f.err
}

func (f fixedEmbedder) Dims() int { return len(f.vec) }

func catalog() []contractx.PlaceRecord {
	return []contractx.PlaceRecord{
		{ID: "pl_01", GeoScopeID: "barcelona", Category: "hotel", Name: "Casa Mar", PriceTier: 2, Embedding: []float32{1, 0, 0}},
		{ID: "pl_02", GeoScopeID: "barcelona", Category: "hotel", Name: "Hotel Eixample", PriceTier: 4, Embedding: []float32{0.9, 0.1, 0}},
		{ID: "pl_03", GeoScopeID: "barcelona", Category: "restaurant", Name: "Tapas 24", PriceTier: 2, Embedding: []float32{1, 0, 0}},
	}
}

func newTestGateway(t *testing.T) (*Gateway, *contextx.InMemoryStore, *memory.InMemoryStore) {
	t.Helper()
	contexts := contextx.NewInMemoryStore()
	memories := memory.NewInMemoryStore()
	gw, err := NewGateway(
		memories,
		places.NewInMemoryIndex(catalog()),
		contexts,
		trip.NewInMemoryStore(),
		fixedEmbedder{vec: embeddingx.Vector{1, 0, 0}},
		GatewayConfig{},
		zerolog.Nop(),
	)
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	return gw, contexts, memories
}

func TestDiscoverPlacesCategoryShapesAreEquivalent(t *testing.T) {
	t.Parallel()

	gw, _, _ := newTestGateway(t)
	ctx := context.Background()

	shapes := []any{"hotel", []string{"hotel"}, []any{"hotel", "cafe"}, "hotel|cafe"}
	var results [][]PlaceView
	for _, shape := range shapes {
		res := gw.Invoke(ctx, contractx.CapabilityHotel, contractx.ToolRequest{
			Tool: ToolDiscoverPlaces,
			Args: map[string]any{
				"query":     "seafront hotel",
				"type":      shape,
				"geo_scope": "barcelona",
				"thread_id": "thread-1",
			},
		})
		if !res.OK {
			t.Fatalf("Invoke(%v) failed: %+v", shape, res.Error)
		}
		results = append(results, res.Result.([]PlaceView))
	}

	for i := 1; i < len(results); i++ {
		if !reflect.DeepEqual(results[0], results[i]) {
			t.Fatalf("shape %v produced different results:\nwant %v\ngot  %v",
				shapes[i], results[0], results[i])
		}
	}
	if len(results[0]) != 2 || results[0][0].ID != "pl_01" {
		t.Fatalf("unexpected ranking: %v", results[0])
	}
}

func TestDiscoverPlacesStripsEmbeddings(t *testing.T) {
	t.Parallel()

	gw, _, _ := newTestGateway(t)
	res := gw.Invoke(context.Background(), contractx.CapabilityHotel, contractx.ToolRequest{
		Tool: ToolDiscoverPlaces,
		Args: map[string]any{"query": "hotel", "type": "hotel", "geo_scope": "barcelona"},
	})
	if !res.OK {
		t.Fatalf("Invoke() failed: %+v", res.Error)
	}
	if _, ok := res.Result.([]PlaceView); !ok {
		t.Fatalf("result is %T, want []PlaceView", res.Result)
	}
}

func TestDiscoverPlacesPriceTierFilter(t *testing.T) {
	t.Parallel()

	gw, _, _ := newTestGateway(t)
	res := gw.Invoke(context.Background(), contractx.CapabilityHotel, contractx.ToolRequest{
		Tool: ToolDiscoverPlaces,
		Args: map[string]any{
			"query":     "somewhere affordable near the beach",
			"type":      "hotel",
			"geo_scope": "barcelona",
			"filters":   map[string]any{"price_tier": float64(2)},
		},
	})
	if !res.OK {
		t.Fatalf("discover failed: %+v", res.Error)
	}
	views := res.Result.([]PlaceView)
	if len(views) != 1 || views[0].ID != "pl_01" {
		t.Fatalf("views = %+v, want only pl_01 (tier 2)", views)
	}
}

func TestDiscoverPlacesQueryEmbeddingSkipsEmbedder(t *testing.T) {
	t.Parallel()

	gw, err := NewGateway(
		memory.NewInMemoryStore(),
		places.NewInMemoryIndex(catalog()),
		contextx.NewInMemoryStore(),
		trip.NewInMemoryStore(),
		fixedEmbedder{err: errors.New("upstream 503")},
		GatewayConfig{},
		zerolog.Nop(),
	)
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}

	res := gw.Invoke(context.Background(), contractx.CapabilityHotel, contractx.ToolRequest{
		Tool: ToolDiscoverPlaces,
		Args: map[string]any{
			"type":            "hotel",
			"geo_scope":       "barcelona",
			"query_embedding": []any{1.0, 0.0, 0.0},
		},
	})
	if !res.OK {
		t.Fatalf("discover failed despite precomputed embedding: %+v", res.Error)
	}
	if views := res.Result.([]PlaceView); len(views) == 0 {
		t.Fatal("expected results from the precomputed query vector")
	}
}

func TestInvokeRejectsToolOutsidePalette(t *testing.T) {
	t.Parallel()

	gw, _, _ := newTestGateway(t)
	res := gw.Invoke(context.Background(), contractx.CapabilitySummarizer, contractx.ToolRequest{
		Tool: ToolDiscoverPlaces,
		Args: map[string]any{"query": "hotel", "type": "hotel", "geo_scope": "barcelona"},
	})
	if res.OK {
		t.Fatal("expected palette violation to fail")
	}
	if res.Error.Kind != contractx.KindInvalidArgument {
		t.Fatalf("error kind = %s, want %s", res.Error.Kind, contractx.KindInvalidArgument)
	}
}

func TestInvokeMissingRequiredArgument(t *testing.T) {
	t.Parallel()

	gw, _, _ := newTestGateway(t)
	res := gw.Invoke(context.Background(), contractx.CapabilityHotel, contractx.ToolRequest{
		Tool: ToolDiscoverPlaces,
		Args: map[string]any{"type": "hotel", "geo_scope": "barcelona"},
	})
	if res.OK || res.Error.Kind != contractx.KindInvalidArgument {
		t.Fatalf("result = %+v, want invalid_argument failure", res)
	}
}

func TestStoreThenRecallMemoryRoundTrip(t *testing.T) {
	t.Parallel()

	gw, _, _ := newTestGateway(t)
	ctx := context.Background()

	stored := gw.Invoke(ctx, contractx.CapabilityDining, contractx.ToolRequest{
		Tool: ToolStoreUserMemory,
		Args: map[string]any{
			"user_id":  "user-1",
			"category": "dining",
			"key":      "dietary",
			"value":    "vegetarian",
			"facet":    "dietary",
		},
	})
	if !stored.OK {
		t.Fatalf("store failed: %+v", stored.Error)
	}

	recalled := gw.Invoke(ctx, contractx.CapabilityDining, contractx.ToolRequest{
		Tool: ToolRecallMemories,
		Args: map[string]any{"user_id": "user-1", "category": "dining"},
	})
	if !recalled.OK {
		t.Fatalf("recall failed: %+v", recalled.Error)
	}
	views := recalled.Result.([]MemoryView)
	if len(views) != 1 || views[0].Value != "vegetarian" {
		t.Fatalf("recall = %+v", views)
	}
}

func TestStoreUserMemoryTTLSetsExpiry(t *testing.T) {
	t.Parallel()

	gw, _, memories := newTestGateway(t)
	res := gw.Invoke(context.Background(), contractx.CapabilityHotel, contractx.ToolRequest{
		Tool: ToolStoreUserMemory,
		Args: map[string]any{
			"user_id":     "user-1",
			"category":    "hotel",
			"key":         "visit",
			"value":       "arrived in barcelona",
			"ttl_seconds": float64(3600),
		},
	})
	if !res.OK {
		t.Fatalf("store failed: %+v", res.Error)
	}

	recs, err := memories.List(context.Background(), "user-1", "hotel")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(recs) != 1 || recs[0].ExpiresAt == nil {
		t.Fatalf("recs = %+v, want one record with expiry", recs)
	}
	if until := time.Until(*recs[0].ExpiresAt); until <= 0 || until > time.Hour {
		t.Fatalf("expiry %v out of range", recs[0].ExpiresAt)
	}
}

func TestRecallMemoriesMinSalienceFloor(t *testing.T) {
	t.Parallel()

	gw, _, _ := newTestGateway(t)
	ctx := context.Background()

	for key, salience := range map[string]float64{"dietary": 0.9, "aside": 0.2} {
		res := gw.Invoke(ctx, contractx.CapabilityDining, contractx.ToolRequest{
			Tool: ToolStoreUserMemory,
			Args: map[string]any{
				"user_id":  "user-1",
				"category": "dining",
				"key":      key,
				"value":    "noted",
				"salience": salience,
			},
		})
		if !res.OK {
			t.Fatalf("store %s failed: %+v", key, res.Error)
		}
	}

	recalled := gw.Invoke(ctx, contractx.CapabilityDining, contractx.ToolRequest{
		Tool: ToolRecallMemories,
		Args: map[string]any{"user_id": "user-1", "min_salience": 0.5},
	})
	if !recalled.OK {
		t.Fatalf("recall failed: %+v", recalled.Error)
	}
	views := recalled.Result.([]MemoryView)
	if len(views) != 1 || views[0].Key != "dietary" {
		t.Fatalf("views = %+v, want only the high-salience memory", views)
	}
}

func TestCreateTripThenGetTripRoundTrip(t *testing.T) {
	t.Parallel()

	gw, _, _ := newTestGateway(t)
	ctx := context.Background()

	created := gw.Invoke(ctx, contractx.CapabilityItinerary, contractx.ToolRequest{
		Tool: ToolCreateTrip,
		Args: map[string]any{
			"user_id":     "user-1",
			"destination": "Barcelona",
			"start_date":  "2026-09-10",
			"end_date":    "2026-09-12",
			"days":        []any{"sagrada familia and el born", "beach day", "montjuic"},
		},
	})
	if !created.OK {
		t.Fatalf("create_trip failed: %+v", created.Error)
	}
	rec := created.Result.(contractx.TripRecord)
	if len(rec.Days) != 3 || rec.Days[2].Day != 3 {
		t.Fatalf("trip days = %+v", rec.Days)
	}

	fetched := gw.Invoke(ctx, contractx.CapabilityItinerary, contractx.ToolRequest{
		Tool: ToolGetTrip,
		Args: map[string]any{"user_id": "user-1", "trip_id": rec.ID},
	})
	if !fetched.OK {
		t.Fatalf("get_trip failed: %+v", fetched.Error)
	}
	if got := fetched.Result.(contractx.TripRecord); got.Destination != "barcelona" {
		t.Fatalf("destination = %s, want barcelona", got.Destination)
	}
}

func TestGetTripMissing(t *testing.T) {
	t.Parallel()

	gw, _, _ := newTestGateway(t)
	res := gw.Invoke(context.Background(), contractx.CapabilityItinerary, contractx.ToolRequest{
		Tool: ToolGetTrip,
		Args: map[string]any{"user_id": "user-1", "trip_id": "trip_2026_bar"},
	})
	if res.OK || res.Error.Kind != contractx.KindNotFound {
		t.Fatalf("result = %+v, want not_found failure", res)
	}
}

func TestTripToolsOutsideItineraryPalette(t *testing.T) {
	t.Parallel()

	gw, _, _ := newTestGateway(t)
	res := gw.Invoke(context.Background(), contractx.CapabilityHotel, contractx.ToolRequest{
		Tool: ToolCreateTrip,
		Args: map[string]any{"user_id": "user-1", "destination": "barcelona"},
	})
	if res.OK || res.Error.Kind != contractx.KindInvalidArgument {
		t.Fatalf("result = %+v, want invalid_argument failure", res)
	}
}

func TestRecallMemoriesBrandNewUser(t *testing.T) {
	t.Parallel()

	gw, _, _ := newTestGateway(t)
	res := gw.Invoke(context.Background(), contractx.CapabilityHotel, contractx.ToolRequest{
		Tool: ToolRecallMemories,
		Args: map[string]any{"user_id": "nobody"},
	})
	if !res.OK {
		t.Fatalf("recall failed: %+v", res.Error)
	}
	if views := res.Result.([]MemoryView); len(views) != 0 {
		t.Fatalf("recall = %+v, want empty", views)
	}
}

func TestInvokeRecordsAuditEvents(t *testing.T) {
	t.Parallel()

	gw, contexts, _ := newTestGateway(t)
	gw.Invoke(context.Background(), contractx.CapabilityHotel, contractx.ToolRequest{
		Tool: ToolRecallMemories,
		Args: map[string]any{"user_id": "user-1", "thread_id": "thread-1"},
	})
	gw.Invoke(context.Background(), contractx.CapabilityHotel, contractx.ToolRequest{
		Tool: ToolDiscoverPlaces,
		Args: map[string]any{"thread_id": "thread-1"}, // fails validation
	})

	if got := contexts.ToolEvents("thread-1"); got != 2 {
		t.Fatalf("tool events = %d, want 2 (failures are audited too)", got)
	}
}

func TestInvokeEmitsOneLogLinePerCall(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	gw, err := NewGateway(
		memory.NewInMemoryStore(),
		places.NewInMemoryIndex(catalog()),
		contextx.NewInMemoryStore(),
		trip.NewInMemoryStore(),
		fixedEmbedder{vec: embeddingx.Vector{1, 0, 0}},
		GatewayConfig{},
		zerolog.New(&buf),
	)
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}

	gw.Invoke(context.Background(), contractx.CapabilityHotel, contractx.ToolRequest{
		Tool: ToolRecallMemories,
		Args: map[string]any{"user_id": "user-1"},
	})
	gw.Invoke(context.Background(), contractx.CapabilityHotel, contractx.ToolRequest{
		Tool: ToolDiscoverPlaces,
		Args: map[string]any{}, // fails validation
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want exactly one per invocation:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"level":"info"`) {
		t.Fatalf("first line not info-level: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"level":"warn"`) || !strings.Contains(lines[1], "error_kind") {
		t.Fatalf("second line not a warn with error_kind: %s", lines[1])
	}
}

func TestEmbedderOutageMapsToRetrievalUnavailable(t *testing.T) {
	t.Parallel()

	gw, err := NewGateway(
		memory.NewInMemoryStore(),
		places.NewInMemoryIndex(catalog()),
		contextx.NewInMemoryStore(),
		trip.NewInMemoryStore(),
		fixedEmbedder{err: errors.New("upstream 503")},
		GatewayConfig{},
		zerolog.Nop(),
	)
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}

	res := gw.Invoke(context.Background(), contractx.CapabilityHotel, contractx.ToolRequest{
		Tool: ToolDiscoverPlaces,
		Args: map[string]any{"query": "hotel", "type": "hotel", "geo_scope": "barcelona"},
	})
	if res.OK || res.Error.Kind != contractx.KindRetrievalUnavailable {
		t.Fatalf("result = %+v, want retrieval_unavailable failure", res)
	}
}

func TestGetThreadContextReturnsWindowAndSummary(t *testing.T) {
	t.Parallel()

	gw, contexts, _ := newTestGateway(t)
	ctx := context.Background()

	if err := contexts.Append(ctx, "thread-1", contractx.Message{
		ID: "msg_001", Role: contractx.RoleUser, Content: "plan my trip",
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := contexts.Compress(ctx, contractx.ConversationSummary{
		ID: "sum_1", ThreadID: "thread-1", FromSeq: 1, ToSeq: 1, Text: "early planning",
	}); err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	res := gw.Invoke(ctx, contractx.CapabilityItinerary, contractx.ToolRequest{
		Tool: ToolGetThreadContext,
		Args: map[string]any{"thread_id": "thread-1"},
	})
	if !res.OK {
		t.Fatalf("Invoke() failed: %+v", res.Error)
	}
	view := res.Result.(ContextView)
	if view.Summary != "early planning" {
		t.Fatalf("summary = %q", view.Summary)
	}
	if len(view.Messages) != 1 || view.Messages[0].Content != "plan my trip" {
		t.Fatalf("messages = %+v", view.Messages)
	}
}
