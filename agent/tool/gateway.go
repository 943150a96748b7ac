package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
	embeddingx "github.com/nravee/Roamly-Travel-Concierge/pkg/embedding"
)

type GatewayConfig struct {
	// CallTimeout bounds a single backend call.
	CallTimeout time.Duration `envconfig:"CALL_TIMEOUT" split_words:"true" default:"10s"`
	// DefaultTopK applies when discover_places omits top_k.
	DefaultTopK int `envconfig:"DEFAULT_TOP_K" split_words:"true" default:"5"`
	// MaxTopK is the hard ceiling for requested result counts.
	MaxTopK int `envconfig:"MAX_TOP_K" split_words:"true" default:"10"`
	// SimilarityFloor excludes weak matches from place results.
	SimilarityFloor float64 `envconfig:"SIMILARITY_FLOOR" split_words:"true" default:"0.075"`
}

func (c *GatewayConfig) applyDefaults() {
	if c.CallTimeout <= 0 {
		c.CallTimeout = 10 * time.Second
	}
	if c.DefaultTopK <= 0 {
		c.DefaultTopK = 5
	}
	if c.MaxTopK <= 0 {
		c.MaxTopK = 10
	}
	if c.SimilarityFloor <= 0 {
		c.SimilarityFloor = 0.075
	}
}

// Gateway fronts every retrieval backend. Failures never surface as Go
// errors: they come back inside the ToolResult so the capability can narrate
// them to the traveler.
type Gateway struct {
	memories contractx.MemoryStore
	places   contractx.PlaceIndex
	contexts contractx.ContextStore
	trips    contractx.TripStore
	embedder embeddingx.Embedder
	cfg      GatewayConfig
	log      zerolog.Logger
}

var _ contractx.ToolGateway = (*Gateway)(nil)

func NewGateway(
	memories contractx.MemoryStore,
	places contractx.PlaceIndex,
	contexts contractx.ContextStore,
	trips contractx.TripStore,
	embedder embeddingx.Embedder,
	cfg GatewayConfig,
	log zerolog.Logger,
) (*Gateway, error) {
	if memories == nil || places == nil || contexts == nil || trips == nil {
		return nil, fmt.Errorf("memory store, place index, context store, and trip store are required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	cfg.applyDefaults()
	return &Gateway{
		memories: memories,
		places:   places,
		contexts: contexts,
		trips:    trips,
		embedder: embedder,
		cfg:      cfg,
		log:      log,
	}, nil
}

// PlaceView is the caller-facing projection of a catalog entry. Embeddings
// never leave the gateway.
type PlaceView struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags,omitempty"`
	Accessibility []string `json:"accessibility,omitempty"`
	Neighborhood  string   `json:"neighborhood,omitempty"`
	Rating        float64  `json:"rating"`
	PriceTier     int      `json:"price_tier"`
}

type MemoryView struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Key      string  `json:"key"`
	Value    string  `json:"value"`
	Facet    string  `json:"facet,omitempty"`
	Salience float64 `json:"salience"`
}

type ContextView struct {
	Summary  string                  `json:"summary,omitempty"`
	Messages []contractx.TurnMessage `json:"messages"`
}

// Invoke runs one tool call on behalf of a capability. The orchestrator
// stamps user_id and thread_id into the argument bag before dispatch; the
// model never supplies identity.
func (g *Gateway) Invoke(ctx context.Context, capability contractx.CapabilityType, req contractx.ToolRequest) contractx.ToolResult {
	if !allowed(capability, req.Tool) {
		return g.finish(ctx, req, failure(req.Tool, fmt.Errorf(
			"%w: tool %q is not in the %s palette", contractx.ErrInvalidArgument, req.Tool, capability)))
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
	defer cancel()

	var res contractx.ToolResult
	switch req.Tool {
	case ToolDiscoverPlaces:
		res = g.discoverPlaces(callCtx, req)
	case ToolRecallMemories:
		res = g.recallMemories(callCtx, req)
	case ToolStoreUserMemory:
		res = g.storeUserMemory(callCtx, req)
	case ToolGetThreadContext:
		res = g.threadContext(callCtx, req)
	case ToolCreateTrip:
		res = g.createTrip(callCtx, req)
	case ToolGetTrip:
		res = g.getTrip(callCtx, req)
	default:
		res = failure(req.Tool, fmt.Errorf("%w: unknown tool %q", contractx.ErrInvalidArgument, req.Tool))
	}
	return g.finish(ctx, req, res)
}

// finish archives the invocation and emits the diagnostic line. Audit
// failures are logged, not propagated; the tool outcome already happened.
func (g *Gateway) finish(ctx context.Context, req contractx.ToolRequest, res contractx.ToolResult) contractx.ToolResult {
	threadID := stringArg(req.Args, "thread_id")
	if err := g.contexts.RecordToolEvent(ctx, threadID, req, res); err != nil {
		g.log.Warn().Err(err).Str("tool", req.Tool).Msg("tool audit write failed")
	}

	var evt *zerolog.Event
	if res.OK {
		evt = g.log.Info()
	} else {
		evt = g.log.Warn().Str("error_kind", res.Error.Kind).Str("error", res.Error.Message)
	}
	evt.Str("tool", req.Tool).Str("thread_id", threadID).Bool("ok", res.OK).Msg("tool invocation")
	return res
}

func (g *Gateway) discoverPlaces(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	scope, err := requireStringArg(req.Args, "geo_scope")
	if err != nil {
		return failure(req.Tool, err)
	}
	category, diag, err := normalizeCategory(req.Args["type"])
	if err != nil {
		return failure(req.Tool, err)
	}
	if diag != "" {
		g.log.Warn().Str("tool", req.Tool).Msg(diag)
	}
	filter, err := placeFilter(req.Args["filters"])
	if err != nil {
		return failure(req.Tool, err)
	}
	topK := clampTopK(req.Args["top_k"], g.cfg.DefaultTopK, g.cfg.MaxTopK)

	// A precomputed query_embedding takes the place of embedding the text.
	vec, ok, err := embeddingArg(req.Args["query_embedding"])
	if err != nil {
		return failure(req.Tool, err)
	}
	if !ok {
		query, err := requireStringArg(req.Args, "query")
		if err != nil {
			return failure(req.Tool, err)
		}
		vec, err = g.embedder.Embed(ctx, query)
		if err != nil {
			return failure(req.Tool, fmt.Errorf("%w: embed query: %v", contractx.ErrRetrievalUnavailable, err))
		}
	}

	records, err := g.places.Query(ctx, scope, category, vec, topK, g.cfg.SimilarityFloor, filter)
	if err != nil {
		return failure(req.Tool, err)
	}

	views := make([]PlaceView, len(records))
	for i, rec := range records {
		views[i] = PlaceView{
			ID:            rec.ID,
			Name:          rec.Name,
			Description:   rec.Description,
			Tags:          rec.Tags,
			Accessibility: rec.Accessibility,
			Neighborhood:  rec.Neighborhood,
			Rating:        rec.Rating,
			PriceTier:     rec.PriceTier,
		}
	}
	return contractx.ToolResult{Tool: req.Tool, OK: true, Result: views}
}

func (g *Gateway) recallMemories(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	userID, err := requireStringArg(req.Args, "user_id")
	if err != nil {
		return failure(req.Tool, err)
	}

	category := ""
	if raw, ok := req.Args["category"]; ok && raw != nil && raw != "" {
		var diag string
		category, diag, err = normalizeCategory(raw)
		if err != nil {
			return failure(req.Tool, err)
		}
		if diag != "" {
			g.log.Warn().Str("tool", req.Tool).Msg(diag)
		}
	}

	minSalience, _ := floatArg(req.Args, "min_salience")
	if minSalience < 0 || minSalience > 1 {
		return failure(req.Tool, fmt.Errorf("%w: min_salience must be within [0, 1]", contractx.ErrInvalidArgument))
	}

	records, err := g.memories.List(ctx, userID, category)
	if err != nil {
		return failure(req.Tool, err)
	}

	views := make([]MemoryView, 0, len(records))
	for _, rec := range records {
		if rec.Salience < minSalience {
			continue
		}
		views = append(views, MemoryView{
			ID:       rec.ID,
			Category: rec.Category,
			Key:      rec.Key,
			Value:    rec.Value,
			Facet:    rec.Facet,
			Salience: rec.Salience,
		})
	}
	return contractx.ToolResult{Tool: req.Tool, OK: true, Result: views}
}

func (g *Gateway) storeUserMemory(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	userID, err := requireStringArg(req.Args, "user_id")
	if err != nil {
		return failure(req.Tool, err)
	}
	category, diag, err := normalizeCategory(req.Args["category"])
	if err != nil {
		return failure(req.Tool, err)
	}
	if diag != "" {
		g.log.Warn().Str("tool", req.Tool).Msg(diag)
	}
	key, err := requireStringArg(req.Args, "key")
	if err != nil {
		return failure(req.Tool, err)
	}
	value, err := requireStringArg(req.Args, "value")
	if err != nil {
		return failure(req.Tool, err)
	}

	rec := contractx.MemoryRecord{
		UserID:   userID,
		TenantID: stringArg(req.Args, "tenant_id"),
		Category: category,
		Key:      key,
		Value:    value,
		Facet:    stringArg(req.Args, "facet"),
		Kind:     contractx.MemoryKind(stringArg(req.Args, "kind")),
	}
	if salience, ok := floatArg(req.Args, "salience"); ok {
		rec.Salience = salience
	}
	rec.Justification = stringArg(req.Args, "justification")
	if ttl, ok := intArg(req.Args, "ttl_seconds"); ok && ttl > 0 {
		expiry := time.Now().UTC().Add(time.Duration(ttl) * time.Second)
		rec.ExpiresAt = &expiry
	}

	// Best effort: a memory without an embedding is still recallable by
	// category, so embedding failures do not block the write.
	if vec, embedErr := g.embedder.Embed(ctx, value); embedErr == nil {
		rec.Embedding = vec
	} else {
		g.log.Warn().Err(embedErr).Str("tool", req.Tool).Msg("memory embedding skipped")
	}

	stored, err := g.memories.Upsert(ctx, rec)
	if err != nil {
		return failure(req.Tool, err)
	}
	return contractx.ToolResult{Tool: req.Tool, OK: true, Result: MemoryView{
		ID:       stored.ID,
		Category: stored.Category,
		Key:      stored.Key,
		Value:    stored.Value,
		Facet:    stored.Facet,
		Salience: stored.Salience,
	}}
}

func (g *Gateway) threadContext(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	threadID, err := requireStringArg(req.Args, "thread_id")
	if err != nil {
		return failure(req.Tool, err)
	}

	window, err := g.contexts.Window(ctx, threadID)
	if err != nil {
		return failure(req.Tool, err)
	}
	summary, err := g.contexts.LatestSummary(ctx, threadID)
	if err != nil {
		return failure(req.Tool, err)
	}

	view := ContextView{Messages: make([]contractx.TurnMessage, len(window))}
	for i, msg := range window {
		view.Messages[i] = contractx.TurnMessage{Role: msg.Role, Content: msg.Content}
	}
	if summary != nil {
		view.Summary = summary.Text
	}
	return contractx.ToolResult{Tool: req.Tool, OK: true, Result: view}
}

func (g *Gateway) createTrip(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	userID, err := requireStringArg(req.Args, "user_id")
	if err != nil {
		return failure(req.Tool, err)
	}
	destination, err := requireStringArg(req.Args, "destination")
	if err != nil {
		return failure(req.Tool, err)
	}

	rec := contractx.TripRecord{
		UserID:      userID,
		TenantID:    stringArg(req.Args, "tenant_id"),
		Destination: destination,
		StartDate:   stringArg(req.Args, "start_date"),
		EndDate:     stringArg(req.Args, "end_date"),
		Travelers:   stringListArg(req.Args, "travelers"),
	}
	for i, plan := range stringListArg(req.Args, "days") {
		rec.Days = append(rec.Days, contractx.TripDay{Day: i + 1, Plan: plan})
	}

	created, err := g.trips.Create(ctx, rec)
	if err != nil {
		return failure(req.Tool, err)
	}
	return contractx.ToolResult{Tool: req.Tool, OK: true, Result: created}
}

func (g *Gateway) getTrip(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	userID, err := requireStringArg(req.Args, "user_id")
	if err != nil {
		return failure(req.Tool, err)
	}
	tripID, err := requireStringArg(req.Args, "trip_id")
	if err != nil {
		return failure(req.Tool, err)
	}

	rec, err := g.trips.Get(ctx, userID, tripID)
	if err != nil {
		return failure(req.Tool, err)
	}
	return contractx.ToolResult{Tool: req.Tool, OK: true, Result: rec}
}

func failure(tool string, err error) contractx.ToolResult {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: backend call timed out", contractx.ErrRetrievalUnavailable)
	}
	return contractx.ToolResult{
		Tool: tool,
		OK:   false,
		Error: &contractx.ToolError{
			Kind:    contractx.KindOf(err),
			Message: err.Error(),
		},
	}
}
