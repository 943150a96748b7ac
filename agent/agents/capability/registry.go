package capability

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
	llmx "github.com/nravee/Roamly-Travel-Concierge/agent/llm"
	promptx "github.com/nravee/Roamly-Travel-Concierge/agent/prompt"
	routerx "github.com/nravee/Roamly-Travel-Concierge/agent/router"
)

type registryImpl struct {
	byType     map[contractx.CapabilityType]contractx.Capability
	routable   []contractx.Capability
	direct     contractx.Capability
	summarizer contractx.Capability
}

var _ contractx.Registry = (*registryImpl)(nil)

func (r *registryImpl) Capability(t contractx.CapabilityType) (contractx.Capability, bool) {
	c, ok := r.byType[t]
	return c, ok
}

func (r *registryImpl) Routable() []contractx.Capability { return r.routable }

func (r *registryImpl) Direct() contractx.Capability { return r.direct }

func (r *registryImpl) Summarizer() contractx.Capability { return r.summarizer }

// intentKeywords are the per-capability routing predicates. The router only
// consults them for routable capabilities.
var intentKeywords = map[contractx.CapabilityType][]string{
	contractx.CapabilityHotel:     {"hotel", "stay", "room", "accommodation", "hostel", "lodging"},
	contractx.CapabilityDining:    {"restaurant", "eat", "dinner", "lunch", "breakfast", "food", "dining", "tapas"},
	contractx.CapabilityActivity:  {"museum", "tour", "activity", "activities", "attraction", "things to do", "sightseeing"},
	contractx.CapabilityItinerary: {"itinerary", "plan", "schedule", "day by day"},
}

// NewRegistry builds one model-backed capability per variant. Registration
// order of the routable set is the router's ambiguity tie-break.
func NewRegistry(ctx context.Context, cfg llmx.Config) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	models := make(map[contractx.CapabilityType]einomodel.ToolCallingChatModel)
	for _, typ := range []contractx.CapabilityType{
		contractx.CapabilityOrchestrator,
		contractx.CapabilityHotel,
		contractx.CapabilityDining,
		contractx.CapabilityActivity,
		contractx.CapabilityItinerary,
		contractx.CapabilitySummarizer,
	} {
		modelCfg := cfg.OpenRouterFor(typ)
		model, err := modelCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, typ, err)
		}
		models[typ] = model
	}

	return NewRegistryWithModels(ctx, models, prompts)
}

// NewRegistryWithModels is the seam tests and embedded deployments use to
// supply prebuilt chat models.
func NewRegistryWithModels(
	ctx context.Context,
	models map[contractx.CapabilityType]einomodel.ToolCallingChatModel,
	prompts promptx.PromptSet,
) (contractx.Registry, error) {
	direct, err := newCapability(ctx, contractx.CapabilityOrchestrator, models[contractx.CapabilityOrchestrator], prompts.Orchestrator, nil)
	if err != nil {
		return nil, err
	}

	specialistPrompts := map[contractx.CapabilityType]string{
		contractx.CapabilityHotel:     prompts.Hotel,
		contractx.CapabilityDining:    prompts.Dining,
		contractx.CapabilityActivity:  prompts.Activity,
		contractx.CapabilityItinerary: prompts.Itinerary,
	}

	byType := map[contractx.CapabilityType]contractx.Capability{
		contractx.CapabilityOrchestrator: direct,
	}
	var routable []contractx.Capability
	for _, typ := range contractx.RoutableCapabilities() {
		c, err := newCapability(ctx, typ, models[typ], specialistPrompts[typ],
			routerx.KeywordPredicate(intentKeywords[typ]...))
		if err != nil {
			return nil, err
		}
		byType[typ] = c
		routable = append(routable, c)
	}

	summarizer, err := newSummarizer(ctx, models[contractx.CapabilitySummarizer], prompts.Summarizer)
	if err != nil {
		return nil, err
	}
	byType[contractx.CapabilitySummarizer] = summarizer

	return &registryImpl{
		byType:     byType,
		routable:   routable,
		direct:     direct,
		summarizer: summarizer,
	}, nil
}
