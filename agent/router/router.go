// Package router decides which capability owns a turn. Routing is sticky: an
// ambiguous or unmatched utterance stays with the active capability rather
// than bouncing the traveler between specialists.
package router

import (
	"strings"

	"github.com/rs/zerolog"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

// Explicit planning phrases escalate to the itinerary capability regardless
// of which specialist is active.
var itineraryPhrases = []string{
	"add to itinerary",
	"add it to my itinerary",
	"create plan",
	"create a plan",
	"build my itinerary",
	"put together an itinerary",
}

type Router struct {
	registry contractx.Registry
	log      zerolog.Logger
}

func New(registry contractx.Registry, log zerolog.Logger) *Router {
	return &Router{registry: registry, log: log}
}

// Next picks the capability for this turn given the thread's active
// capability and the new utterance. Precedence: explicit itinerary phrasing,
// then a unique intent match, then the active capability on ambiguity or
// silence, then first-registered on cold ambiguity, then the orchestrator.
func (r *Router) Next(active contractx.CapabilityType, utterance string) contractx.CapabilityType {
	u := strings.ToLower(strings.TrimSpace(utterance))

	for _, phrase := range itineraryPhrases {
		if strings.Contains(u, phrase) {
			r.trace(active, contractx.CapabilityItinerary, "itinerary phrase")
			return contractx.CapabilityItinerary
		}
	}

	var matched []contractx.CapabilityType
	for _, cap := range r.registry.Routable() {
		if cap.Matches(u) {
			matched = append(matched, cap.Type())
		}
	}

	switch len(matched) {
	case 1:
		r.trace(active, matched[0], "unique intent match")
		return matched[0]
	case 0:
		if active.Registered() && active != contractx.CapabilityOrchestrator {
			r.trace(active, active, "sticky, no intent match")
			return active
		}
		r.trace(active, contractx.CapabilityOrchestrator, "no intent match, cold thread")
		return contractx.CapabilityOrchestrator
	default:
		for _, t := range matched {
			if t == active {
				r.trace(active, active, "ambiguous, kept active")
				return active
			}
		}
		r.trace(active, matched[0], "ambiguous, first registered")
		return matched[0]
	}
}

func (r *Router) trace(active, next contractx.CapabilityType, reason string) {
	r.log.Debug().
		Str("active", string(active)).
		Str("next", string(next)).
		Str("reason", reason).
		Msg("routed turn")
}
