// Package tool is the single dispatch point between capabilities and the
// retrieval backends. Every tool call is validated against the calling
// capability's palette, normalized, executed with a deadline, and archived.
package tool

import (
	"github.com/cloudwego/eino/schema"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

const (
	ToolDiscoverPlaces   = "discover_places"
	ToolRecallMemories   = "recall_memories"
	ToolStoreUserMemory  = "store_user_memory"
	ToolGetThreadContext = "get_thread_context"
	ToolCreateTrip       = "create_trip"
	ToolGetTrip          = "get_trip"
)

// Hand-off pseudo-tools. The gateway never executes these; the capability
// layer intercepts them and turns the call into a router hand-off.
const (
	HandoffHotel     = "transfer_to_hotel"
	HandoffDining    = "transfer_to_dining"
	HandoffActivity  = "transfer_to_activity"
	HandoffItinerary = "transfer_to_itinerary"
)

// HandoffTarget resolves a transfer_to_* pseudo-tool to its capability.
func HandoffTarget(tool string) (contractx.CapabilityType, bool) {
	switch tool {
	case HandoffHotel:
		return contractx.CapabilityHotel, true
	case HandoffDining:
		return contractx.CapabilityDining, true
	case HandoffActivity:
		return contractx.CapabilityActivity, true
	case HandoffItinerary:
		return contractx.CapabilityItinerary, true
	}
	return "", false
}

// PaletteFor lists the executable tools a capability may invoke. Hand-off
// pseudo-tools are not part of the palette.
func PaletteFor(t contractx.CapabilityType) []string {
	switch t {
	case contractx.CapabilityHotel, contractx.CapabilityDining, contractx.CapabilityActivity:
		return []string{ToolDiscoverPlaces, ToolRecallMemories, ToolStoreUserMemory}
	case contractx.CapabilityItinerary:
		return []string{ToolDiscoverPlaces, ToolRecallMemories, ToolStoreUserMemory, ToolGetThreadContext, ToolCreateTrip, ToolGetTrip}
	case contractx.CapabilitySummarizer:
		return []string{ToolGetThreadContext}
	default:
		return nil
	}
}

func allowed(t contractx.CapabilityType, tool string) bool {
	for _, name := range PaletteFor(t) {
		if name == tool {
			return true
		}
	}
	return false
}

// InfosFor builds the tool schemas bound to a capability's chat model,
// including the hand-off pseudo-tools it may raise.
func InfosFor(t contractx.CapabilityType) []*schema.ToolInfo {
	var infos []*schema.ToolInfo
	for _, name := range PaletteFor(t) {
		if info, ok := executableInfos[name]; ok {
			infos = append(infos, info)
		}
	}
	if t != contractx.CapabilitySummarizer {
		for _, info := range handoffInfos {
			if target, _ := HandoffTarget(info.Name); target != t {
				infos = append(infos, info)
			}
		}
	}
	return infos
}

var executableInfos = map[string]*schema.ToolInfo{
	ToolDiscoverPlaces: {
		Name: ToolDiscoverPlaces,
		Desc: "Find places matching a traveler's request within a destination, ranked by relevance.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query":     {Type: schema.String, Desc: "Natural language description of what the traveler wants", Required: true},
			"type":      {Type: schema.String, Desc: "Place type, e.g. hotel, restaurant, museum", Required: true},
			"geo_scope": {Type: schema.String, Desc: "Destination identifier, e.g. barcelona", Required: true},
			"top_k":     {Type: schema.Integer, Desc: "How many results to return (default 5)"},
			"filters": {Type: schema.Object, Desc: "Optional equality filters", SubParams: map[string]*schema.ParameterInfo{
				"price_tier": {Type: schema.Integer, Desc: "Price tier from 1 (budget) to 4 (luxury)"},
			}},
		}),
	},
	ToolRecallMemories: {
		Name: ToolRecallMemories,
		Desc: "Recall stored preferences and facts about the current traveler.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"category":     {Type: schema.String, Desc: "Filter by category: hotel, dining, activity, or trip"},
			"min_salience": {Type: schema.Number, Desc: "Drop memories weaker than this, 0 to 1"},
		}),
	},
	ToolStoreUserMemory: {
		Name: ToolStoreUserMemory,
		Desc: "Store a durable preference or fact about the traveler for future turns.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"category":      {Type: schema.String, Desc: "One of hotel, dining, activity, trip", Required: true},
			"key":           {Type: schema.String, Desc: "Stable name for the fact, e.g. dietary", Required: true},
			"value":         {Type: schema.String, Desc: "The fact itself", Required: true},
			"facet":         {Type: schema.String, Desc: "Optional finer-grained grouping"},
			"kind":          {Type: schema.String, Desc: "declarative (default), procedural, or episodic"},
			"salience":      {Type: schema.Number, Desc: "How strongly this should influence recall, 0 to 1"},
			"justification": {Type: schema.String, Desc: "Why this fact is worth remembering"},
			"ttl_seconds":   {Type: schema.Integer, Desc: "Optional expiry in seconds"},
		}),
	},
	ToolGetThreadContext: {
		Name: ToolGetThreadContext,
		Desc: "Fetch the retained conversation window and latest summary for this thread.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	},
	ToolCreateTrip: {
		Name: ToolCreateTrip,
		Desc: "Save the traveler's itinerary draft so it can be picked up on later turns.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"destination": {Type: schema.String, Desc: "Destination identifier, e.g. barcelona", Required: true},
			"start_date":  {Type: schema.String, Desc: "Trip start, YYYY-MM-DD"},
			"end_date":    {Type: schema.String, Desc: "Trip end, YYYY-MM-DD"},
			"travelers":   {Type: schema.Array, Desc: "Who is going", ElemInfo: &schema.ParameterInfo{Type: schema.String}},
			"days":        {Type: schema.Array, Desc: "One plan entry per day, in order", ElemInfo: &schema.ParameterInfo{Type: schema.String}},
		}),
	},
	ToolGetTrip: {
		Name: ToolGetTrip,
		Desc: "Fetch a previously saved itinerary draft.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"trip_id": {Type: schema.String, Desc: "Trip identifier, e.g. trip_2026_bar", Required: true},
		}),
	},
}

var handoffInfos = []*schema.ToolInfo{
	{
		Name:        HandoffHotel,
		Desc:        "Hand the conversation to the hotel specialist.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	},
	{
		Name:        HandoffDining,
		Desc:        "Hand the conversation to the dining specialist.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	},
	{
		Name:        HandoffActivity,
		Desc:        "Hand the conversation to the activity specialist.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	},
	{
		Name:        HandoffItinerary,
		Desc:        "Hand the conversation to the itinerary planner.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	},
}
