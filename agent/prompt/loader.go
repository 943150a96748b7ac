package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/orchestrator.txt
	orchestratorRaw string

	//go:embed template/hotel.txt
	hotelRaw string

	//go:embed template/dining.txt
	diningRaw string

	//go:embed template/activity.txt
	activityRaw string

	//go:embed template/itinerary.txt
	itineraryRaw string

	//go:embed template/summarizer.txt
	summarizerRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Orchestrator string
	Hotel        string
	Dining       string
	Activity     string
	Itinerary    string
	Summarizer   string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Orchestrator: strings.TrimSpace(orchestratorRaw),
		Hotel:        strings.TrimSpace(hotelRaw),
		Dining:       strings.TrimSpace(diningRaw),
		Activity:     strings.TrimSpace(activityRaw),
		Itinerary:    strings.TrimSpace(itineraryRaw),
		Summarizer:   strings.TrimSpace(summarizerRaw),
	}
}
