package tool

import (
	"errors"
	"testing"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

func TestNormalizeCategory(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		raw      any
		want     string
		wantDiag bool
	}{
		{name: "plain string", raw: "hotel", want: "hotel"},
		{name: "uppercase trimmed", raw: "  Restaurant ", want: "restaurant"},
		{name: "single element list", raw: []string{"hotel"}, want: "hotel"},
		{name: "multi element list keeps first", raw: []string{"hotel", "cafe"}, want: "hotel", wantDiag: true},
		{name: "json decoded list", raw: []any{"museum", "park"}, want: "museum", wantDiag: true},
		{name: "pipe joined keeps first segment", raw: "hotel|cafe", want: "hotel", wantDiag: true},
		{name: "comma joined keeps first segment", raw: "restaurant,bar", want: "restaurant", wantDiag: true},
		{name: "semicolon joined keeps first segment", raw: "park;museum", want: "park", wantDiag: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, diag, err := normalizeCategory(tc.raw)
			if err != nil {
				t.Fatalf("normalizeCategory(%v) error = %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("normalizeCategory(%v) = %q, want %q", tc.raw, got, tc.want)
			}
			if (diag != "") != tc.wantDiag {
				t.Fatalf("normalizeCategory(%v) diag = %q, wantDiag = %v", tc.raw, diag, tc.wantDiag)
			}
		})
	}
}

func TestNormalizeCategoryRejections(t *testing.T) {
	t.Parallel()

	for _, raw := range []any{nil, "", "  ", []string{}, []any{}, []any{42}, 7} {
		if _, _, err := normalizeCategory(raw); !errors.Is(err, contractx.ErrInvalidArgument) {
			t.Fatalf("normalizeCategory(%v) error = %v, want ErrInvalidArgument", raw, err)
		}
	}
}

func TestClampTopK(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  any
		want int
	}{
		{nil, 5},
		{0, 5},
		{-3, 5},
		{3, 3},
		{float64(7), 7}, // json numbers arrive as float64
		{25, 10},
	}
	for _, tc := range cases {
		if got := clampTopK(tc.raw, 5, 10); got != tc.want {
			t.Fatalf("clampTopK(%v) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestPaletteBoundaries(t *testing.T) {
	t.Parallel()

	if allowed(contractx.CapabilityHotel, ToolGetThreadContext) {
		t.Fatal("hotel must not reach get_thread_context")
	}
	if !allowed(contractx.CapabilityItinerary, ToolGetThreadContext) {
		t.Fatal("itinerary must reach get_thread_context")
	}
	if !allowed(contractx.CapabilitySummarizer, ToolGetThreadContext) {
		t.Fatal("summarizer must reach get_thread_context")
	}
	if allowed(contractx.CapabilitySummarizer, ToolStoreUserMemory) {
		t.Fatal("summarizer must not write memories")
	}
	if allowed(contractx.CapabilityHotel, ToolCreateTrip) || allowed(contractx.CapabilityDining, ToolGetTrip) {
		t.Fatal("trip tools belong to the itinerary palette only")
	}
	if !allowed(contractx.CapabilityItinerary, ToolCreateTrip) || !allowed(contractx.CapabilityItinerary, ToolGetTrip) {
		t.Fatal("itinerary must reach the trip tools")
	}
}

func TestInfosExcludeSelfHandoff(t *testing.T) {
	t.Parallel()

	for _, info := range InfosFor(contractx.CapabilityHotel) {
		if info.Name == HandoffHotel {
			t.Fatal("hotel palette offers a hand-off to itself")
		}
	}

	var handoffs int
	for _, info := range InfosFor(contractx.CapabilityOrchestrator) {
		if _, ok := HandoffTarget(info.Name); ok {
			handoffs++
		}
	}
	if handoffs != 4 {
		t.Fatalf("orchestrator hand-offs = %d, want 4", handoffs)
	}
}
