package trip

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

func TestCreateDerivesIDFromYearAndDestination(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	rec, err := store.Create(context.Background(), contractx.TripRecord{
		UserID:      "user-1",
		Destination: "Barcelona",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	want := fmt.Sprintf("trip_%d_bar", time.Now().UTC().Year())
	if rec.ID != want {
		t.Fatalf("trip id = %s, want %s", rec.ID, want)
	}
	if rec.Status != StatusPlanning {
		t.Fatalf("status = %s, want %s", rec.Status, StatusPlanning)
	}
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	created, err := store.Create(context.Background(), contractx.TripRecord{
		UserID:      "user-1",
		Destination: "barcelona",
		StartDate:   "2026-09-10",
		EndDate:     "2026-09-13",
		Travelers:   []string{"user-1"},
		Days: []contractx.TripDay{
			{Plan: "sagrada familia, then tapas in el born"},
			{Plan: "beach morning, picasso museum"},
		},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Get(context.Background(), "user-1", created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Days) != 2 || got.Days[0].Day != 1 || got.Days[1].Day != 2 {
		t.Fatalf("day numbering = %+v", got.Days)
	}
	if got.StartDate != "2026-09-10" || got.EndDate != "2026-09-13" {
		t.Fatalf("dates = %s..%s", got.StartDate, got.EndDate)
	}
}

func TestCreateReplacesDraftInPlace(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	ctx := context.Background()

	first, err := store.Create(ctx, contractx.TripRecord{
		UserID:      "user-1",
		Destination: "barcelona",
		Days:        []contractx.TripDay{{Plan: "draft one"}},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, err := store.Create(ctx, contractx.TripRecord{
		UserID:      "user-1",
		Destination: "barcelona",
		Days:        []contractx.TripDay{{Plan: "draft two"}},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("ids differ: %s vs %s", first.ID, second.ID)
	}

	got, err := store.Get(ctx, "user-1", first.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Days) != 1 || got.Days[0].Plan != "draft two" {
		t.Fatalf("days = %+v, want the replacing draft", got.Days)
	}
}

func TestGetMissingTrip(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	_, err := store.Get(context.Background(), "user-1", "trip_2026_bar")
	if !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestCreateRequiresDestination(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	_, err := store.Create(context.Background(), contractx.TripRecord{UserID: "user-1"})
	if !errors.Is(err, contractx.ErrInvalidArgument) {
		t.Fatalf("Create() error = %v, want ErrInvalidArgument", err)
	}
}
