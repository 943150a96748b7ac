// Package trip persists itinerary drafts. A trip is created by the
// itinerary capability and read back on later turns, across threads.
package trip

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

const StatusPlanning = "planning"

// NewTripID derives the identifier from the planning year and destination.
// Re-planning the same destination in the same year lands on the same trip.
func NewTripID(destination string, now time.Time) string {
	dst := strings.ToLower(strings.TrimSpace(destination))
	if len(dst) > 3 {
		dst = dst[:3]
	}
	return fmt.Sprintf("trip_%d_%s", now.UTC().Year(), dst)
}

// normalizeRecord validates required fields and applies defaults: a derived
// ID, planning status, and day numbering starting at 1.
func normalizeRecord(rec contractx.TripRecord, now time.Time) (contractx.TripRecord, error) {
	rec.UserID = strings.TrimSpace(rec.UserID)
	rec.Destination = strings.ToLower(strings.TrimSpace(rec.Destination))

	if rec.UserID == "" {
		return rec, fmt.Errorf("%w: user id is required", contractx.ErrInvalidArgument)
	}
	if rec.Destination == "" {
		return rec, fmt.Errorf("%w: destination is required", contractx.ErrInvalidArgument)
	}

	if rec.ID == "" {
		rec.ID = NewTripID(rec.Destination, now)
	}
	if rec.Status == "" {
		rec.Status = StatusPlanning
	}
	for i := range rec.Days {
		if rec.Days[i].Day == 0 {
			rec.Days[i].Day = i + 1
		}
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now.UTC()
	}
	rec.UpdatedAt = now.UTC()
	return rec, nil
}
