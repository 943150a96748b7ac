// Package memory persists keyed preference facts per user with
// upsert-by-identity semantics: (user, category, key) is the logical
// identity and the latest write wins.
package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
)

// Categories form a closed set mirroring the capability domains.
var knownCategories = map[string]struct{}{
	"hotel":    {},
	"dining":   {},
	"activity": {},
	"trip":     {},
}

const episodicTTL = 90 * 24 * time.Hour

// NewMemoryID mints a mem_-prefixed identifier.
func NewMemoryID() string {
	return "mem_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// normalizeRecord validates identity fields and applies defaults: kind falls
// back to declarative, episodic records get a 90-day expiry when none is
// supplied.
func normalizeRecord(rec contractx.MemoryRecord, now time.Time) (contractx.MemoryRecord, error) {
	rec.UserID = strings.TrimSpace(rec.UserID)
	rec.Category = strings.ToLower(strings.TrimSpace(rec.Category))
	rec.Key = strings.TrimSpace(rec.Key)

	if rec.UserID == "" {
		return rec, fmt.Errorf("%w: user id is required", contractx.ErrInvalidArgument)
	}
	if rec.Key == "" {
		return rec, fmt.Errorf("%w: memory key is required", contractx.ErrInvalidArgument)
	}
	if _, ok := knownCategories[rec.Category]; !ok {
		return rec, fmt.Errorf("%w: unknown memory category %q", contractx.ErrInvalidArgument, rec.Category)
	}

	switch rec.Kind {
	case contractx.MemoryDeclarative, contractx.MemoryProcedural, contractx.MemoryEpisodic:
	case "":
		rec.Kind = contractx.MemoryDeclarative
	default:
		return rec, fmt.Errorf("%w: unknown memory kind %q", contractx.ErrInvalidArgument, rec.Kind)
	}

	if rec.Salience < 0 {
		rec.Salience = 0
	}
	if rec.Salience > 1 {
		rec.Salience = 1
	}
	rec.Justification = strings.TrimSpace(rec.Justification)

	if rec.Kind == contractx.MemoryEpisodic && rec.ExpiresAt == nil {
		expiry := now.UTC().Add(episodicTTL)
		rec.ExpiresAt = &expiry
	}

	if rec.ID == "" {
		rec.ID = NewMemoryID()
	}
	rec.UpdatedAt = now.UTC()
	return rec, nil
}

func identityKey(userID, category, key string) string {
	return userID + "\x00" + category + "\x00" + key
}

func expired(rec contractx.MemoryRecord, now time.Time) bool {
	return rec.ExpiresAt != nil && !rec.ExpiresAt.After(now)
}
