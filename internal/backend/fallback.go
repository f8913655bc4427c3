package backend

import (
	"time"

	"github.com/google/uuid"

	"haoshi-console/internal/models"
	"haoshi-console/internal/store"
)

const dateLayout = "2006-01-02"

// LocalFallback simulates the webhook with built-in demo data.
type LocalFallback struct {
	newID func() string
}

func NewLocalFallback() *LocalFallback {
	return &LocalFallback{newID: func() string { return "demo-" + uuid.NewString() }}
}

// Snapshot returns a fresh copy of the demo collections.
func (f *LocalFallback) Snapshot() store.Snapshot {
	props := demoProperties()
	comms := demoCommunities()
	users := demoUsers()
	return store.Snapshot{Properties: &props, Communities: &comms, Users: &users}
}

// Create synthesizes a stored record from submitted fields.
func (f *LocalFallback) Create(entity models.Entity, data map[string]any, actor string, now time.Time) map[string]any {
	out := make(map[string]any, len(data)+3)
	for k, v := range data {
		out[k] = v
	}
	out["id"] = f.newID()
	switch entity {
	case models.EntityUser:
		out["is_active"] = true
		out["imported_at"] = now.UTC().Format(time.RFC3339)
	default:
		out["created_at_source"] = now.Format(dateLayout)
		out["agent"] = actor
	}
	return out
}

// Update merges submitted fields over the current record.
func (f *LocalFallback) Update(entity models.Entity, current map[string]any, data map[string]any, actor string, now time.Time) map[string]any {
	out := make(map[string]any, len(current)+len(data)+2)
	for k, v := range current {
		out[k] = v
	}
	for k, v := range data {
		out[k] = v
	}
	if entity != models.EntityUser {
		out["updated_at_source"] = now.Format(dateLayout)
		out["maintainer"] = actor
	}
	return out
}
