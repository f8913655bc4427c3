// Package backend connects the record store to the remote webhook API.
//
// Every operation first attempts the remote call. When the remote is
// unreachable the Gateway applies a local fallback instead, so the console
// stays usable offline and in demo mode. Fallback mutations are never
// reconciled with the server; they are flagged in the audit trail.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"haoshi-console/internal/models"
	"haoshi-console/internal/store"
)

var (
	// ErrUnavailable marks network and HTTP failures. Only these trigger the fallback.
	ErrUnavailable = errors.New("webhook unavailable")
	// ErrRejected is returned when the webhook answered but refused the request.
	ErrRejected = errors.New("webhook rejected request")
	// ErrCircuitOpen is returned while the breaker keeps remote calls off.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// Mutation actions understood by the webhook
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// MutationRequest is the envelope posted to the admin endpoints.
type MutationRequest struct {
	Action string         `json:"action"`
	User   string         `json:"user"`
	ID     string         `json:"id,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// MutationResponse is the webhook's answer to a mutation.
type MutationResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// HasData reports whether the webhook echoed the stored record.
func (r *MutationResponse) HasData() bool {
	if r == nil || len(r.Data) == 0 {
		return false
	}
	s := string(r.Data)
	return s != "null" && s != "{}" && s != `""`
}

// PhotoFile is one file to upload.
type PhotoFile struct {
	Name   string
	Reader io.Reader
}

// Remote is the webhook API.
type Remote interface {
	FetchAll(ctx context.Context) (store.Snapshot, error)
	Mutate(ctx context.Context, entity models.Entity, req MutationRequest) (*MutationResponse, error)
	UploadPhotos(ctx context.Context, propertyID, actor string, files []PhotoFile) ([]string, error)
}

// Fallback produces local results when the remote is unavailable.
type Fallback interface {
	Snapshot() store.Snapshot
	Create(entity models.Entity, data map[string]any, actor string, now time.Time) map[string]any
	Update(entity models.Entity, current map[string]any, data map[string]any, actor string, now time.Time) map[string]any
}

// Auditor records every mutation the gateway applies.
type Auditor interface {
	SaveAudit(ctx context.Context, entry *models.AuditEntry) error
}

// ChangeLog stores the listing changes found by a refresh.
type ChangeLog interface {
	SaveChanges(ctx context.Context, changes []models.PropertyChange) error
}

// Indexer keeps an external search index in sync with refreshed listings.
type Indexer interface {
	IndexProperties(props []models.Property) error
}
