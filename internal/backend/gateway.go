package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"haoshi-console/internal/models"
	"haoshi-console/internal/snapshot"
	"haoshi-console/internal/store"
)

// DefaultActor is used when a mutation has no named principal.
const DefaultActor = "系統"

// Gateway applies remote results, or local fallbacks, to the record store.
type Gateway struct {
	remote      Remote
	fallback    Fallback
	store       *store.Store
	breaker     *CircuitBreaker
	auditor     Auditor
	indexer     Indexer
	changes     ChangeLog
	useFallback bool
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

func WithBreaker(cb *CircuitBreaker) Option { return func(g *Gateway) { g.breaker = cb } }
func WithAuditor(a Auditor) Option          { return func(g *Gateway) { g.auditor = a } }
func WithIndexer(i Indexer) Option          { return func(g *Gateway) { g.indexer = i } }
func WithClock(now func() time.Time) Option { return func(g *Gateway) { g.now = now } }
func WithChangeLog(c ChangeLog) Option      { return func(g *Gateway) { g.changes = c } }

// WithFallback toggles the local fallback. When disabled, remote failures are returned.
func WithFallback(enabled bool) Option { return func(g *Gateway) { g.useFallback = enabled } }

func NewGateway(remote Remote, fallback Fallback, st *store.Store, logger *zap.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		remote:      remote,
		fallback:    fallback,
		store:       st,
		useFallback: true,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Store exposes the store the gateway writes to.
func (g *Gateway) Store() *store.Store {
	return g.store
}

// Breaker returns the circuit breaker, if any.
func (g *Gateway) Breaker() *CircuitBreaker {
	return g.breaker
}

// RefreshResult describes a full refresh.
type RefreshResult struct {
	Simulated bool                    `json:"simulated"`
	Counts    map[models.Entity]int   `json:"counts"`
	Changes   []models.PropertyChange `json:"changes"`
	Summary   snapshot.Summary        `json:"summary"`
}

// Refresh replaces the cached collections with the remote ones, or with demo
// data when the remote cannot be read.
func (g *Gateway) Refresh(ctx context.Context) (*RefreshResult, error) {
	result := &RefreshResult{}

	snap, err := g.fetch(ctx)
	if err != nil {
		if !g.useFallback {
			return nil, fmt.Errorf("refresh: %w", err)
		}
		g.logger.Warn("fetch all failed, loading demo data", zap.Error(err))
		snap = g.fallback.Snapshot()
		result.Simulated = true
	}

	prev := g.store.Properties()
	g.store.Replace(snap)

	if snap.Properties != nil {
		result.Changes = snapshot.DetectChanges(prev, *snap.Properties)
		result.Summary = snapshot.Summarize(result.Changes)
	}
	// the first load has nothing to compare against
	if g.changes != nil && len(prev) > 0 && len(result.Changes) > 0 {
		detected := g.now()
		for i := range result.Changes {
			result.Changes[i].DetectedAt = detected
		}
		if err := g.changes.SaveChanges(ctx, result.Changes); err != nil {
			g.logger.Warn("failed to store listing changes", zap.Error(err))
		}
	}
	result.Counts = g.store.Counts()

	if g.indexer != nil {
		if err := g.indexer.IndexProperties(g.store.Properties()); err != nil {
			g.logger.Warn("search reindex failed", zap.Error(err))
		}
	}

	g.logger.Info("data refreshed",
		zap.Bool("simulated", result.Simulated),
		zap.Int("properties", result.Counts[models.EntityProperty]),
		zap.Int("communities", result.Counts[models.EntityCommunity]),
		zap.Int("users", result.Counts[models.EntityUser]),
		zap.Int("new", result.Summary.New),
		zap.Int("removed", result.Summary.Removed),
	)
	return result, nil
}

// Result is the outcome of a mutation.
type Result struct {
	Entity    models.Entity  `json:"entity"`
	ID        string         `json:"id"`
	Record    map[string]any `json:"data,omitempty"`
	Simulated bool           `json:"-"`
}

// Create stores a new record.
func (g *Gateway) Create(ctx context.Context, entity models.Entity, data map[string]any, actor string) (*Result, error) {
	actor = actorName(actor)
	resp, err := g.mutate(ctx, entity, MutationRequest{Action: ActionCreate, User: actor, Data: data})

	res := &Result{Entity: entity}
	switch {
	case err == nil:
		if rec, ok := decodeRecord(resp); ok {
			if err := g.put(entity, rec, true); err != nil {
				return nil, err
			}
			res.Record = rec
			res.ID = recordID(rec)
		}
	case g.canFallback(err):
		g.logger.Warn("create failed remotely, applying locally",
			zap.String("entity", string(entity)), zap.Error(err))
		rec := g.fallback.Create(entity, data, actor, g.now())
		if err := g.put(entity, rec, true); err != nil {
			return nil, err
		}
		res.Record = rec
		res.ID = recordID(rec)
		res.Simulated = true
	default:
		return nil, fmt.Errorf("create %s: %w", entity, err)
	}

	g.audit(ctx, entity, models.ActionCreate, res.ID, actor, res.Simulated)
	return res, nil
}

// Update patches an existing record.
func (g *Gateway) Update(ctx context.Context, entity models.Entity, id string, data map[string]any, actor string) (*Result, error) {
	actor = actorName(actor)
	current, err := g.current(entity, id)
	if err != nil {
		return nil, err
	}

	resp, err := g.mutate(ctx, entity, MutationRequest{Action: ActionUpdate, User: actor, ID: id, Data: data})

	res := &Result{Entity: entity, ID: id}
	var rec map[string]any
	switch {
	case err == nil:
		confirmed, ok := decodeRecord(resp)
		if ok {
			rec = confirmed
			if recordID(rec) == "" {
				rec["id"] = id
			}
		} else {
			rec = merge(current, data)
		}
	case g.canFallback(err):
		g.logger.Warn("update failed remotely, applying locally",
			zap.String("entity", string(entity)), zap.String("id", id), zap.Error(err))
		rec = g.fallback.Update(entity, current, data, actor, g.now())
		res.Simulated = true
	default:
		return nil, fmt.Errorf("update %s %s: %w", entity, id, err)
	}

	if err := g.put(entity, rec, false); err != nil {
		return nil, err
	}
	res.Record = rec

	g.audit(ctx, entity, models.ActionUpdate, id, actor, res.Simulated)
	return res, nil
}

// Delete removes a record.
func (g *Gateway) Delete(ctx context.Context, entity models.Entity, id string, actor string) (*Result, error) {
	actor = actorName(actor)
	if _, err := g.current(entity, id); err != nil {
		return nil, err
	}

	_, err := g.mutate(ctx, entity, MutationRequest{Action: ActionDelete, User: actor, ID: id})

	res := &Result{Entity: entity, ID: id}
	switch {
	case err == nil:
	case g.canFallback(err):
		g.logger.Warn("delete failed remotely, applying locally",
			zap.String("entity", string(entity)), zap.String("id", id), zap.Error(err))
		res.Simulated = true
	default:
		return nil, fmt.Errorf("delete %s %s: %w", entity, id, err)
	}

	g.store.Remove(entity, id)
	g.audit(ctx, entity, models.ActionDelete, id, actor, res.Simulated)
	return res, nil
}

// UploadPhotos uploads listing photos and attaches the returned URLs. There
// is no local fallback for uploads.
func (g *Gateway) UploadPhotos(ctx context.Context, propertyID string, files []PhotoFile, actor string) ([]string, error) {
	actor = actorName(actor)
	property, err := g.store.Property(propertyID)
	if err != nil {
		return nil, err
	}

	urls, err := g.remote.UploadPhotos(ctx, propertyID, actor, files)
	if err != nil {
		return nil, fmt.Errorf("upload photos: %w", err)
	}

	property.AddPhotos(urls...)
	if err := g.store.PutProperty(property); err != nil {
		return nil, err
	}
	g.audit(ctx, models.EntityProperty, models.ActionUpload, propertyID, actor, false)
	return urls, nil
}

func (g *Gateway) fetch(ctx context.Context) (store.Snapshot, error) {
	if g.breaker != nil && !g.breaker.CanProceed() {
		return store.Snapshot{}, ErrCircuitOpen
	}
	snap, err := g.remote.FetchAll(ctx)
	g.record(err)
	return snap, err
}

func (g *Gateway) mutate(ctx context.Context, entity models.Entity, req MutationRequest) (*MutationResponse, error) {
	if g.breaker != nil && !g.breaker.CanProceed() {
		return nil, ErrCircuitOpen
	}
	resp, err := g.remote.Mutate(ctx, entity, req)
	g.record(err)
	return resp, err
}

func (g *Gateway) record(err error) {
	if g.breaker == nil {
		return
	}
	if err == nil || errors.Is(err, ErrRejected) {
		g.breaker.RecordSuccess()
		return
	}
	g.breaker.RecordFailure()
}

func (g *Gateway) canFallback(err error) bool {
	return g.useFallback && (errors.Is(err, ErrUnavailable) || errors.Is(err, ErrCircuitOpen))
}

func (g *Gateway) current(entity models.Entity, id string) (map[string]any, error) {
	var (
		rec any
		err error
	)
	switch entity {
	case models.EntityProperty:
		rec, err = g.store.Property(id)
	case models.EntityCommunity:
		rec, err = g.store.Community(id)
	case models.EntityUser:
		rec, err = g.store.User(id)
	default:
		return nil, fmt.Errorf("unknown entity %q", entity)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", entity, id, err)
	}
	return models.ToMap(rec)
}

func (g *Gateway) put(entity models.Entity, rec map[string]any, add bool) error {
	switch entity {
	case models.EntityProperty:
		var p models.Property
		if err := models.FromMap(rec, &p); err != nil {
			return err
		}
		if add {
			g.store.AddProperty(p)
			return nil
		}
		return g.store.PutProperty(p)
	case models.EntityCommunity:
		var c models.Community
		if err := models.FromMap(rec, &c); err != nil {
			return err
		}
		if add {
			g.store.AddCommunity(c)
			return nil
		}
		return g.store.PutCommunity(c)
	case models.EntityUser:
		var u models.User
		if err := models.FromMap(rec, &u); err != nil {
			return err
		}
		if add {
			g.store.AddUser(u)
			return nil
		}
		return g.store.PutUser(u)
	}
	return fmt.Errorf("unknown entity %q", entity)
}

func (g *Gateway) audit(ctx context.Context, entity models.Entity, action, id, actor string, simulated bool) {
	if simulated {
		g.logger.Warn("mutation applied locally only",
			zap.String("entity", string(entity)),
			zap.String("action", action),
			zap.String("id", id),
		)
	}
	if g.auditor == nil {
		return
	}
	entry := &models.AuditEntry{
		Entity:    string(entity),
		Action:    action,
		TargetID:  id,
		Actor:     actor,
		Simulated: simulated,
		CreatedAt: g.now(),
	}
	if err := g.auditor.SaveAudit(ctx, entry); err != nil {
		g.logger.Error("failed to save audit entry", zap.Error(err))
	}
}

// decodeRecord reads the record echoed by the webhook. Some workflows wrap
// it in a one-element array.
func decodeRecord(resp *MutationResponse) (map[string]any, bool) {
	if !resp.HasData() {
		return nil, false
	}
	raw := bytes.TrimSpace(resp.Data)
	if raw[0] == '[' {
		var list []map[string]any
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return nil, false
		}
		return list[0], true
	}
	var rec map[string]any
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false
	}
	return rec, true
}

func recordID(rec map[string]any) string {
	switch v := rec["id"].(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprint(v)
	}
}

func merge(current, data map[string]any) map[string]any {
	out := make(map[string]any, len(current)+len(data))
	for k, v := range current {
		out[k] = v
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

func actorName(actor string) string {
	if actor == "" {
		return DefaultActor
	}
	return actor
}
