package editing

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"haoshi-console/internal/auth"
	"haoshi-console/internal/backend"
	"haoshi-console/internal/derive"
	"haoshi-console/internal/models"
)

// Updater sends a committed draft to the record backend.
type Updater interface {
	Update(ctx context.Context, entity models.Entity, id string, data map[string]any, actor string) (*backend.Result, error)
}

// Records reads the cached records drafts are built from.
type Records interface {
	Property(id string) (models.Property, error)
	Community(id string) (models.Community, error)
	User(id string) (models.User, error)
	Communities() []models.Community
}

// Controller drives editor transitions for a board.
type Controller struct {
	updater Updater
	records Records
	refYear func() int
	logger  *zap.Logger
}

// NewController creates a controller. refYear supplies the year community
// ages are computed against.
func NewController(updater Updater, records Records, refYear func() int, logger *zap.Logger) *Controller {
	return &Controller{
		updater: updater,
		records: records,
		refYear: refYear,
		logger:  logger,
	}
}

// Start opens row id in the editor. Any other row of the same kind is
// cancelled first and its draft discarded.
func (c *Controller) Start(b *Board, p auth.Principal, entity models.Entity, id string) (State, error) {
	if !auth.CanEdit(p, entity) {
		return State{}, fmt.Errorf("edit %s: %w", entity, auth.ErrForbidden)
	}
	if cur := b.Get(entity); cur.Saving {
		return cur, ErrSaving
	}

	draft, err := c.draftFor(entity, id)
	if err != nil {
		return State{}, err
	}

	s := State{Mode: Editing, ID: id, Draft: draft}
	b.set(entity, s)
	return s, nil
}

// SetField updates one draft value and returns the recomputed derived
// fields. Nothing is committed.
func (c *Controller) SetField(b *Board, entity models.Entity, field, value string) (derive.Live, error) {
	s := b.Get(entity)
	if !s.IsEditing() {
		return derive.Live{}, ErrNotEditing
	}
	if s.Saving {
		return derive.Live{}, ErrSaving
	}
	if !editable(entity, field) {
		return derive.Live{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	if s.Draft == nil {
		s.Draft = map[string]string{}
	}
	s.Draft[field] = value
	b.set(entity, s)
	return c.Live(s), nil
}

// Live recomputes the derived fields of a property draft.
func (c *Controller) Live(s State) derive.Live {
	return derive.Recompute(s.Draft, c.records.Communities(), c.refYear())
}

// BeginSave validates the draft, marks the row saving and returns the
// update payload with numeric fields coerced.
func (c *Controller) BeginSave(b *Board, entity models.Entity) (string, map[string]any, error) {
	s := b.Get(entity)
	if !s.IsEditing() {
		return "", nil, ErrNotEditing
	}
	if s.Saving {
		return "", nil, ErrSaving
	}
	if err := validate(entity, s.Draft); err != nil {
		s.Error = err.Error()
		b.set(entity, s)
		return "", nil, err
	}

	s.Saving = true
	s.Error = ""
	b.set(entity, s)
	return s.ID, Coerce(s.Draft), nil
}

// Commit sends the payload. On success the row returns to viewing; on
// failure it stays in the editor with its draft and the error recorded.
func (c *Controller) Commit(ctx context.Context, b *Board, p auth.Principal, entity models.Entity, id string, data map[string]any) (*backend.Result, error) {
	res, err := c.updater.Update(ctx, entity, id, data, p.Name)

	s := b.Get(entity)
	if err != nil {
		c.logger.Warn("Inline save failed",
			zap.String("entity", string(entity)),
			zap.String("id", id),
			zap.Error(err))
		if s.ID == id {
			s.Saving = false
			s.Error = err.Error()
			b.set(entity, s)
		}
		return nil, err
	}

	if s.ID == id {
		b.set(entity, State{Mode: Viewing})
	}
	return res, nil
}

// Save is BeginSave followed by Commit.
func (c *Controller) Save(ctx context.Context, b *Board, p auth.Principal, entity models.Entity) (*backend.Result, error) {
	id, data, err := c.BeginSave(b, entity)
	if err != nil {
		return nil, err
	}
	return c.Commit(ctx, b, p, entity, id, data)
}

// Cancel discards the draft. A row with a save in flight cannot be cancelled.
func (c *Controller) Cancel(b *Board, entity models.Entity) error {
	s := b.Get(entity)
	if s.Saving {
		return ErrSaving
	}
	b.set(entity, State{Mode: Viewing})
	return nil
}

func (c *Controller) draftFor(entity models.Entity, id string) (map[string]string, error) {
	var rec any
	var err error
	switch entity {
	case models.EntityProperty:
		var p models.Property
		p, err = c.records.Property(id)
		rec = p
	case models.EntityCommunity:
		var cm models.Community
		cm, err = c.records.Community(id)
		rec = cm
	case models.EntityUser:
		var u models.User
		u, err = c.records.User(id)
		rec = u
	default:
		return nil, fmt.Errorf("unknown entity %q", entity)
	}
	if err != nil {
		return nil, err
	}

	m, err := models.ToMap(rec)
	if err != nil {
		return nil, err
	}
	draft := make(map[string]string, len(fields[entity]))
	for _, f := range fields[entity] {
		draft[f] = stringify(m[f])
	}
	return draft, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return derive.FormatNumber(t, -1)
	default:
		return fmt.Sprint(t)
	}
}

// Coerce converts a draft into an update payload. Numeric fields become
// numbers, or null when blank or unparsable.
func Coerce(draft map[string]string) map[string]any {
	out := make(map[string]any, len(draft))
	for k, v := range draft {
		if !numericFields[k] {
			out[k] = v
			continue
		}
		if f, ok := models.ParseNumber(v); ok {
			out[k] = f
		} else {
			out[k] = nil
		}
	}
	return out
}

func validate(entity models.Entity, draft map[string]string) error {
	for _, f := range requiredFields[entity] {
		if strings.TrimSpace(draft[f]) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidDraft, f)
		}
	}
	if entity == models.EntityUser && !auth.ValidRole(models.Role(draft["role"])) {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidDraft, draft["role"])
	}
	return nil
}
