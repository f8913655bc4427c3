// Package editing implements the inline row editor: one editing row per
// entity kind, a draft of its field values and the save/cancel cycle.
package editing

import (
	"errors"

	"haoshi-console/internal/models"
)

var (
	// ErrNotEditing is returned when no row of the entity is being edited.
	ErrNotEditing = errors.New("no row is being edited")
	// ErrSaving is returned when the editing row has a save in flight.
	ErrSaving = errors.New("save in progress")
	// ErrUnknownField is returned for draft fields the editor does not offer.
	ErrUnknownField = errors.New("field is not editable")
	// ErrInvalidDraft is returned when a required field is empty.
	ErrInvalidDraft = errors.New("invalid draft")
)

// Mode is the editor state of a row.
type Mode string

const (
	Viewing Mode = "viewing"
	Editing Mode = "editing"
)

// State is the editor of one entity kind.
type State struct {
	Mode   Mode              `json:"mode"`
	ID     string            `json:"id,omitempty"`
	Draft  map[string]string `json:"draft,omitempty"`
	Saving bool              `json:"saving,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// IsEditing reports whether a row is open in the editor.
func (s State) IsEditing() bool {
	return s.Mode == Editing && s.ID != ""
}

// Board holds the editor state of every entity kind for one session.
type Board map[models.Entity]State

// NewBoard returns a board with every kind viewing.
func NewBoard() Board {
	return Board{}
}

// Get returns the state for entity; missing kinds are viewing.
func (b Board) Get(entity models.Entity) State {
	if s, ok := b[entity]; ok && s.Mode != "" {
		return s
	}
	return State{Mode: Viewing}
}

func (b *Board) set(entity models.Entity, s State) {
	if *b == nil {
		*b = Board{}
	}
	(*b)[entity] = s
}

// Settle copies the outcome of saving row id from done into b. A board
// whose row is no longer saving id is left alone.
func (b *Board) Settle(entity models.Entity, id string, done Board) {
	cur := b.Get(entity)
	if !cur.Saving || cur.ID != id {
		return
	}
	b.set(entity, done.Get(entity))
}

// fields lists what the inline editor offers per entity kind.
var fields = map[models.Entity][]string{
	models.EntityProperty: {
		"community_name", "total_price", "total_ping", "parking_ping", "parking_price",
		"floor_info", "address", "layout", "status", "notes",
	},
	models.EntityCommunity: {
		"builder", "community_name", "completion_date", "total_units", "unit_area_range",
	},
	models.EntityUser: {
		"name", "email", "title", "role",
	},
}

var numericFields = map[string]bool{
	"total_price":   true,
	"total_ping":    true,
	"parking_ping":  true,
	"parking_price": true,
}

var requiredFields = map[models.Entity][]string{
	models.EntityProperty:  {"community_name"},
	models.EntityCommunity: {"community_name"},
	models.EntityUser:      {"name", "email", "role"},
}

// Fields returns the editable fields of an entity kind.
func Fields(entity models.Entity) []string {
	return fields[entity]
}

func editable(entity models.Entity, field string) bool {
	for _, f := range fields[entity] {
		if f == field {
			return true
		}
	}
	return false
}
