package listing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"haoshi-console/internal/derive"
	"haoshi-console/internal/models"
)

// Row actions offered to the principal.
const (
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionView   = "view"
)

// RowEdit is the inline editor attached to the row being edited.
type RowEdit struct {
	ID     string            `json:"id"`
	Draft  map[string]string `json:"draft"`
	Live   derive.Live       `json:"live"`
	Saving bool              `json:"saving"`
	Error  string            `json:"error,omitempty"`
}

// CommunityDetails is the expandable panel under a row.
type CommunityDetails struct {
	Builder        string `json:"builder"`
	CompletionYear string `json:"completion_year"`
	TotalUnits     string `json:"total_units"`
	UnitAreaRange  string `json:"unit_area_range"`
}

// Row is a listing rendered for display.
type Row struct {
	ID            string            `json:"id"`
	CommunityName string            `json:"community_name"`
	Age           string            `json:"age"`
	TotalUnits    string            `json:"total_units"`
	TotalPrice    string            `json:"total_price"`
	TotalPing     string            `json:"total_ping"`
	ParkingPing   string            `json:"parking_ping"`
	HouseArea     string            `json:"house_area"`
	ParkingPrice  string            `json:"parking_price"`
	UnitPrice     string            `json:"unit_price"`
	FloorInfo     string            `json:"floor_info"`
	Address       string            `json:"address"`
	HouseType     string            `json:"house_type"`
	PhotoCount    int               `json:"photo_count"`
	CoverPhoto    string            `json:"cover_photo,omitempty"`
	Status        string            `json:"status"`
	StatusBadge   string            `json:"status_badge"`
	Notes         string            `json:"notes"`
	LastEditor    string            `json:"last_editor"`
	LastEdited    string            `json:"last_edited"`
	Actions       []string          `json:"actions"`
	Expanded      bool              `json:"expanded"`
	Details       *CommunityDetails `json:"details,omitempty"`
	Edit          *RowEdit          `json:"edit,omitempty"`
}

// RenderOptions carries per-principal context into Rows.
type RenderOptions struct {
	CanEdit bool
	// Edit is the row currently open in the inline editor, if any.
	Edit *RowEdit
}

// Rows renders page items for display.
func (e *Engine) Rows(items []models.Property, communities []models.Community, state *ViewState, opts RenderOptions) []Row {
	refYear := e.ReferenceYear()
	rows := make([]Row, 0, len(items))
	for i := range items {
		p := &items[i]
		c := derive.FindCommunity(communities, p.CommunityName)

		row := Row{
			ID:            string(p.ID),
			CommunityName: orDash(p.CommunityName),
			Age:           derive.FormatAge(c, refYear),
			TotalUnits:    derive.NotApplicable,
			TotalPrice:    derive.FormatNumeric(p.TotalPrice, 0),
			TotalPing:     derive.FormatNumeric(p.TotalPing, 1),
			ParkingPing:   derive.FormatNumeric(p.ParkingPing, 1),
			HouseArea:     derive.FormatNumber(derive.HouseArea(p), 1),
			ParkingPrice:  derive.FormatNumeric(p.ParkingPrice, 0),
			UnitPrice:     derive.FormatUnitPrice(p),
			FloorInfo:     orDash(p.FloorInfo),
			Address:       orDash(p.Address),
			HouseType:     derive.HouseTypeOf(p).Label(),
			PhotoCount:    len(p.PhotoPaths),
			CoverPhoto:    p.Cover(),
			Status:        p.Status,
			StatusBadge:   models.StatusBadge(p.Status),
			Notes:         orDash(p.Notes),
			LastEditor:    orDash(p.LastEditor()),
			LastEdited:    FormatDate(p.LastEdited()),
			Actions:       rowActions(opts.CanEdit),
		}
		if c != nil && c.TotalUnits != "" {
			row.TotalUnits = c.TotalUnits.String()
		}
		if state != nil && state.IsExpanded(row.ID) {
			row.Expanded = true
			row.Details = communityDetails(c)
		}
		if opts.Edit != nil && opts.Edit.ID == row.ID {
			row.Edit = opts.Edit
		}
		rows = append(rows, row)
	}
	return rows
}

func rowActions(canEdit bool) []string {
	if canEdit {
		return []string{ActionEdit, ActionDelete}
	}
	return []string{ActionView}
}

func communityDetails(c *models.Community) *CommunityDetails {
	if c == nil {
		c = &models.Community{}
	}
	return &CommunityDetails{
		Builder:        orDash(c.Builder),
		CompletionYear: fmt.Sprintf("民國 %s 年", orDash(c.CompletionDate.String())),
		TotalUnits:     fmt.Sprintf("%s 戶", orDash(c.TotalUnits.String())),
		UnitAreaRange:  fmt.Sprintf("%s 坪", orDash(c.UnitAreaRange)),
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return derive.NotApplicable
	}
	return s
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/1/2",
}

// FormatDate renders a source timestamp as a local date ("2026/1/5").
// Unrecognised input is returned unchanged.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return derive.NotApplicable
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return strconv.Itoa(t.Year()) + "/" + strconv.Itoa(int(t.Month())) + "/" + strconv.Itoa(t.Day())
	}
	return s
}
