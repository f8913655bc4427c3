// Package listing turns the record store into the listing table: tab
// partition, filters, sorting, pagination, row rendering and the two
// overview charts.
package listing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Tab selects which part of the collection is listed.
type Tab string

const (
	TabActive   Tab = "active"
	TabArchived Tab = "archived"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ErrUnknownSortKey is returned for columns the table cannot sort by.
var ErrUnknownSortKey = errors.New("unknown sort column")

// Filters narrow the listing. Zero values are unset.
type Filters struct {
	MinPrice     *float64 `json:"min_price,omitempty"`
	MaxPrice     *float64 `json:"max_price,omitempty"`
	HouseType    string   `json:"house_type,omitempty"`
	ContractType string   `json:"contract_type,omitempty"`
	Community    string   `json:"community,omitempty"`
}

// ParsePrice reads a price filter input. Blank, unparsable and zero inputs
// leave the bound unset.
func ParsePrice(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v == 0 {
		return nil
	}
	return &v
}

// ViewState is everything a session needs to reproduce its listing table.
type ViewState struct {
	Tab           Tab       `json:"tab"`
	Filters       Filters   `json:"filters"`
	SortColumn    string    `json:"sort_column"`
	SortDirection Direction `json:"sort_direction"`
	Page          int       `json:"page"`
	Expanded      []string  `json:"expanded,omitempty"`
}

// DefaultViewState lists active listings, most expensive first.
func DefaultViewState() ViewState {
	return ViewState{
		Tab:           TabActive,
		SortColumn:    "total_price",
		SortDirection: Desc,
		Page:          1,
	}
}

// SetTab switches tab and returns to the first page.
func (s *ViewState) SetTab(tab Tab) error {
	if tab != TabActive && tab != TabArchived {
		return fmt.Errorf("unknown tab %q", tab)
	}
	s.Tab = tab
	s.Page = 1
	return nil
}

// SetFilters replaces the filters and returns to the first page.
func (s *ViewState) SetFilters(f Filters) {
	s.Filters = f
	s.Page = 1
}

// ToggleSort flips direction on the current column; a new column starts
// descending. The page is kept.
func (s *ViewState) ToggleSort(column string) error {
	if !SortableColumn(column) {
		return fmt.Errorf("%w: %q", ErrUnknownSortKey, column)
	}
	if canonicalColumn(s.SortColumn) == canonicalColumn(column) {
		if s.SortDirection == Asc {
			s.SortDirection = Desc
		} else {
			s.SortDirection = Asc
		}
		return nil
	}
	s.SortColumn = column
	s.SortDirection = Desc
	return nil
}

// GoTo moves to page, clamped to [1, totalPages].
func (s *ViewState) GoTo(page, totalPages int) {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	s.Page = page
}

// ToggleExpanded shows or hides the community details under a row.
func (s *ViewState) ToggleExpanded(id string) bool {
	for i, e := range s.Expanded {
		if e == id {
			s.Expanded = append(s.Expanded[:i], s.Expanded[i+1:]...)
			return false
		}
	}
	s.Expanded = append(s.Expanded, id)
	return true
}

// IsExpanded reports whether the row's community details are shown.
func (s *ViewState) IsExpanded(id string) bool {
	for _, e := range s.Expanded {
		if e == id {
			return true
		}
	}
	return false
}

func (s *ViewState) normalize() {
	if s.Tab == "" {
		s.Tab = TabActive
	}
	if s.SortDirection != Asc && s.SortDirection != Desc {
		s.SortDirection = Desc
	}
	if s.Page < 1 {
		s.Page = 1
	}
}
