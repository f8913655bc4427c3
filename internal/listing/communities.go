package listing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"haoshi-console/internal/derive"
	"haoshi-console/internal/models"
)

// CommunityQuery is the state of the community management list.
type CommunityQuery struct {
	Search        string    `json:"search,omitempty"`
	SortColumn    string    `json:"sort_column"`
	SortDirection Direction `json:"sort_direction"`
}

// DefaultCommunityQuery sorts communities by name.
func DefaultCommunityQuery() CommunityQuery {
	return CommunityQuery{SortColumn: "community_name", SortDirection: Asc}
}

// ToggleSort flips direction on the current column; a new column starts
// ascending.
func (q *CommunityQuery) ToggleSort(column string) error {
	if _, ok := communityText[column]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSortKey, column)
	}
	if q.SortColumn == column {
		if q.SortDirection == Asc {
			q.SortDirection = Desc
		} else {
			q.SortDirection = Asc
		}
		return nil
	}
	q.SortColumn = column
	q.SortDirection = Asc
	return nil
}

// SetSort sorts by column in the given direction.
func (q *CommunityQuery) SetSort(column string, dir Direction) error {
	if _, ok := communityText[column]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSortKey, column)
	}
	if dir != Asc && dir != Desc {
		return fmt.Errorf("unknown sort direction %q", dir)
	}
	q.SortColumn = column
	q.SortDirection = dir
	return nil
}

var communityText = map[string]func(*models.Community) string{
	"id":                func(c *models.Community) string { return string(c.ID) },
	"community_name":    func(c *models.Community) string { return c.CommunityName },
	"builder":           func(c *models.Community) string { return c.Builder },
	"completion_date":   func(c *models.Community) string { return c.CompletionDate.String() },
	"total_units":       func(c *models.Community) string { return c.TotalUnits.String() },
	"unit_area_range":   func(c *models.Community) string { return c.UnitAreaRange },
	"agent":             func(c *models.Community) string { return c.Agent },
	"maintainer":        func(c *models.Community) string { return c.Maintainer },
	"created_at_source": func(c *models.Community) string { return c.CreatedAtSource },
	"updated_at_source": func(c *models.Community) string { return c.UpdatedAtSource },
}

// CommunityRow is a community with its listing count and age.
type CommunityRow struct {
	models.Community
	Age          string `json:"age"`
	ListingCount int    `json:"listing_count"`
}

// Communities searches and sorts the community list. The search matches
// name or builder, case-insensitively.
func (e *Engine) Communities(q CommunityQuery, communities []models.Community, props []models.Property) []CommunityRow {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	counts := make(map[string]int)
	for i := range props {
		counts[props[i].CommunityName]++
	}

	refYear := e.ReferenceYear()
	out := make([]CommunityRow, 0, len(communities))
	for i := range communities {
		c := communities[i]
		if term != "" &&
			!strings.Contains(strings.ToLower(c.CommunityName), term) &&
			!strings.Contains(strings.ToLower(c.Builder), term) {
			continue
		}
		out = append(out, CommunityRow{
			Community:    c,
			Age:          derive.FormatAge(&c, refYear),
			ListingCount: counts[c.CommunityName],
		})
	}

	get, ok := communityText[q.SortColumn]
	if !ok {
		return out
	}
	numeric := q.SortColumn == "completion_date" || q.SortColumn == "total_units"
	sign := 1
	if q.SortDirection == Desc {
		sign = -1
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := get(&out[i].Community), get(&out[j].Community)
		if numeric {
			return sign*compareInts(leadingInt(a), leadingInt(b)) < 0
		}
		return sign*strings.Compare(strings.ToLower(a), strings.ToLower(b)) < 0
	})
	return out
}

func leadingInt(s string) int {
	n, ok := derive.CompletionYear(s)
	if !ok {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v
		}
		return 0
	}
	return n
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
