package search

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterParams narrows a keyword search over listings.
type FilterParams struct {
	Query     string
	Statuses  []string
	Layouts   []string
	Community string
	MinPrice  *float64
	MaxPrice  *float64
	// ActiveOnly hides delisted listings.
	ActiveOnly bool
	Limit      int64
}

// BuildFilter renders params as a meilisearch filter expression. An empty
// string means no filter.
func BuildFilter(params FilterParams) string {
	var filters []string

	if params.ActiveOnly {
		filters = append(filters, "active = true")
	}

	// Price range filter (萬)
	if params.MinPrice != nil {
		filters = append(filters, "total_price >= "+formatFloat(*params.MinPrice))
	}
	if params.MaxPrice != nil {
		filters = append(filters, "total_price <= "+formatFloat(*params.MaxPrice))
	}

	if f := anyOf("status", params.Statuses); f != "" {
		filters = append(filters, f)
	}
	if f := anyOf("layout", params.Layouts); f != "" {
		filters = append(filters, f)
	}
	if params.Community != "" {
		filters = append(filters, fmt.Sprintf("community_name = %s", quote(params.Community)))
	}

	return strings.Join(filters, " AND ")
}

func anyOf(attr string, values []string) string {
	var parts []string
	for _, v := range values {
		if v == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s = %s", attr, quote(v)))
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, " OR ") + ")"
	}
}

// quote wraps a value in double quotes, escaping embedded quotes and backslashes
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
