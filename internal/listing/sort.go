package listing

import (
	"sort"
	"strings"

	"haoshi-console/internal/derive"
	"haoshi-console/internal/models"
)

var numericColumns = map[string]bool{
	"total_price":   true,
	"total_ping":    true,
	"parking_ping":  true,
	"parking_price": true,
}

var derivedColumns = map[string]bool{
	"house_area": true,
	"unit_price": true,
	"age":        true,
}

var textColumns = map[string]func(*models.Property) string{
	"id":                func(p *models.Property) string { return string(p.ID) },
	"community_name":    func(p *models.Property) string { return p.CommunityName },
	"floor_info":        func(p *models.Property) string { return p.FloorInfo },
	"address":           func(p *models.Property) string { return p.Address },
	"status":            func(p *models.Property) string { return p.Status },
	"layout":            func(p *models.Property) string { return p.Layout },
	"notes":             func(p *models.Property) string { return p.Notes },
	"agent":             func(p *models.Property) string { return p.Agent },
	"maintainer":        func(p *models.Property) string { return p.Maintainer },
	"created_at_source": func(p *models.Property) string { return p.CreatedAtSource },
	"updated_at_source": func(p *models.Property) string { return p.UpdatedAtSource },
}

// canonicalColumn accepts house_ping as the older name of house_area.
func canonicalColumn(column string) string {
	if column == "house_ping" {
		return "house_area"
	}
	return column
}

// SortableColumn reports whether the table can sort by column.
func SortableColumn(column string) bool {
	column = canonicalColumn(column)
	if numericColumns[column] || derivedColumns[column] {
		return true
	}
	_, ok := textColumns[column]
	return ok
}

type sortValue struct {
	num  float64
	text string
}

// sortValue resolves the comparison key of p. Derived values that do not
// apply (no area, no community) sort as 0.
func (e *Engine) sortValue(p *models.Property, column string, communities []models.Community, refYear int) sortValue {
	switch column {
	case "house_area":
		return sortValue{num: derive.HouseArea(p)}
	case "unit_price":
		area := derive.HouseArea(p)
		if area <= 0 {
			return sortValue{}
		}
		return sortValue{num: derive.HouseValue(p) / area}
	case "age":
		age, ok := derive.CommunityAge(derive.FindCommunity(communities, p.CommunityName), refYear)
		if !ok {
			return sortValue{}
		}
		return sortValue{num: float64(age)}
	}
	if numericColumns[column] {
		switch column {
		case "total_price":
			return sortValue{num: p.TotalPrice.Float()}
		case "total_ping":
			return sortValue{num: p.TotalPing.Float()}
		case "parking_ping":
			return sortValue{num: p.ParkingPing.Float()}
		default:
			return sortValue{num: p.ParkingPrice.Float()}
		}
	}
	if get, ok := textColumns[column]; ok {
		return sortValue{text: strings.ToLower(get(p))}
	}
	return sortValue{}
}

func compare(a, b sortValue) int {
	switch {
	case a.num < b.num:
		return -1
	case a.num > b.num:
		return 1
	}
	return strings.Compare(a.text, b.text)
}

// sortProperties orders props in place. The sort is stable: rows with equal
// keys keep store order, so they do not move between renders.
func (e *Engine) sortProperties(props []models.Property, column string, dir Direction, communities []models.Community, refYear int) {
	column = canonicalColumn(column)
	if !SortableColumn(column) {
		return
	}
	keys := make([]sortValue, len(props))
	for i := range props {
		keys[i] = e.sortValue(&props[i], column, communities, refYear)
	}
	idx := make([]int, len(props))
	for i := range idx {
		idx[i] = i
	}
	sign := 1
	if dir == Desc {
		sign = -1
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return sign*compare(keys[idx[i]], keys[idx[j]]) < 0
	})

	sorted := make([]models.Property, len(props))
	for i, k := range idx {
		sorted[i] = props[k]
	}
	copy(props, sorted)
}
