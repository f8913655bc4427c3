package snapshot

import (
	"fmt"

	"haoshi-console/internal/models"
)

// Summary counts the changes found by a refresh
type Summary struct {
	New           int `json:"new"`
	Removed       int `json:"removed"`
	PriceChanged  int `json:"price_changed"`
	StatusChanged int `json:"status_changed"`
	AreaChanged   int `json:"area_changed"`
}

// DetectChanges compares the listings held before a refresh with the ones it
// delivered. Output follows the order of next, then removed listings in the
// order of prev.
func DetectChanges(prev, next []models.Property) []models.PropertyChange {
	before := make(map[string]*models.Property, len(prev))
	for i := range prev {
		before[string(prev[i].ID)] = &prev[i]
	}

	changes := []models.PropertyChange{}
	seen := make(map[string]bool, len(next))

	for i := range next {
		property := &next[i]
		id := string(property.ID)
		seen[id] = true

		last, ok := before[id]
		if !ok {
			changes = append(changes, models.PropertyChange{
				PropertyID: id,
				Community:  property.CommunityName,
				ChangeType: models.ChangeTypeNew,
				NewValue:   property.TotalPrice.String(),
			})
			continue
		}

		// Price change
		if property.TotalPrice.Float() != last.TotalPrice.Float() {
			changes = append(changes, models.PropertyChange{
				PropertyID: id,
				Community:  property.CommunityName,
				ChangeType: models.ChangeTypePrice,
				OldValue:   last.TotalPrice.String(),
				NewValue:   property.TotalPrice.String(),
			})
		}

		// Status change
		if property.Status != last.Status {
			changes = append(changes, models.PropertyChange{
				PropertyID: id,
				Community:  property.CommunityName,
				ChangeType: models.ChangeTypeStatus,
				OldValue:   last.Status,
				NewValue:   property.Status,
			})
		}

		// Area change
		if property.TotalPing.Float() != last.TotalPing.Float() {
			changes = append(changes, models.PropertyChange{
				PropertyID: id,
				Community:  property.CommunityName,
				ChangeType: models.ChangeTypeArea,
				OldValue:   fmt.Sprintf("%.2f", last.TotalPing.Float()),
				NewValue:   fmt.Sprintf("%.2f", property.TotalPing.Float()),
			})
		}
	}

	for i := range prev {
		id := string(prev[i].ID)
		if seen[id] {
			continue
		}
		changes = append(changes, models.PropertyChange{
			PropertyID: id,
			Community:  prev[i].CommunityName,
			ChangeType: models.ChangeTypeRemoved,
			OldValue:   prev[i].TotalPrice.String(),
		})
	}

	return changes
}

// Summarize counts changes by type
func Summarize(changes []models.PropertyChange) Summary {
	var s Summary
	for _, c := range changes {
		switch c.ChangeType {
		case models.ChangeTypeNew:
			s.New++
		case models.ChangeTypeRemoved:
			s.Removed++
		case models.ChangeTypePrice:
			s.PriceChanged++
		case models.ChangeTypeStatus:
			s.StatusChanged++
		case models.ChangeTypeArea:
			s.AreaChanged++
		}
	}
	return s
}
